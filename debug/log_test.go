package debug

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFormatsCategory(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Log("engine", "note on %d", 60)

	line := buf.String()
	assert.Contains(t, line, "engine")
	assert.Contains(t, line, "note on 60")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestLogEveryThrottles(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	for i := 0; i < 10; i++ {
		l.LogEvery(5, "frame", "tick")
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "tick"))
}

func TestClosedLoggerDropsLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	require.NoError(t, l.Close())
	l.Log("x", "dropped")
	assert.Empty(t, buf.String())
}

func TestEnableDefault(t *testing.T) {
	assert.Equal(t, Nop, Default())

	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	require.NoError(t, Enable(path))
	defer Disable()

	assert.NotEqual(t, Nop, Default())
	Log("test", "hello")
}
