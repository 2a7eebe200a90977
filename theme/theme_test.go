package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sightread/score"
)

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, "Stage", p.Name)
	assert.Len(t, p.Colors, 10)
	assert.Equal(t, RGB{18, 14, 36}, p.Lookup(0))
	assert.Equal(t, RGB{250, 226, 120}, p.Lookup(1))
}

func TestParseGPL(t *testing.T) {
	src := "GIMP Palette\nName: Two\nColumns: 2\n# comment\n  0   0   0\tblack\n255 255 255\twhite\n"
	p, err := ParseGPL(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "Two", p.Name)
	assert.Equal(t, RGB{127, 127, 127}, p.Lookup(0.5))
	assert.Equal(t, RGB{255, 255, 255}, p.Index(9))
	assert.Equal(t, RGB{0, 0, 0}, p.Index(-1))

	_, err = ParseGPL(strings.NewReader("GIMP Palette\n"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	assert.Equal(t, "Stage", LoadOrDefault("").Name)
	assert.Equal(t, "Stage", LoadOrDefault("/nonexistent/palette.gpl").Name)
}

func TestRoleColors(t *testing.T) {
	th := New(nil)
	assert.Equal(t, th.Missed(), th.Result(score.Bombed))
	assert.Equal(t, th.Success(), th.Result(score.Legendary))
	assert.NotEqual(t, th.Trophy(score.Gold), th.Trophy(score.Diamond))
	assert.True(t, strings.HasPrefix(string(th.FG()), "#"))
}
