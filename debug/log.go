package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the sink the core writes diagnostics to.
type Logger interface {
	Log(category, format string, args ...any)
}

// FileLogger writes timestamped, categorised lines to a writer.
type FileLogger struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	counters map[string]int
}

// NewLogger wraps any writer (tests use a bytes.Buffer)
func NewLogger(w io.Writer) *FileLogger {
	return &FileLogger{w: w, counters: make(map[string]int)}
}

// OpenFile truncates and opens a log file, creating its directory
func OpenFile(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	l := NewLogger(f)
	l.closer = f
	l.Log("debug", "=== Debug logging started ===")
	return l, nil
}

// Log writes a message to the log
func (l *FileLogger) Log(category, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return
	}

	ts := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.w, "[%s] %-10s %s\n", ts, category, msg)
	if f, ok := l.w.(*os.File); ok {
		f.Sync() // flush immediately so we see logs even on crash
	}
}

// LogEvery logs only every N calls (use for per-frame events)
func (l *FileLogger) LogEvery(n int, category, format string, args ...any) {
	l.mu.Lock()
	key := category + format
	l.counters[key]++
	count := l.counters[key]
	l.mu.Unlock()

	if count%n == 0 {
		l.Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// Close closes the underlying file, if any
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w = nil
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

type nop struct{}

func (nop) Log(string, string, ...any) {}

// Nop discards everything.
var Nop Logger = nop{}

var (
	mu      sync.Mutex
	current *FileLogger
)

// Enable starts debug logging to the given file and makes it the default logger
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return nil
	}

	l, err := OpenFile(path)
	if err != nil {
		return err
	}
	current = l
	return nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		current.Close()
		current = nil
	}
}

// Default returns the enabled file logger, or Nop
func Default() Logger {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return Nop
	}
	return current
}

// Log writes to the default logger
func Log(category, format string, args ...any) {
	Default().Log(category, format, args...)
}

// LogEvery throttles high-frequency events on the default logger
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	l := current
	mu.Unlock()
	if l != nil {
		l.LogEvery(n, category, format, args...)
	}
}
