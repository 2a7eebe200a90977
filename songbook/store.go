package songbook

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"

	"go-sightread/config"
	"go-sightread/debug"
)

// AutosaveDelay is how long the store waits after the last change before saving.
const AutosaveDelay = 500 * time.Millisecond

// DefaultPath is songbook.json in the config directory.
func DefaultPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "songbook.json"), nil
}

// Store owns a Book on disk and saves it shortly after changes.
type Store struct {
	path      string
	log       debug.Logger
	debounced func(func())

	mu    sync.Mutex
	book  *Book
	dirty bool
}

// Open loads the book at path. A missing file starts an empty book; an
// unreadable one is logged and replaced by an empty book.
func Open(path string, log debug.Logger) *Store {
	if log == nil {
		log = debug.Nop
	}
	s := &Store{
		path:      path,
		log:       log,
		debounced: debounce.New(AutosaveDelay),
		book:      New(),
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Log("songbook", "no book at %s, starting empty", path)
	case err != nil:
		log.Log("songbook", "read %s: %v", path, err)
	default:
		b, err := Decode(data, log)
		if err != nil {
			log.Log("songbook", "%v", err)
			break
		}
		s.book = b
		log.Log("songbook", "loaded %s: %d albums, %d songs", path, len(b.Albums), b.Len())
	}
	return s
}

func (s *Store) Path() string { return s.path }

// View runs fn with the book locked for reading.
func (s *Store) View(fn func(b *Book)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.book)
}

// Update runs fn with the book locked and schedules an autosave.
func (s *Store) Update(fn func(b *Book)) {
	s.mu.Lock()
	fn(s.book)
	s.dirty = true
	s.mu.Unlock()
	s.debounced(s.autosave)
}

func (s *Store) autosave() {
	if err := s.Flush(); err != nil {
		s.log.Log("songbook", "autosave: %v", err)
	}
}

// Flush writes the book now if it has unsaved changes.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := s.save(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Save writes the book unconditionally.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *Store) save() error {
	data, err := s.book.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.log.Log("songbook", "saved %s", s.path)
	return nil
}
