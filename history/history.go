package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Play is one finished song.
type Play struct {
	Session  string
	SongID   string
	Title    string
	Artist   string
	Score    float64
	MaxScore float64
	Percent  float64
	Result   string
	Mode     string
	PlayedAt time.Time
}

// Store keeps plays in a sqlite database.
type Store struct {
	db *sql.DB
}

const schema = `
create table if not exists plays
  (
	id integer not null primary key,
	session text not null,
	song_id text,
	title text not null,
	artist text,
	score real,
	max_score real,
	percent real,
	result text,
	mode text,
	played_at integer
  );
create index if not exists plays_title on plays(title);
`

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewSession returns a fresh id grouping the plays of one run.
func NewSession() string {
	return uuid.New().String()
}

// Save records a play. A zero PlayedAt is stamped with now.
func (s *Store) Save(p Play) error {
	if p.Session == "" {
		p.Session = NewSession()
	}
	if p.PlayedAt.IsZero() {
		p.PlayedAt = time.Now()
	}
	_, err := s.db.Exec(`insert into plays(session, song_id, title, artist, score, max_score, percent, result, mode, played_at)
		values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Session, p.SongID, p.Title, p.Artist, p.Score, p.MaxScore, p.Percent, p.Result, p.Mode, p.PlayedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save play: %w", err)
	}
	return nil
}

const columns = `session, song_id, title, artist, score, max_score, percent, result, mode, played_at`

// Best returns the highest-percent play of a title.
func (s *Store) Best(title string) (Play, bool, error) {
	row := s.db.QueryRow(`select `+columns+` from plays where title = ? order by percent desc, played_at asc limit 1`, title)
	p, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Play{}, false, nil
	}
	if err != nil {
		return Play{}, false, err
	}
	return p, true, nil
}

// Recent returns up to n plays, newest first.
func (s *Store) Recent(n int) ([]Play, error) {
	rows, err := s.db.Query(`select `+columns+` from plays order by played_at desc, id desc limit ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var plays []Play
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (Play, error) {
	var p Play
	var songID, artist, result, mode sql.NullString
	var ms int64
	err := r.Scan(&p.Session, &songID, &p.Title, &artist, &p.Score, &p.MaxScore, &p.Percent, &result, &mode, &ms)
	if err != nil {
		return Play{}, err
	}
	p.SongID = songID.String
	p.Artist = artist.String
	p.Result = result.String
	p.Mode = mode.String
	p.PlayedAt = time.UnixMilli(ms)
	return p, nil
}
