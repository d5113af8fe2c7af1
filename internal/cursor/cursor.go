// Package cursor persists scan progress so an interrupted sheet scan
// resumes where it left off.
package cursor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Cursor records the first row of a sheet that has not been fully
// processed yet. One cursor is active at a time.
type Cursor struct {
	Sheet     string    `json:"sheet"`
	Row       int       `json:"row"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a single-record file-backed cursor store.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted cursor. A missing file means no scan is in
// progress and returns (nil, nil).
func (s *Store) Load() (*Cursor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cursor file: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cursor file: %w", err)
	}
	return &c, nil
}

// Save overwrites the cursor with the given sheet and row offset.
func (s *Store) Save(sheet string, row int) error {
	c := Cursor{Sheet: sheet, Row: row, UpdatedAt: time.Now().UTC()}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cursor: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write cursor file: %w", err)
	}
	return nil
}

// Clear removes the cursor, signalling that no resume is needed.
// Clearing an absent cursor is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cursor file: %w", err)
	}
	return nil
}
