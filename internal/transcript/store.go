// Package transcript persists the local copy of a lesson conversation as an
// ordered JSON document of turn records, one file per lesson. The stored
// shape is the same record format the history replayer consumes, so the next
// session can rehydrate the transcript before going live.
package transcript

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ppanchal/guidee/internal/history"
	"github.com/ppanchal/guidee/internal/render"
)

// Store reads and appends the persisted transcript for one lesson.
type Store struct {
	path string
}

// NewStore places the transcript file for lessonID under dir.
func NewStore(dir, lessonID string) *Store {
	return &Store{path: filepath.Join(dir, "lesson-"+lessonID+".json")}
}

// Path reports where the transcript lives on disk.
func (s *Store) Path() string { return s.path }

// Load returns all persisted records, oldest first. A missing file is an
// empty transcript, not an error.
func (s *Store) Load() ([]history.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return history.Parse(data)
}

// Append adds records to the end of the transcript, creating the file and
// its directory if necessary.
func (s *Store) Append(records ...history.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	existing, err := s.Load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
	}
	existing = append(existing, records...)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// TrimLastTurn removes the most recent exchange: every trailing record
// back to and including the last student entry. Called after the server
// confirms a delete so the local copy matches what it will replay.
func (s *Store) TrimLastTurn() error {
	records, err := s.Load()
	if err != nil {
		return err
	}
	cut := -1
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Sender == string(render.SenderStudent) {
			cut = i
			break
		}
	}
	if cut < 0 {
		return s.Reset()
	}
	data, err := json.MarshalIndent(records[:cut], "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Reset discards the persisted transcript. Called after the server confirms
// a conversation reset; a missing file is fine.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// FromEntry converts a rendered transcript entry into its persisted record.
func FromEntry(entry render.Entry) history.Record {
	record := history.Record{Type: string(entry.ContentType)}
	switch entry.ContentType {
	case render.ContentText:
		record.Sender = string(entry.Sender)
		record.Content = entry.Text
	default:
		record.URL = entry.MediaURL
		record.Alt = entry.Caption
	}
	return record
}
