// Package state persists what gdoc last knew about each document, so the
// next run can tell what changed remotely in between.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout is the UTC layout of every timestamp gdoc stores
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime formats t in TimestampLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// DocState is the per-document snapshot. KnownResolvedIDs is always a
// subset of KnownCommentIDs.
type DocState struct {
	LastSeen         string   `json:"last_seen"`
	LastVersion      *int64   `json:"last_version"`
	LastReadVersion  *int64   `json:"last_read_version"`
	LastCommentCheck string   `json:"last_comment_check"`
	KnownCommentIDs  []string `json:"known_comment_ids"`
	KnownResolvedIDs []string `json:"known_resolved_ids"`
}

// Store keeps one JSON file per document id in a directory
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the state file of a document
func (s *Store) Path(docID string) string {
	return filepath.Join(s.Dir, docID+".json")
}

// Load returns the state of a document, or nil when there is none. A file
// that cannot be read or parsed counts as no state.
func (s *Store) Load(docID string) *DocState {
	data, err := os.ReadFile(s.Path(docID))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("state: reading %s: %v", docID, err)
		}
		return nil
	}

	var st DocState
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("state: ignoring unreadable state for %s: %v", docID, err)
		return nil
	}
	return &st
}

// Save writes the state of a document. The file is replaced atomically:
// the data goes to a temporary file in the same directory which is then
// renamed over the target.
func (s *Store) Save(docID string, st *DocState) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, docID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(docID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
