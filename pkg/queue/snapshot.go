package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// SnapshotVersion is the current version of the snapshot file format.
const SnapshotVersion = 1

// snapshotFile is the on-disk representation of a queue snapshot.
type snapshotFile struct {
	// Version is the snapshot file format version.
	Version int `json:"version"`

	// SavedAt is when the snapshot was written.
	SavedAt time.Time `json:"saved_at"`

	// Messages are the queued messages, oldest first.
	Messages []Message `json:"messages,omitempty"`
}

// Store manages persistence of the queue to a JSON snapshot file, so queued
// faculty responses survive a unit restart.
type Store struct {
	path string
}

// NewStore creates a snapshot store at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save persists the queue contents to disk.
func (s *Store) Save(q *Queue) error {
	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	snap := snapshotFile{
		Version:  SnapshotVersion,
		SavedAt:  time.Now(),
		Messages: q.Snapshot(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load restores queued messages into q, oldest first.
// Returns 0, nil if the snapshot file doesn't exist.
// If the snapshot holds more messages than q's capacity, only the newest
// ones survive, matching the queue's eviction policy.
func (s *Store) Load(q *Queue) (int, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, err
	}

	for _, msg := range snap.Messages {
		q.Push(msg)
	}
	return len(snap.Messages), nil
}

// Clear removes the snapshot file.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
