package archivist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchivedTracker records which session IDs have already been processed by
// an archive run, persisted as a small JSON set file (atomic
// write-temp-then-rename, matching the workspace's other checkpoint
// files). The ATIF index schema is fixed by the trajectory format itself,
// so "marking a trajectory archived" lives here rather than on the index.
type ArchivedTracker struct {
	path string
	seen map[string]bool
}

func NewArchivedTracker(path string) (*ArchivedTracker, error) {
	t := &ArchivedTracker{path: path, seen: map[string]bool{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archivist: reading archived tracker: %w", err)
	}
	if err := json.Unmarshal(data, &t.seen); err != nil {
		return nil, fmt.Errorf("archivist: decoding archived tracker: %w", err)
	}
	return t, nil
}

func (t *ArchivedTracker) IsArchived(sessionID string) bool {
	return t.seen[sessionID]
}

func (t *ArchivedTracker) MarkArchived(sessionID string) error {
	t.seen[sessionID] = true
	return t.save()
}

func (t *ArchivedTracker) save() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(t.seen)
	if err != nil {
		return err
	}
	tmp := t.path + fmt.Sprintf(".tmp.%d", time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, t.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
