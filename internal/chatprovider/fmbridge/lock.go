// Package fmbridge drives the local Foundation-Model HTTP bridge: a
// process-wide singleton that must be auto-started, health-polled, and
// guarded by a file lock so concurrent processes converge on one instance.
package fmbridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StaleLockAge is how old a lock file must be before it's considered
// abandoned by a dead process.
const StaleLockAge = 60 * time.Second

// LockFile guards bridge startup with a timestamp + PID file.
type LockFile struct {
	path string
}

type lockPayload struct {
	PID       int   `json:"pid"`
	Timestamp int64 `json:"timestamp"`
}

// NewLockFile returns a lock guarding path, typically "<tmp>/fm-bridge.lock".
func NewLockFile(path string) *LockFile {
	return &LockFile{path: path}
}

// DefaultLockPath returns "<os.TempDir()>/fm-bridge.lock".
func DefaultLockPath() string {
	return filepath.Join(os.TempDir(), "fm-bridge.lock")
}

// Acquire attempts to create the lock file exclusively. If an existing lock
// is present but older than StaleLockAge, it is treated as abandoned and
// overwritten. Returns false (no error) when a live lock is already held by
// someone else.
func (l *LockFile) Acquire() (bool, error) {
	if existing, err := l.read(); err == nil {
		if time.Since(time.Unix(existing.Timestamp, 0)) < StaleLockAge {
			return false, nil
		}
		// Stale: fall through and overwrite.
	}

	payload := lockPayload{PID: os.Getpid(), Timestamp: time.Now().Unix()}
	data, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	tmp := l.path + fmt.Sprintf(".tmp.%d", time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return true, nil
}

// Release removes the lock file. Safe to call even if never acquired.
func (l *LockFile) Release() error {
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *LockFile) read() (lockPayload, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return lockPayload{}, err
	}
	var p lockPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return lockPayload{}, err
	}
	return p, nil
}
