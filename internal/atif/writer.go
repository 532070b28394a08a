package atif

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	jsonlSuffix = ".atif.jsonl"
	indexSuffix = ".index.json"
)

// StreamWriter appends Steps to a single session's JSONL log and keeps a
// small atomically-updated index alongside it. A StreamWriter must only
// ever be used by one goroutine's logical session at a time; WriteStep
// calls on the same writer are serialized internally so the JSONL stays in
// step-ID order.
type StreamWriter struct {
	mu sync.Mutex

	baseDir   string
	sessionID string
	dateDir   string
	jsonlPath string
	indexPath string

	file    *os.File
	header  Header
	steps   int
	lastStepID int
	closed  bool
}

// NewStreamWriter prepares (but does not yet create on disk) a writer for
// the given session under baseDir.
func NewStreamWriter(baseDir string, header Header) *StreamWriter {
	now := time.Now()
	dateDir := DateFolder(header.SessionID, now)
	dir := filepath.Join(baseDir, dateDir)
	return &StreamWriter{
		baseDir:   baseDir,
		sessionID: header.SessionID,
		dateDir:   dateDir,
		jsonlPath: filepath.Join(dir, header.SessionID+jsonlSuffix),
		indexPath: filepath.Join(dir, header.SessionID+indexSuffix),
		header:    header,
	}
}

// Initialize creates the date directory, writes the header as the first
// JSONL line, and writes the initial in_progress index. Calling Initialize
// on an already-closed writer fails.
func (w *StreamWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return newStoreErr(ReasonWriteError, fmt.Errorf("writer for %s already closed", w.sessionID))
	}

	dir := filepath.Dir(w.jsonlPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newStoreErr(ReasonWriteError, fmt.Errorf("create date directory: %w", err))
	}

	f, err := os.OpenFile(w.jsonlPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return newStoreErr(ReasonWriteError, fmt.Errorf("create jsonl file: %w", err))
	}
	w.file = f

	if err := w.appendLine(w.header); err != nil {
		return err
	}

	return w.writeIndex(Index{
		SessionID: w.header.SessionID,
		Agent:     w.header.Agent,
		Checkpoint: Checkpoint{
			StepID:             0,
			Timestamp:          time.Now().UTC().Format(time.RFC3339),
			CompletedStepCount: 0,
		},
		Status:          StatusInProgress,
		ParentSessionID: w.header.ParentSessionID,
	})
}

// WriteStep appends a step to the JSONL log and rewrites the index with the
// new checkpoint, whose step_id is the highest step ID written so far.
// Concurrent calls on the same writer are serialized.
func (w *StreamWriter) WriteStep(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return newStoreErr(ReasonWriteError, fmt.Errorf("writer for %s is closed", w.sessionID))
	}

	if err := w.appendLine(step); err != nil {
		return err
	}
	w.steps++
	if step.StepID > w.lastStepID {
		w.lastStepID = step.StepID
	}

	return w.writeIndex(Index{
		SessionID: w.header.SessionID,
		Agent:     w.header.Agent,
		Checkpoint: Checkpoint{
			StepID:             w.lastStepID,
			Timestamp:          time.Now().UTC().Format(time.RFC3339),
			CompletedStepCount: w.steps,
		},
		Status:          StatusInProgress,
		ParentSessionID: w.header.ParentSessionID,
	})
}

// Close writes a final index with the supplied final metrics and terminal
// status, then prevents further writes.
func (w *StreamWriter) Close(finalMetrics *FinalMetrics, status Status) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	err := w.writeIndex(Index{
		SessionID: w.header.SessionID,
		Agent:     w.header.Agent,
		Checkpoint: Checkpoint{
			StepID:             0,
			Timestamp:          time.Now().UTC().Format(time.RFC3339),
			CompletedStepCount: w.steps,
		},
		Status:          status,
		FinalMetrics:    finalMetrics,
		ParentSessionID: w.header.ParentSessionID,
	})

	w.closed = true
	if w.file != nil {
		_ = w.file.Close()
	}
	return err
}

// GetPaths returns the JSONL and index file paths for this session.
func (w *StreamWriter) GetPaths() (jsonlPath, indexPath string) {
	return w.jsonlPath, w.indexPath
}

func (w *StreamWriter) appendLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return newStoreErr(ReasonWriteError, fmt.Errorf("marshal line: %w", err))
	}
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return newStoreErr(ReasonWriteError, fmt.Errorf("append line: %w", err))
	}
	return w.file.Sync()
}

// writeIndex writes the index via write-to-unique-temp-then-rename. If the
// date directory has disappeared, it is recreated and the write retried
// once.
func (w *StreamWriter) writeIndex(idx Index) error {
	if err := w.writeIndexOnce(idx); err != nil {
		if !os.IsNotExist(err) {
			return newStoreErr(ReasonWriteError, err)
		}
		if mkErr := os.MkdirAll(filepath.Dir(w.indexPath), 0o755); mkErr != nil {
			return newStoreErr(ReasonWriteError, fmt.Errorf("recreate date directory: %w", mkErr))
		}
		if err := w.writeIndexOnce(idx); err != nil {
			return newStoreErr(ReasonWriteError, fmt.Errorf("retry after recreating directory: %w", err))
		}
	}
	return nil
}

func (w *StreamWriter) writeIndexOnce(idx Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	dir := filepath.Dir(w.indexPath)
	tmpName := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d.%s", filepath.Base(w.indexPath), time.Now().UnixNano(), uniqueSuffix()))

	if err := os.WriteFile(tmpName, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, w.indexPath); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// uniqueSuffix returns a short random token so concurrent index-write
// attempts never collide on the same temp file name.
func uniqueSuffix() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf))
}
