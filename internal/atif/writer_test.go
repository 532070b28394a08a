package atif

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testHeader(sessionID string) Header {
	return Header{
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		Agent:         Agent{Name: "openagents-trainer", Version: "test"},
		CreatedAt:     "2026-07-30T00-00-00",
	}
}

func TestStreamWriter_InitializeAndWriteStep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sessionID := "session-2026-07-30T12-00-00-abcdef"
	w := NewStreamWriter(dir, testHeader(sessionID))
	require.NoError(t, w.Initialize())

	require.NoError(t, w.WriteStep(Step{StepID: 1, Timestamp: "2026-07-30T12-00-01", Source: SourceUser, Message: "hi"}))

	jsonlPath, indexPath := w.GetPaths()
	header, steps, err := ReadJSONL(jsonlPath)
	require.NoError(t, err)
	require.Equal(t, sessionID, header.SessionID)
	require.Len(t, steps, 1)

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	var idx Index
	require.NoError(t, json.Unmarshal(data, &idx))
	require.Equal(t, 1, idx.Checkpoint.CompletedStepCount)
	require.Equal(t, StatusInProgress, idx.Status)

	require.NoError(t, w.Close(&FinalMetrics{TotalSteps: 1}, StatusComplete))

	data, err = os.ReadFile(indexPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &idx))
	require.Equal(t, StatusComplete, idx.Status)
	require.NotNil(t, idx.FinalMetrics)
	require.Equal(t, 1, idx.FinalMetrics.TotalSteps)

	require.Error(t, w.WriteStep(Step{StepID: 2, Timestamp: "2026-07-30T12-00-02", Source: SourceUser, Message: "after close"}))
}

// Deleting the date directory mid-run must not lose the next write;
// updateIndex recreates the directory and retries.
func TestStreamWriter_RecoversDeletedDateDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sessionID := "session-2026-07-30T12-00-00-abcdef"
	w := NewStreamWriter(dir, testHeader(sessionID))
	require.NoError(t, w.Initialize())
	require.NoError(t, w.WriteStep(Step{StepID: 1, Timestamp: "2026-07-30T12-00-01", Source: SourceUser, Message: "one"}))

	dateDir := filepath.Join(dir, w.dateDir)
	require.NoError(t, os.RemoveAll(dateDir))

	require.NoError(t, w.WriteStep(Step{StepID: 2, Timestamp: "2026-07-30T12-00-02", Source: SourceAgent, Message: "two"}))

	_, indexPath := w.GetPaths()
	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	var idx Index
	require.NoError(t, json.Unmarshal(data, &idx))
	require.Equal(t, 2, idx.Checkpoint.CompletedStepCount)
	require.Equal(t, 2, idx.Checkpoint.StepID)
	require.Equal(t, StatusInProgress, idx.Status)
}

// Parallel step writes on one writer must not corrupt the JSONL or leave
// .tmp residue, and the index must reflect the true final step count.
func TestStreamWriter_SerializesParallelWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sessionID := "session-2026-07-30T12-00-00-ffffff"
	w := NewStreamWriter(dir, testHeader(sessionID))
	require.NoError(t, w.Initialize())

	var wg sync.WaitGroup
	for _, id := range []int{1, 2, 3} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = w.WriteStep(Step{
				StepID:    id,
				Timestamp: "2026-07-30T12-00-0" + strconv.Itoa(id),
				Source:    SourceUser,
				Message:   "step",
			})
		}(id)
	}
	wg.Wait()

	jsonlPath, indexPath := w.GetPaths()
	header, steps, err := ReadJSONL(jsonlPath)
	require.NoError(t, err)
	require.Equal(t, sessionID, header.SessionID)
	require.Len(t, steps, 3)

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	var idx Index
	require.NoError(t, json.Unmarshal(data, &idx))
	require.Equal(t, 3, idx.Checkpoint.CompletedStepCount)
	require.Equal(t, 3, idx.Checkpoint.StepID)

	entries, err := os.ReadDir(filepath.Dir(jsonlPath))
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.Contains(e.Name(), ".tmp"), "leftover temp file: %s", e.Name())
	}
}

func TestStreamWriter_TwoSessionsIndependentFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w1 := NewStreamWriter(dir, testHeader("session-2026-07-30T12-00-00-aaaaaa"))
	w2 := NewStreamWriter(dir, testHeader("session-2026-07-30T12-00-01-bbbbbb"))
	require.NoError(t, w1.Initialize())
	require.NoError(t, w2.Initialize())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = w1.WriteStep(Step{StepID: 1, Timestamp: "2026-07-30T12-00-01", Source: SourceUser, Message: "a"})
	}()
	go func() {
		defer wg.Done()
		_ = w2.WriteStep(Step{StepID: 1, Timestamp: "2026-07-30T12-00-02", Source: SourceUser, Message: "b"})
	}()
	wg.Wait()

	jsonl1, _ := w1.GetPaths()
	jsonl2, _ := w2.GetPaths()
	_, steps1, err := ReadJSONL(jsonl1)
	require.NoError(t, err)
	require.Len(t, steps1, 1)
	_, steps2, err := ReadJSONL(jsonl2)
	require.NoError(t, err)
	require.Len(t, steps2, 1)
}

func TestReadJSONL_ToleratesTrailingPartialLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "partial.atif.jsonl")
	header := testHeader("session-2026-07-30T12-00-00-crashed")
	headerLine, _ := json.Marshal(header)
	step1, _ := json.Marshal(Step{StepID: 1, Timestamp: "2026-07-30T12-00-01", Source: SourceUser, Message: "ok"})

	content := string(headerLine) + "\n" + string(step1) + "\n" + `{"step_id": 2, "timest`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	gotHeader, steps, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Equal(t, header.SessionID, gotHeader.SessionID)
	require.Len(t, steps, 1)
}
