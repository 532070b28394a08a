package atif

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const fullSuffix = ".atif.json"

// Store persists full trajectories (as validated, single JSON documents
// rather than the streamed JSONL form) and provides session-tree lookups
// across parent/child trajectories. Each trajectory is owned by its
// writer; Store itself is safe for many concurrent readers.
type Store struct {
	baseDir  string
	validate bool

	mu        sync.RWMutex
	pathCache map[string]string
}

// NewStore creates a trajectory store rooted at baseDir. When validate is
// true, Save rejects trajectories that fail Validate.
func NewStore(baseDir string, validate bool) *Store {
	return &Store{
		baseDir:   baseDir,
		validate:  validate,
		pathCache: make(map[string]string),
	}
}

// Save validates (if configured) and atomically writes a full trajectory.
func (s *Store) Save(t *Trajectory) error {
	if s.validate {
		if err := Validate(t); err != nil {
			return newStoreErr(ReasonValidationFailed, err)
		}
	}

	dir := filepath.Join(s.baseDir, DateFolder(t.SessionID, time.Now()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newStoreErr(ReasonWriteError, err)
	}
	path := filepath.Join(dir, t.SessionID+fullSuffix)

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return newStoreErr(ReasonWriteError, fmt.Errorf("marshal trajectory: %w", err))
	}

	tmp := path + fmt.Sprintf(".tmp.%d", time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return newStoreErr(ReasonWriteError, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return newStoreErr(ReasonWriteError, err)
	}

	s.mu.Lock()
	s.pathCache[t.SessionID] = path
	s.mu.Unlock()

	return nil
}

// Load reads a full trajectory by session ID.
func (s *Store) Load(sessionID string) (*Trajectory, error) {
	path, err := s.resolvePath(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newStoreErr(ReasonNotFound, err)
		}
		return nil, newStoreErr(ReasonWriteError, err)
	}

	var t Trajectory
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, newStoreErr(ReasonParseError, err)
	}
	return &t, nil
}

// Delete removes a trajectory from disk and from the path cache.
func (s *Store) Delete(sessionID string) error {
	path, err := s.resolvePath(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return newStoreErr(ReasonWriteError, err)
	}

	s.mu.Lock()
	delete(s.pathCache, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns every stored session ID, across all date folders.
func (s *Store) List() ([]string, error) {
	dates, err := s.dateFolders()
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, d := range dates {
		forDate, err := s.ListForDate(d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, forDate...)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListForDate returns session IDs stored under a single "<YYYYMMDD>" folder.
func (s *Store) ListForDate(date string) ([]string, error) {
	dir := filepath.Join(s.baseDir, date)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, newStoreErr(ReasonWriteError, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fullSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), fullSuffix))
	}
	return ids, nil
}

// Metadata extracts a lightweight summary of a stored trajectory: its
// parent (from the header), the set of child session IDs referenced from
// any step's subagent_trajectory_ref, and total cost.
func (s *Store) Metadata(sessionID string) (*Metadata, error) {
	t, err := s.Load(sessionID)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		SessionID:       t.SessionID,
		ParentSessionID: t.ParentSessionID,
		Agent:           t.Agent,
		TotalSteps:      len(t.Steps),
	}
	if t.FinalMetrics != nil {
		meta.TotalCostUSD = t.FinalMetrics.TotalCostUSD
	}

	seen := make(map[string]bool)
	for _, step := range t.Steps {
		if step.Observation == nil {
			continue
		}
		for _, res := range step.Observation.Results {
			for _, child := range res.SubagentTrajectoryRef {
				if !seen[child] {
					seen[child] = true
					meta.ChildSessionIDs = append(meta.ChildSessionIDs, child)
				}
			}
		}
	}

	return meta, nil
}

// FindChildren returns the session IDs of every stored trajectory whose
// header names parentSessionID as its parent.
func (s *Store) FindChildren(parentSessionID string) ([]string, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}

	var children []string
	for _, id := range ids {
		t, err := s.Load(id)
		if err != nil {
			continue
		}
		if t.ParentSessionID == parentSessionID {
			children = append(children, id)
		}
	}
	return children, nil
}

// FindByAgent returns the session IDs of trajectories produced by the named
// agent.
func (s *Store) FindByAgent(agentName string) ([]string, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}

	var found []string
	for _, id := range ids {
		t, err := s.Load(id)
		if err != nil {
			continue
		}
		if t.Agent.Name == agentName {
			found = append(found, id)
		}
	}
	return found, nil
}

// GetTree returns every session ID transitively reachable from sessionID via
// subagent_trajectory_ref, including sessionID itself. Traversal is
// breadth-first and cycle-safe: a session is never visited twice even if
// the ref graph loops (which would otherwise be a producer bug).
func (s *Store) GetTree(sessionID string) ([]string, error) {
	visited := map[string]bool{sessionID: true}
	queue := []string{sessionID}
	order := []string{sessionID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		meta, err := s.Metadata(cur)
		if err != nil {
			continue
		}
		for _, child := range meta.ChildSessionIDs {
			if visited[child] {
				continue
			}
			visited[child] = true
			order = append(order, child)
			queue = append(queue, child)
		}
	}

	return order, nil
}

// resolvePath finds the absolute path for a session ID: cache first, then
// the expected date folder (derived from the session ID), then a full scan
// of every date folder.
func (s *Store) resolvePath(sessionID string) (string, error) {
	s.mu.RLock()
	if p, ok := s.pathCache[sessionID]; ok {
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	expected := filepath.Join(s.baseDir, DateFolder(sessionID, time.Now()), sessionID+fullSuffix)
	if _, err := os.Stat(expected); err == nil {
		s.cachePath(sessionID, expected)
		return expected, nil
	}

	dates, err := s.dateFolders()
	if err != nil {
		return "", err
	}
	for _, d := range dates {
		candidate := filepath.Join(s.baseDir, d, sessionID+fullSuffix)
		if _, err := os.Stat(candidate); err == nil {
			s.cachePath(sessionID, candidate)
			return candidate, nil
		}
	}

	return "", newStoreErr(ReasonNotFound, fmt.Errorf("session %s not found under %s", sessionID, s.baseDir))
}

func (s *Store) cachePath(sessionID, path string) {
	s.mu.Lock()
	s.pathCache[sessionID] = path
	s.mu.Unlock()
}

func (s *Store) dateFolders() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, newStoreErr(ReasonWriteError, err)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Strings(dates)
	return dates, nil
}
