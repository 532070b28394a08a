// Package decomposer breaks a complex task into an ordered set of
// dependent subtasks, tracking which one is currently active and when each
// is complete.
package decomposer

// Subtask is one step of a task decomposition.
type Subtask struct {
	ID                string
	Name              string
	Goal              string
	Checkpoint        string
	ExpectedArtifacts []string
	DependsOn         []string
	Hints             []string
	MaxTurns          int
	// Terminal marks a subtask whose completion requires progress == 1
	// rather than the relaxed >= 0.5 threshold used for intermediate
	// "test-and-iterate" subtasks.
	Terminal bool
}

// Decomposition is a full task breakdown.
type Decomposition struct {
	TaskID          string
	Subtasks        []Subtask
	GlobalHints     []string
	FilesToRead     []string
	RequiredOutputs []string
}

// Table maps task_id to its static decomposition. Populate from workspace
// configuration; entries here are the harness's built-in defaults.
var Table = map[string]Decomposition{}

// fallbackDecomposition is the three-subtask understand -> implement ->
// verify breakdown used for any task_id absent from Table.
func fallbackDecomposition(taskID string) Decomposition {
	return Decomposition{
		TaskID: taskID,
		Subtasks: []Subtask{
			{
				ID:         "understand",
				Name:       "Understand the task",
				Goal:       "Read the task description and environment to form a plan.",
				Checkpoint: "A plan has been written down.",
				MaxTurns:   5,
			},
			{
				ID:         "implement",
				Name:       "Implement a solution",
				Goal:       "Write the solution artifacts.",
				Checkpoint: "Expected artifacts exist on disk.",
				DependsOn:  []string{"understand"},
				MaxTurns:   20,
			},
			{
				ID:         "verify",
				Name:       "Verify the solution",
				Goal:       "Test-and-iterate until the solution passes its checks.",
				Checkpoint: "Solution verified against expectations.",
				DependsOn:  []string{"implement"},
				MaxTurns:   10,
				Terminal:   true,
			},
		},
	}
}

// Decompose returns the decomposition for taskID, falling back to the
// three-subtask default for unknown tasks.
func Decompose(taskID string) Decomposition {
	if d, ok := Table[taskID]; ok {
		return d
	}
	return fallbackDecomposition(taskID)
}

// Progress maps subtask ID to a completion fraction in [0, 1].
type Progress map[string]float64

// GetCurrentSubtask returns the first incomplete subtask whose dependencies
// are all satisfied, in declaration order. Returns nil if every subtask is
// complete.
func GetCurrentSubtask(d Decomposition, progress Progress, artifacts []string) *Subtask {
	complete := make(map[string]bool, len(d.Subtasks))
	for _, st := range d.Subtasks {
		complete[st.ID] = IsSubtaskComplete(st, progress, artifacts)
	}

	for i := range d.Subtasks {
		st := &d.Subtasks[i]
		if complete[st.ID] {
			continue
		}
		if dependenciesSatisfied(st.DependsOn, complete) {
			return st
		}
	}
	return nil
}

func dependenciesSatisfied(deps []string, complete map[string]bool) bool {
	for _, dep := range deps {
		if !complete[dep] {
			return false
		}
	}
	return true
}

// IsSubtaskComplete requires all expected artifacts present (matched by
// path suffix) and, for terminal subtasks, progress == 1; intermediate
// "test-and-iterate" subtasks only require progress >= 0.5.
func IsSubtaskComplete(st Subtask, progress Progress, artifacts []string) bool {
	for _, expected := range st.ExpectedArtifacts {
		if !hasSuffixMatch(artifacts, expected) {
			return false
		}
	}

	p := progress[st.ID]
	if st.Terminal {
		return p >= 1
	}
	return p >= 0.5
}

func hasSuffixMatch(haystack []string, suffix string) bool {
	for _, h := range haystack {
		if len(h) >= len(suffix) && h[len(h)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}
