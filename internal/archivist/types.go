// Package archivist mines reusable patterns and episodic memories out of
// past trajectories, promoting high-confidence patterns to concrete skills
// and pruning stale trajectories/skills.
package archivist

import (
	"github.com/openagents/harness/internal/pubsub"
)

// PatternType classifies what an extracted pattern can become.
type PatternType string

const (
	PatternSkill       PatternType = "skill"
	PatternOptimization PatternType = "optimization"
	PatternPitfall     PatternType = "pitfall"
)

// Pattern is a reusable behavior mined from one or more trajectories.
type Pattern struct {
	Name        string
	Type        PatternType
	Description string
	Content     string
	Category    string
	Confidence  float64
	Occurrences int
	SourceEpisodeIDs []string
}

// Extractor mines Patterns out of a trajectory's session ID.
type Extractor interface {
	Extract(sessionID string) ([]Pattern, error)
}

// Config tunes a Run.
type Config struct {
	MinOccurrences       int
	MinConfidence        float64 // defaults to 0.6
	MaxTrajectoryAgeDays int     // 0 = never prune
	PruneLearnedSkills   bool
}

// DefaultConfig returns the harness's built-in defaults.
func DefaultConfig() Config {
	return Config{
		MinOccurrences: 2,
		MinConfidence:  0.6,
	}
}

// Counts summarizes one archive run for its completion event.
type Counts struct {
	TrajectoriesProcessed int
	PatternsFound         int
	SkillsPromoted        int
	TrajectoriesPruned    int
	SkillsPruned          int
}

// Event types published over the archivist's lifecycle broker.
const (
	EventRunStart      pubsub.EventType = "archivist_run_start"
	EventPatternFound  pubsub.EventType = "archivist_pattern_found"
	EventSkillPromoted pubsub.EventType = "archivist_skill_promoted"
	EventRunComplete   pubsub.EventType = "archivist_run_complete"
)

// Payload is the union of everything an archive run can publish.
type Payload struct {
	PatternFound  *PatternFoundPayload
	SkillPromoted *SkillPromotedPayload
	RunComplete   *RunCompletePayload
}

type PatternFoundPayload struct {
	Name       string
	Type       PatternType
	Confidence float64
}

type SkillPromotedPayload struct {
	SkillID  string
	Name     string
	Category string
}

type RunCompletePayload struct {
	Counts     Counts
	DurationMs int64
}
