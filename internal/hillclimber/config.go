package hillclimber

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ConfigInput is the per-task tunable state the climber iterates on.
type ConfigInput struct {
	TaskID            string
	Hint              string
	UseSkills         bool
	MaxTurnsOverride  *int
}

// ConfigHash deterministically fingerprints the exact tuple of enumerated
// fields, so that identical (task_id, hint, use_skills, max_turns_override)
// tuples always share a stable hash (applying {type: keep} returns an
// equivalent ConfigInput with the same hash).
func ConfigHash(c ConfigInput) string {
	turns := "nil"
	if c.MaxTurnsOverride != nil {
		turns = fmt.Sprintf("%d", *c.MaxTurnsOverride)
	}
	raw := fmt.Sprintf("task=%s|hint=%s|use_skills=%t|max_turns=%s", c.TaskID, c.Hint, c.UseSkills, turns)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// ChangeType enumerates the kinds of ConfigChange a reasoner (or the
// heuristic fallback) can propose.
type ChangeType string

const (
	ChangeKeep         ChangeType = "keep"
	ChangeUpdateHint   ChangeType = "update_hint"
	ChangeToggleSkills ChangeType = "toggle_skills"
	ChangeAdjustTurns  ChangeType = "adjust_turns"
)

// ConfigChange is the climber's proposal for the next iteration's config.
type ConfigChange struct {
	Type             ChangeType
	Reasoning        string
	NewHint          string
	UseSkills        *bool
	MaxTurnsOverride *int
}

// Apply returns the ConfigInput resulting from applying change to current.
func Apply(current ConfigInput, change ConfigChange) ConfigInput {
	next := current
	switch change.Type {
	case ChangeUpdateHint:
		next.Hint = change.NewHint
	case ChangeToggleSkills:
		if change.UseSkills != nil {
			next.UseSkills = *change.UseSkills
		} else {
			next.UseSkills = !next.UseSkills
		}
	case ChangeAdjustTurns:
		next.MaxTurnsOverride = change.MaxTurnsOverride
	case ChangeKeep:
		// no-op
	}
	return next
}
