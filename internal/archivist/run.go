package archivist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openagents/harness/internal/atif"
	"github.com/openagents/harness/internal/memory"
	"github.com/openagents/harness/internal/pubsub"
	"github.com/openagents/harness/internal/skill"
)

// Archivist mines patterns out of unarchived trajectories and promotes the
// confident ones into lasting skills and episodic memories.
type Archivist struct {
	Trajectories *atif.Store
	Archived     *ArchivedTracker
	Skills       *skill.Store
	Memory       *memory.Store
	Events       *pubsub.Broker[Payload]
	Config       Config
}

// Run performs a full archive pass: the given Extractor (typically a
// ChatExtractor) mines patterns from every unarchived trajectory, confident
// patterns are promoted to skills, and trajectories are marked archived.
func (a *Archivist) Run(ctx context.Context, extractor Extractor) (Counts, error) {
	return a.runWith(ctx, extractor)
}

// RunQuick performs a heuristic-only pass: no model call, used when a full
// archive run is too costly to run on every training iteration.
func (a *Archivist) RunQuick(ctx context.Context) (Counts, error) {
	return a.runWith(ctx, &HeuristicExtractor{Trajectories: a.Trajectories})
}

func (a *Archivist) runWith(ctx context.Context, extractor Extractor) (Counts, error) {
	start := time.Now()
	a.publish(EventRunStart, Payload{})

	cfg := a.Config
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultConfig().MinConfidence
	}
	if cfg.MinOccurrences == 0 {
		cfg.MinOccurrences = DefaultConfig().MinOccurrences
	}

	var counts Counts

	sessionIDs, err := a.Trajectories.List()
	if err != nil {
		return counts, fmt.Errorf("archivist: listing trajectories: %w", err)
	}

	for _, sessionID := range sessionIDs {
		select {
		case <-ctx.Done():
			return counts, ctx.Err()
		default:
		}

		if a.Archived.IsArchived(sessionID) {
			continue
		}

		patterns, err := extractor.Extract(sessionID)
		if err != nil {
			return counts, fmt.Errorf("archivist: extracting from %s: %w", sessionID, err)
		}
		counts.TrajectoriesProcessed++
		counts.PatternsFound += len(patterns)

		for _, p := range patterns {
			a.publish(EventPatternFound, Payload{PatternFound: &PatternFoundPayload{
				Name: p.Name, Type: p.Type, Confidence: p.Confidence,
			}})

			if p.Confidence < cfg.MinConfidence || p.Occurrences < cfg.MinOccurrences {
				continue
			}
			if p.Type != PatternSkill && p.Type != PatternOptimization {
				continue
			}

			sk := &skill.Skill{
				ID:          uuid.NewString(),
				Name:        p.Name,
				Description: p.Description,
				Content:     p.Content,
				Category:    p.Category,
				Source:      skill.SourceLearned,
				Status:      skill.StatusActive,
				LearnedFrom: p.SourceEpisodeIDs,
				CreatedAt:   time.Now().UTC(),
			}
			if err := a.Skills.Create(ctx, sk); err != nil {
				return counts, fmt.Errorf("archivist: promoting skill %s: %w", p.Name, err)
			}
			counts.SkillsPromoted++

			for _, episodeID := range p.SourceEpisodeIDs {
				if _, err := a.Memory.Record(ctx, episodeID, sk.ID, p.Description); err != nil {
					return counts, fmt.Errorf("archivist: recording memory for %s: %w", p.Name, err)
				}
			}

			a.publish(EventSkillPromoted, Payload{SkillPromoted: &SkillPromotedPayload{
				SkillID: sk.ID, Name: sk.Name, Category: sk.Category,
			}})
		}

		if err := a.Archived.MarkArchived(sessionID); err != nil {
			return counts, fmt.Errorf("archivist: marking %s archived: %w", sessionID, err)
		}
	}

	if cfg.MaxTrajectoryAgeDays > 0 {
		pruned, err := a.pruneOldTrajectories(cfg.MaxTrajectoryAgeDays)
		if err != nil {
			return counts, err
		}
		counts.TrajectoriesPruned = pruned
	}

	if cfg.PruneLearnedSkills {
		n, err := a.Skills.PruneStaleLearned(ctx, 7*24*time.Hour, 2)
		if err != nil {
			return counts, fmt.Errorf("archivist: pruning stale skills: %w", err)
		}
		counts.SkillsPruned = n
	}

	a.publish(EventRunComplete, Payload{RunComplete: &RunCompletePayload{
		Counts:     counts,
		DurationMs: time.Since(start).Milliseconds(),
	}})

	return counts, nil
}

// pruneOldTrajectories deletes archived trajectories older than maxAgeDays,
// judged by the session ID's embedded creation timestamp.
func (a *Archivist) pruneOldTrajectories(maxAgeDays int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	sessionIDs, err := a.Trajectories.List()
	if err != nil {
		return 0, fmt.Errorf("archivist: listing trajectories for pruning: %w", err)
	}

	pruned := 0
	for _, sessionID := range sessionIDs {
		if !a.Archived.IsArchived(sessionID) {
			continue
		}
		createdAt, ok := sessionCreatedAt(sessionID)
		if !ok || createdAt.After(cutoff) {
			continue
		}
		if err := a.Trajectories.Delete(sessionID); err != nil {
			return pruned, fmt.Errorf("archivist: pruning %s: %w", sessionID, err)
		}
		pruned++
	}
	return pruned, nil
}

func (a *Archivist) publish(t pubsub.EventType, p Payload) {
	if a.Events != nil {
		a.Events.Publish(t, p)
	}
}

// sessionCreatedAt parses the timestamp embedded in a
// "session-YYYY-MM-DDTHH-MM-SS-<rand>" session ID.
func sessionCreatedAt(sessionID string) (time.Time, bool) {
	const prefix = "session-"
	if !strings.HasPrefix(sessionID, prefix) {
		return time.Time{}, false
	}
	rest := sessionID[len(prefix):]
	if len(rest) < 19 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02T15-04-05", rest[:19])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
