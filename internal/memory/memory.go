// Package memory stores episodic memories: short summaries of what a skill
// or pattern helped achieve in a given episode, linked back to the episode
// and (optionally) the skill it reinforced.
package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/openagents/harness/internal/db"
)

// Entry is one episodic memory record.
type Entry struct {
	ID        string
	EpisodeID string
	SkillID   string // optional
	Summary   string
	CreatedAt time.Time
}

// Store persists episodic memory entries.
type Store struct {
	conn *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// Record writes a new episodic memory entry, generating its ID.
func (s *Store) Record(ctx context.Context, episodeID, skillID, summary string) (*Entry, error) {
	e := &Entry{
		ID:        uuid.NewString(),
		EpisodeID: episodeID,
		SkillID:   skillID,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}

	var skillIDValue any
	if skillID != "" {
		skillIDValue = skillID
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO episodic_memory (id, episode_id, skill_id, summary, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.EpisodeID, skillIDValue, e.Summary, e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, &db.Error{Reason: db.ReasonInsert, Op: "record_memory", Cause: err}
	}
	return e, nil
}

// ForEpisode lists every memory entry recorded for an episode.
func (s *Store) ForEpisode(ctx context.Context, episodeID string) ([]*Entry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, episode_id, COALESCE(skill_id, ''), summary, created_at
		FROM episodic_memory WHERE episode_id = ? ORDER BY created_at ASC`, episodeID)
	if err != nil {
		return nil, &db.Error{Reason: db.ReasonQuery, Op: "list_memory", Cause: err}
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.EpisodeID, &e.SkillID, &e.Summary, &createdAt); err != nil {
			return nil, &db.Error{Reason: db.ReasonQuery, Op: "list_memory", Cause: err}
		}
		parsed, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, &db.Error{Reason: db.ReasonQuery, Op: "list_memory", Cause: err}
		}
		e.CreatedAt = parsed
		out = append(out, &e)
	}
	return out, rows.Err()
}
