package skill

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openagents/harness/internal/db"
)

// Source tags where a Skill came from.
type Source string

const (
	SourceBootstrap Source = "bootstrap"
	SourceLearned   Source = "learned"
	SourceUser      Source = "user"
)

// Status is a Skill's lifecycle stage.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusRetired Status = "retired"
)

// Skill is a reusable procedure promoted from successful patterns, or
// authored directly, and tracked for usage and effectiveness over time.
type Skill struct {
	ID          string
	Name        string
	Description string
	Content     string
	Category    string
	Source      Source
	UsageCount  int
	SuccessRate float64
	Status      Status
	Tags        []string
	LearnedFrom []string // episode IDs
	CreatedAt   time.Time
}

// Store persists Skills in openagents.db.
type Store struct {
	conn *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) Create(ctx context.Context, sk *Skill) error {
	tags, err := json.Marshal(sk.Tags)
	if err != nil {
		return &db.Error{Reason: db.ReasonInsert, Op: "create_skill", Cause: err}
	}
	learnedFrom, err := json.Marshal(sk.LearnedFrom)
	if err != nil {
		return &db.Error{Reason: db.ReasonInsert, Op: "create_skill", Cause: err}
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO skills (id, name, description, content, category, source, usage_count, success_rate, status, tags, learned_from, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sk.ID, sk.Name, sk.Description, sk.Content, sk.Category, sk.Source,
		sk.UsageCount, sk.SuccessRate, sk.Status, string(tags), string(learnedFrom),
		sk.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return &db.Error{Reason: db.ReasonInsert, Op: "create_skill", Cause: err}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Skill, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, name, description, content, category, source, usage_count, success_rate, status, tags, learned_from, created_at
		FROM skills WHERE id = ?`, id)
	sk, err := scanSkill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &db.Error{Reason: db.ReasonNotFound, Op: "get_skill", Cause: err}
	}
	if err != nil {
		return nil, &db.Error{Reason: db.ReasonQuery, Op: "get_skill", Cause: err}
	}
	return sk, nil
}

// ListActive returns all skills with status = active, ordered by usage_count
// descending so the most-relied-upon skills surface first.
func (s *Store) ListActive(ctx context.Context) ([]*Skill, error) {
	return s.listWhere(ctx, "status = ?", StatusActive)
}

func (s *Store) ListByCategory(ctx context.Context, category string) ([]*Skill, error) {
	return s.listWhere(ctx, "category = ?", category)
}

func (s *Store) listWhere(ctx context.Context, clause string, arg any) ([]*Skill, error) {
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, description, content, category, source, usage_count, success_rate, status, tags, learned_from, created_at
		FROM skills WHERE %s ORDER BY usage_count DESC`, clause), arg)
	if err != nil {
		return nil, &db.Error{Reason: db.ReasonQuery, Op: "list_skills", Cause: err}
	}
	defer rows.Close()

	var out []*Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, &db.Error{Reason: db.ReasonQuery, Op: "list_skills", Cause: err}
		}
		out = append(out, sk)
	}
	return out, rows.Err()
}

// RecordUsage increments usage_count and recomputes success_rate as a
// running mean over all recorded uses.
func (s *Store) RecordUsage(ctx context.Context, id string, succeeded bool) error {
	sk, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	total := float64(sk.UsageCount)
	newRate := (sk.SuccessRate*total + boolToFloat(succeeded)) / (total + 1)
	_, err = s.conn.ExecContext(ctx, `UPDATE skills SET usage_count = usage_count + 1, success_rate = ? WHERE id = ?`, newRate, id)
	if err != nil {
		return &db.Error{Reason: db.ReasonQuery, Op: "record_usage", Cause: err}
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE skills SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return &db.Error{Reason: db.ReasonQuery, Op: "set_status", Cause: err}
	}
	return nil
}

// PruneStaleLearned deletes learned skills older than maxAge with fewer
// than minUsage recorded uses.
func (s *Store) PruneStaleLearned(ctx context.Context, maxAge time.Duration, minUsage int) (int, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	res, err := s.conn.ExecContext(ctx, `
		DELETE FROM skills WHERE source = ? AND created_at < ? AND usage_count < ?`,
		SourceLearned, cutoff, minUsage)
	if err != nil {
		return 0, &db.Error{Reason: db.ReasonQuery, Op: "prune_stale_learned", Cause: err}
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSkill(row rowScanner) (*Skill, error) {
	var sk Skill
	var source, status, tags, learnedFrom, createdAt string
	if err := row.Scan(&sk.ID, &sk.Name, &sk.Description, &sk.Content, &sk.Category,
		&source, &sk.UsageCount, &sk.SuccessRate, &status, &tags, &learnedFrom, &createdAt); err != nil {
		return nil, err
	}
	sk.Source = Source(source)
	sk.Status = Status(status)
	if err := json.Unmarshal([]byte(tags), &sk.Tags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(learnedFrom), &sk.LearnedFrom); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	sk.CreatedAt = parsed
	return &sk, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
