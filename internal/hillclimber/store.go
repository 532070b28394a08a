package hillclimber

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/openagents/harness/internal/db"
)

// Store persists per-task configs, run history, and best-hint tracking.
type Store struct {
	conn *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// LoadConfig returns the persisted config for taskID, or a fresh zero-value
// ConfigInput (UseSkills defaulting true) if none exists yet.
func (s *Store) LoadConfig(ctx context.Context, taskID string) (ConfigInput, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT hint, use_skills, max_turns_override FROM hillclimber_configs WHERE task_id = ?`, taskID)

	var hint string
	var useSkills int
	var maxTurns sql.NullInt64
	err := row.Scan(&hint, &useSkills, &maxTurns)
	if err == sql.ErrNoRows {
		return ConfigInput{TaskID: taskID, UseSkills: true}, nil
	}
	if err != nil {
		return ConfigInput{}, &db.Error{Reason: db.ReasonQuery, Op: "load_config", Cause: err}
	}

	cfg := ConfigInput{TaskID: taskID, Hint: hint, UseSkills: useSkills != 0}
	if maxTurns.Valid {
		v := int(maxTurns.Int64)
		cfg.MaxTurnsOverride = &v
	}
	return cfg, nil
}

// SaveConfig upserts the config for its TaskID.
func (s *Store) SaveConfig(ctx context.Context, cfg ConfigInput) error {
	var maxTurns any
	if cfg.MaxTurnsOverride != nil {
		maxTurns = *cfg.MaxTurnsOverride
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO hillclimber_configs (task_id, hint, use_skills, max_turns_override, config_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			hint = excluded.hint,
			use_skills = excluded.use_skills,
			max_turns_override = excluded.max_turns_override,
			config_hash = excluded.config_hash,
			updated_at = excluded.updated_at`,
		cfg.TaskID, cfg.Hint, boolToInt(cfg.UseSkills), maxTurns, ConfigHash(cfg), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &db.Error{Reason: db.ReasonInsert, Op: "save_config", Cause: err}
	}
	return nil
}

// RecordRun appends a run record, assigning the next run_number for taskID.
func (s *Store) RecordRun(ctx context.Context, taskID, configHash string, result TaskRunResult) (int, error) {
	var maxRun sql.NullInt64
	if err := s.conn.QueryRowContext(ctx, `SELECT MAX(run_number) FROM hillclimber_runs WHERE task_id = ?`, taskID).Scan(&maxRun); err != nil {
		return 0, &db.Error{Reason: db.ReasonQuery, Op: "record_run", Cause: err}
	}
	runNumber := 1
	if maxRun.Valid {
		runNumber = int(maxRun.Int64) + 1
	}

	var errMsg any
	if result.ErrorMessage != "" {
		errMsg = result.ErrorMessage
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO hillclimber_runs (id, task_id, run_number, config_hash, passed, turns, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), taskID, runNumber, configHash, boolToInt(result.Passed), result.Turns, errMsg, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, &db.Error{Reason: db.ReasonInsert, Op: "record_run", Cause: err}
	}
	return runNumber, nil
}

// BuildHistory loads the accumulated run history for taskID.
func (s *Store) BuildHistory(ctx context.Context, taskID string) (History, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT hr.passed, hc.hint
		FROM hillclimber_runs hr
		JOIN hillclimber_configs hc ON hc.config_hash = hr.config_hash
		WHERE hr.task_id = ?
		ORDER BY hr.run_number ASC`, taskID)
	if err != nil {
		return History{}, &db.Error{Reason: db.ReasonQuery, Op: "build_history", Cause: err}
	}
	defer rows.Close()

	var h History
	var passedFlags []bool
	hintSeen := map[string]bool{}
	for rows.Next() {
		var passed int
		var hint string
		if err := rows.Scan(&passed, &hint); err != nil {
			return History{}, &db.Error{Reason: db.ReasonQuery, Op: "build_history", Cause: err}
		}
		h.TotalRuns++
		if passed != 0 {
			h.TotalPasses++
		}
		passedFlags = append(passedFlags, passed != 0)
		if hint != "" && !hintSeen[hint] {
			hintSeen[hint] = true
			h.TriedHints = append(h.TriedHints, truncateHint(hint))
		}
	}
	if err := rows.Err(); err != nil {
		return History{}, &db.Error{Reason: db.ReasonQuery, Op: "build_history", Cause: err}
	}

	if h.TotalRuns > 0 {
		h.PassRate = float64(h.TotalPasses) / float64(h.TotalRuns)
	}
	if len(h.TriedHints) > maxTriedHints {
		h.TriedHints = h.TriedHints[len(h.TriedHints)-maxTriedHints:]
	}
	if len(passedFlags) > maxRecentOutcomes {
		passedFlags = passedFlags[len(passedFlags)-maxRecentOutcomes:]
	}
	h.RecentOutcomes = passedFlags

	best, err := s.BestHint(ctx, taskID)
	if err != nil {
		return History{}, err
	}
	if best != nil {
		h.BestHint = best.Hint
		h.BestScore = best.Score
	}

	return h, nil
}

// Best is the best-ever hint recorded for a task.
type Best struct {
	Hint  string
	Score float64
}

func (s *Store) BestHint(ctx context.Context, taskID string) (*Best, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT hint, score FROM hillclimber_best WHERE task_id = ?`, taskID)
	var b Best
	err := row.Scan(&b.Hint, &b.Score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &db.Error{Reason: db.ReasonQuery, Op: "best_hint", Cause: err}
	}
	return &b, nil
}

// UpdateBestHint upserts the best-hint record when score improves on the
// existing best (or none exists yet).
func (s *Store) UpdateBestHint(ctx context.Context, taskID, hint string, score float64) error {
	current, err := s.BestHint(ctx, taskID)
	if err != nil {
		return err
	}
	if current != nil && current.Score >= score {
		return nil
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO hillclimber_best (task_id, hint, score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET hint = excluded.hint, score = excluded.score, updated_at = excluded.updated_at`,
		taskID, hint, score, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &db.Error{Reason: db.ReasonInsert, Op: "update_best_hint", Cause: err}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
