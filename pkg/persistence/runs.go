package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one completed orchestration run.
type RunRecord struct {
	CreatedAt   time.Time     `json:"created_at"`
	ID          string        `json:"id"`
	Query       string        `json:"query"`
	Answer      string        `json:"answer"`
	TaskType    string        `json:"task_type"`
	Mode        string        `json:"mode"`
	ModelsUsed  []string      `json:"models_used"`
	ToolsCalled []string      `json:"tools_called"`
	Iterations  int           `json:"iterations"`
	Duration    time.Duration `json:"duration"`
}

// RunStats aggregates the recorded history.
type RunStats struct {
	RunsByTaskType map[string]int `json:"runs_by_task_type"`
	TotalRuns      int            `json:"total_runs"`
	AvgIterations  float64        `json:"avg_iterations"`
	AvgDuration    time.Duration  `json:"avg_duration"`
}

// SaveRun records a completed run. The record's ID must be unique.
func (s *Store) SaveRun(ctx context.Context, rec *RunRecord) error {
	if rec.ID == "" {
		return errors.New("run record requires an ID")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	models, err := json.Marshal(emptyToSlice(rec.ModelsUsed))
	if err != nil {
		return fmt.Errorf("failed to encode models for run %s: %w", rec.ID, err)
	}
	tools, err := json.Marshal(emptyToSlice(rec.ToolsCalled))
	if err != nil {
		return fmt.Errorf("failed to encode tools for run %s: %w", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, query, answer, task_type, mode, iterations,
			models_used, tools_called, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.Answer, rec.TaskType, rec.Mode, rec.Iterations,
		string(models), string(tools), rec.Duration.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}

	s.logger.Debug("saved run %s (task_type=%s, iterations=%d)", rec.ID, rec.TaskType, rec.Iterations)
	return nil
}

// GetRun fetches a single run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, query, answer, task_type, mode, iterations,
			models_used, tools_called, duration_ms, created_at
		FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns the newest runs, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, answer, task_type, mode, iterations,
			models_used, tools_called, duration_ms, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run rows: %w", err)
	}
	return records, nil
}

// Stats aggregates the full run history.
func (s *Store) Stats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{RunsByTaskType: make(map[string]int)}

	var avgIter, avgDurMS sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(iterations), AVG(duration_ms) FROM runs`,
	).Scan(&stats.TotalRuns, &avgIter, &avgDurMS)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs: %w", err)
	}
	if avgIter.Valid {
		stats.AvgIterations = avgIter.Float64
	}
	if avgDurMS.Valid {
		stats.AvgDuration = time.Duration(avgDurMS.Float64 * float64(time.Millisecond))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT task_type, COUNT(*) FROM runs GROUP BY task_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs by task type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var taskType string
		var count int
		if err := rows.Scan(&taskType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan task type row: %w", err)
		}
		stats.RunsByTaskType[taskType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task type rows: %w", err)
	}
	return stats, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var models, tools string
	var durationMS int64

	err := row.Scan(&rec.ID, &rec.Query, &rec.Answer, &rec.TaskType, &rec.Mode,
		&rec.Iterations, &models, &tools, &durationMS, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(models), &rec.ModelsUsed); err != nil {
		return nil, fmt.Errorf("failed to decode models for run %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(tools), &rec.ToolsCalled); err != nil {
		return nil, fmt.Errorf("failed to decode tools for run %s: %w", rec.ID, err)
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return &rec, nil
}

// emptyToSlice keeps nil slices encoding as [] rather than null.
func emptyToSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
