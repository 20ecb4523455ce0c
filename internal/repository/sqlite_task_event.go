package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/db"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/google/uuid"
)

// SQLiteTaskEventRepo implements TaskEventRepo using a SQLite database.
type SQLiteTaskEventRepo struct {
	db db.DBTX
}

func NewSQLiteTaskEventRepo(conn db.DBTX) *SQLiteTaskEventRepo {
	return &SQLiteTaskEventRepo{db: conn}
}

// Create assigns a new ID when ev.ID is empty.
func (r *SQLiteTaskEventRepo) Create(ctx context.Context, ev *domain.TaskEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	query := `INSERT INTO task_events (id, study_id, phase, task_id, completed, phase_progress, overall_progress, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		ev.ID,
		ev.StudyID,
		string(ev.Phase),
		ev.TaskID,
		boolToInt(ev.Completed),
		ev.PhaseProgress,
		ev.OverallProgress,
		formatTime(ev.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task event: %w", err)
	}
	return nil
}

func (r *SQLiteTaskEventRepo) ListByStudy(ctx context.Context, studyID string, limit int) ([]*domain.TaskEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT id, study_id, phase, task_id, completed, phase_progress, overall_progress, occurred_at
		FROM task_events WHERE study_id = ?
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, studyID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing task events: %w", err)
	}
	defer rows.Close()

	var events []*domain.TaskEvent
	for rows.Next() {
		var ev domain.TaskEvent
		var phase, occurredAt string
		var completed int
		if err := rows.Scan(&ev.ID, &ev.StudyID, &phase, &ev.TaskID, &completed,
			&ev.PhaseProgress, &ev.OverallProgress, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning task event: %w", err)
		}
		ev.Phase = domain.ResearchPhase(phase)
		ev.Completed = intToBool(completed)
		t, err := parseTime(occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parsing occurred_at: %w", err)
		}
		ev.OccurredAt = t
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (r *SQLiteTaskEventRepo) DeleteByStudy(ctx context.Context, studyID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_events WHERE study_id = ?`, studyID); err != nil {
		return fmt.Errorf("deleting task events: %w", err)
	}
	return nil
}
