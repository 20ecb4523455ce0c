package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/db"
	"github.com/alexanderramin/phasetrack/internal/domain"
)

// SQLiteSnapshotRepo implements SnapshotRepo using a SQLite database.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

func NewSQLiteSnapshotRepo(conn db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: conn}
}

func (r *SQLiteSnapshotRepo) Save(ctx context.Context, rec *domain.StudyRecord) error {
	query := `INSERT INTO study_snapshots (study_id, payload, overall_progress, current_phase, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(study_id) DO UPDATE SET
			payload = excluded.payload,
			overall_progress = excluded.overall_progress,
			current_phase = excluded.current_phase,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		rec.StudyID,
		string(rec.Payload),
		rec.OverallProgress,
		string(rec.CurrentPhase),
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving study snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteSnapshotRepo) Load(ctx context.Context, studyID string) (*domain.StudyRecord, error) {
	query := `SELECT study_id, payload, overall_progress, current_phase, created_at, updated_at
		FROM study_snapshots WHERE study_id = ?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, studyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("study snapshot %q: %w", studyID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading study snapshot: %w", err)
	}
	return rec, nil
}

func (r *SQLiteSnapshotRepo) List(ctx context.Context) ([]*domain.StudyRecord, error) {
	query := `SELECT study_id, payload, overall_progress, current_phase, created_at, updated_at
		FROM study_snapshots ORDER BY updated_at DESC, study_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing study snapshots: %w", err)
	}
	defer rows.Close()

	var out []*domain.StudyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning study snapshot: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteSnapshotRepo) Delete(ctx context.Context, studyID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM study_snapshots WHERE study_id = ?`, studyID)
	if err != nil {
		return fmt.Errorf("deleting study snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting study snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("study snapshot %q: %w", studyID, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.StudyRecord, error) {
	var rec domain.StudyRecord
	var payload, phase, createdAt, updatedAt string
	if err := row.Scan(&rec.StudyID, &payload, &rec.OverallProgress, &phase, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.Payload = []byte(payload)
	rec.CurrentPhase = domain.ResearchPhase(phase)

	var err error
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rec, nil
}
