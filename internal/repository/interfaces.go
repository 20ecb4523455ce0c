package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/phasetrack/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type SnapshotRepo interface {
	// Save inserts or replaces the study record. CreatedAt is kept from the
	// first save.
	Save(ctx context.Context, rec *domain.StudyRecord) error
	Load(ctx context.Context, studyID string) (*domain.StudyRecord, error)
	List(ctx context.Context) ([]*domain.StudyRecord, error)
	Delete(ctx context.Context, studyID string) error
}

type TaskEventRepo interface {
	Create(ctx context.Context, ev *domain.TaskEvent) error
	// ListByStudy returns the newest events first. A limit of zero or less
	// returns every event.
	ListByStudy(ctx context.Context, studyID string, limit int) ([]*domain.TaskEvent, error)
	DeleteByStudy(ctx context.Context, studyID string) error
}
