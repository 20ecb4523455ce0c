package service

import (
	"context"

	"github.com/alexanderramin/phasetrack/internal/contract"
	"github.com/alexanderramin/phasetrack/internal/domain"
)

// ProgressService persists study progress around the in-memory engine.
// Every mutation loads the stored snapshot, applies the change and saves
// the result in one transaction.
type ProgressService interface {
	InitStudy(ctx context.Context, studyID string) (*contract.StudyStatusResponse, error)
	UpdateTask(ctx context.Context, studyID string, phase domain.ResearchPhase, taskID string, completed bool) (*domain.PhaseProgress, error)
	Status(ctx context.Context, studyID string) (*contract.StudyStatusResponse, error)
	AvailablePhases(ctx context.Context, studyID string) ([]domain.ResearchPhase, error)
	Blockers(ctx context.Context, studyID string, phase domain.ResearchPhase) ([]string, error)
	SetCurrentPhase(ctx context.Context, studyID string, phase domain.ResearchPhase) error
	ResetPhase(ctx context.Context, studyID string, phase domain.ResearchPhase) (*domain.PhaseProgress, error)
	Export(ctx context.Context, studyID string) ([]byte, error)
	Import(ctx context.Context, data []byte) (*contract.ImportReport, error)
	History(ctx context.Context, studyID string, limit int) ([]*domain.TaskEvent, error)
	ListStudies(ctx context.Context) ([]contract.StudySummary, error)
	DeleteStudy(ctx context.Context, studyID string) error
}
