package contract

import (
	"time"

	"github.com/alexanderramin/phasetrack/internal/domain"
)

// PhaseSummary is the display view of one phase.
type PhaseSummary struct {
	Phase         domain.ResearchPhase
	Label         string
	Progress      int
	TasksDone     int
	TasksTotal    int
	RequiredDone  int
	RequiredTotal int
	// Complete reports progress at or above domain.CompleteThreshold.
	Complete bool
	// Unlocked reports every dependency at or above domain.UnlockThreshold.
	Unlocked     bool
	Tasks        []domain.PhaseTask
	Blockers     []string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LastActivity *time.Time
}

type StudyStatusResponse struct {
	StudyID              string
	OverallProgress      int
	CurrentPhase         domain.ResearchPhase
	NextRecommendedPhase *domain.ResearchPhase
	Phases               []PhaseSummary
	UpdatedAt            time.Time
}

// Phase returns the summary for ph, or nil.
func (r *StudyStatusResponse) Phase(ph domain.ResearchPhase) *PhaseSummary {
	for i := range r.Phases {
		if r.Phases[i].Phase == ph {
			return &r.Phases[i]
		}
	}
	return nil
}

// StudySummary is one row of the study listing.
type StudySummary struct {
	StudyID         string
	OverallProgress int
	CurrentPhase    domain.ResearchPhase
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ImportReport describes how a snapshot was restored.
type ImportReport struct {
	StudyID         string
	OverallProgress int
	DefaultedPhases []domain.ResearchPhase
	// Rejections holds one message per validation error, prefixed with the
	// offending entry's path.
	Rejections []string
}

func (r *ImportReport) Partial() bool {
	return len(r.DefaultedPhases) > 0
}
