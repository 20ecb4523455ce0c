package service

import (
	"slices"

	"github.com/alexanderramin/phasetrack/internal/contract"
	"github.com/alexanderramin/phasetrack/internal/domain"
)

// buildStatus flattens a study into display rows in canonical phase order.
func buildStatus(study domain.StudyProgress, available []domain.ResearchPhase) *contract.StudyStatusResponse {
	resp := &contract.StudyStatusResponse{
		StudyID:              study.StudyID,
		OverallProgress:      study.OverallProgress,
		CurrentPhase:         study.CurrentPhase,
		NextRecommendedPhase: study.NextRecommendedPhase,
		Phases:               make([]contract.PhaseSummary, 0, len(domain.AllPhases)),
	}
	for _, ph := range domain.AllPhases {
		pp := study.Phase(ph)
		if pp == nil {
			continue
		}
		sum := contract.PhaseSummary{
			Phase:        ph,
			Label:        ph.Label(),
			Progress:     pp.Progress,
			TasksTotal:   len(pp.Tasks),
			Complete:     pp.IsComplete(),
			Unlocked:     slices.Contains(available, ph),
			Tasks:        pp.Tasks,
			Blockers:     pp.Blockers,
			StartedAt:    pp.StartedAt,
			CompletedAt:  pp.CompletedAt,
			LastActivity: pp.LastActivity,
		}
		for _, t := range pp.Tasks {
			if t.Completed {
				sum.TasksDone++
			}
			if t.Required {
				sum.RequiredTotal++
				if t.Completed {
					sum.RequiredDone++
				}
			}
		}
		resp.Phases = append(resp.Phases, sum)
	}
	return resp
}
