package domain

import (
	"math"
	"slices"
	"time"
)

type PhaseTask struct {
	ID          string
	Label       string
	Description string
	Required    bool
	Completed   bool
	Weight      float64
}

type PhaseProgress struct {
	Phase        ResearchPhase
	Progress     int
	Tasks        []PhaseTask
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LastActivity *time.Time

	// Blockers is derived on every recompute and never persisted.
	Blockers     []string
	Dependencies []ResearchPhase
}

type StudyProgress struct {
	StudyID              string
	Phases               map[ResearchPhase]*PhaseProgress
	OverallProgress      int
	CurrentPhase         ResearchPhase
	NextRecommendedPhase *ResearchPhase
}

// FindTask returns the index of the task with the given id, or -1.
func (p *PhaseProgress) FindTask(taskID string) int {
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// ComputeProgress returns the weighted completion percentage of the phase.
// Optional tasks count toward the denominator only once completed. A phase
// with no required or completed tasks reports 0.
func (p *PhaseProgress) ComputeProgress() int {
	var totalWeight, completedWeight float64
	for _, t := range p.Tasks {
		if t.Required || t.Completed {
			totalWeight += t.Weight
		}
		if t.Completed {
			completedWeight += t.Weight
		}
	}
	if totalWeight <= 0 {
		return 0
	}
	pct := int(math.Round(completedWeight / totalWeight * 100))
	return min(max(pct, 0), 100)
}

// RequiredDone reports whether every required task is completed.
func (p *PhaseProgress) RequiredDone() bool {
	for _, t := range p.Tasks {
		if t.Required && !t.Completed {
			return false
		}
	}
	return true
}

// IncompleteRequired returns the labels of required tasks not yet completed.
func (p *PhaseProgress) IncompleteRequired() []string {
	var labels []string
	for _, t := range p.Tasks {
		if t.Required && !t.Completed {
			labels = append(labels, t.Label)
		}
	}
	return labels
}

// IsComplete reports whether the phase has reached CompleteThreshold.
func (p *PhaseProgress) IsComplete() bool {
	return p.Progress >= CompleteThreshold
}

// Clone returns a deep copy of the phase progress.
func (p *PhaseProgress) Clone() PhaseProgress {
	c := *p
	c.Tasks = slices.Clone(p.Tasks)
	c.Blockers = slices.Clone(p.Blockers)
	c.Dependencies = slices.Clone(p.Dependencies)
	c.StartedAt = cloneTime(p.StartedAt)
	c.CompletedAt = cloneTime(p.CompletedAt)
	c.LastActivity = cloneTime(p.LastActivity)
	return c
}

// Clone returns a deep copy of the study progress, safe to hand to callers
// that must not mutate cached state.
func (s *StudyProgress) Clone() StudyProgress {
	c := *s
	c.Phases = make(map[ResearchPhase]*PhaseProgress, len(s.Phases))
	for ph, pp := range s.Phases {
		cp := pp.Clone()
		c.Phases[ph] = &cp
	}
	if s.NextRecommendedPhase != nil {
		next := *s.NextRecommendedPhase
		c.NextRecommendedPhase = &next
	}
	return c
}

// Phase returns the progress record for ph, or nil.
func (s *StudyProgress) Phase(ph ResearchPhase) *PhaseProgress {
	return s.Phases[ph]
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
