// Package progress tracks weighted task completion across the ten research
// phases of a study and derives phase, overall and next-phase progress.
//
// An Engine owns an in-memory cache of studies keyed by study ID. The cache
// is never evicted; callers persist studies through ExportProgress and
// restore them through ImportProgress.
package progress

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/alexanderramin/phasetrack/internal/snapshot"
)

type Engine struct {
	mu      sync.Mutex
	studies map[string]*domain.StudyProgress
	now     func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		studies: make(map[string]*domain.StudyProgress),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ImportResult holds the outcome of ImportProgress.
type ImportResult struct {
	Progress domain.StudyProgress
	// DefaultedPhases lists phases left at their freshly initialized state
	// because the payload entry was missing or invalid.
	DefaultedPhases []domain.ResearchPhase
	Rejected        []snapshot.Rejection
}

// Partial reports whether any phase could not be restored.
func (r *ImportResult) Partial() bool {
	return len(r.DefaultedPhases) > 0
}

// InitializeStudyProgress creates a fresh study and replaces any cached entry
// for the same ID.
func (e *Engine) InitializeStudyProgress(studyID string) domain.StudyProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked(studyID).Clone()
}

func (e *Engine) initLocked(studyID string) *domain.StudyProgress {
	s := &domain.StudyProgress{
		StudyID:      studyID,
		Phases:       make(map[domain.ResearchPhase]*domain.PhaseProgress, len(domain.AllPhases)),
		CurrentPhase: domain.PhaseDiscover,
	}
	for _, ph := range domain.AllPhases {
		s.Phases[ph] = domain.NewPhaseProgress(ph)
	}
	next := domain.PhaseDesign
	s.NextRecommendedPhase = &next
	e.studies[studyID] = s
	return s
}

// UpdateTaskStatus sets the completion flag of a task and recomputes the
// phase and study aggregates. Unknown studies are initialized first.
func (e *Engine) UpdateTaskStatus(studyID string, phase domain.ResearchPhase, taskID string, completed bool) (domain.PhaseProgress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.studies[studyID]
	if !ok {
		s = e.initLocked(studyID)
	}

	pp, ok := s.Phases[phase]
	if !ok || !phase.Valid() {
		return domain.PhaseProgress{}, &domain.PhaseNotFoundError{Phase: string(phase)}
	}

	idx := pp.FindTask(taskID)
	if idx < 0 {
		return domain.PhaseProgress{}, &domain.TaskNotFoundError{Phase: phase, TaskID: taskID}
	}

	now := e.now()
	pp.Tasks[idx].Completed = completed
	pp.LastActivity = &now
	if completed && pp.StartedAt == nil {
		started := now
		pp.StartedAt = &started
	}

	pp.Progress = pp.ComputeProgress()
	if pp.CompletedAt == nil && pp.RequiredDone() && pp.IsComplete() {
		done := now
		pp.CompletedAt = &done
	}

	recomputeStudy(s)
	return pp.Clone(), nil
}

// StudyProgress returns a copy of the cached study.
func (e *Engine) StudyProgress(studyID string) (domain.StudyProgress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookupLocked(studyID)
	if err != nil {
		return domain.StudyProgress{}, err
	}
	return s.Clone(), nil
}

// AvailablePhases returns, in canonical order, every phase whose dependencies
// have all reached UnlockThreshold.
func (e *Engine) AvailablePhases(studyID string) ([]domain.ResearchPhase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookupLocked(studyID)
	if err != nil {
		return nil, err
	}
	return availablePhases(s), nil
}

// PhaseBlockers lists why a phase is not yet ready: one entry per dependency
// below CompleteThreshold and one entry naming the incomplete required tasks.
func (e *Engine) PhaseBlockers(studyID string, phase domain.ResearchPhase) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookupLocked(studyID)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Phases[phase]; !ok {
		return nil, &domain.PhaseNotFoundError{Phase: string(phase)}
	}
	return phaseBlockers(s, phase), nil
}

// SetCurrentPhase records the phase the researcher is working in.
func (e *Engine) SetCurrentPhase(studyID string, phase domain.ResearchPhase) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookupLocked(studyID)
	if err != nil {
		return err
	}
	if !phase.Valid() {
		return &domain.PhaseNotFoundError{Phase: string(phase)}
	}
	s.CurrentPhase = phase
	return nil
}

// ResetPhase replaces a phase's record with a fresh one from the template.
func (e *Engine) ResetPhase(studyID string, phase domain.ResearchPhase) (domain.PhaseProgress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookupLocked(studyID)
	if err != nil {
		return domain.PhaseProgress{}, err
	}
	if !phase.Valid() {
		return domain.PhaseProgress{}, &domain.PhaseNotFoundError{Phase: string(phase)}
	}
	pp := domain.NewPhaseProgress(phase)
	s.Phases[phase] = pp
	recomputeStudy(s)
	return pp.Clone(), nil
}

// Forget drops a study from the cache.
func (e *Engine) Forget(studyID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.studies, studyID)
}

// ExportProgress serializes the cached study to snapshot JSON.
func (e *Engine) ExportProgress(studyID string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookupLocked(studyID)
	if err != nil {
		return nil, err
	}
	return snapshot.Encode(s)
}

// ImportProgress restores a study from snapshot JSON and caches it. Phase
// entries that are missing or invalid are left freshly initialized and
// reported in the result rather than failing the import.
func (e *Engine) ImportProgress(data []byte) (*ImportResult, error) {
	dec, err := snapshot.Decode(data)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.initLocked(dec.StudyID)
	restored := make(map[domain.ResearchPhase]bool, len(dec.Records))
	for i := range dec.Records {
		rec := &dec.Records[i]
		rec.ApplyTo(s.Phases[rec.Phase])
		restored[rec.Phase] = true
	}
	if dec.CurrentPhase != "" {
		s.CurrentPhase = dec.CurrentPhase
	}
	recomputeStudy(s)

	res := &ImportResult{Rejected: dec.Rejected}
	for _, ph := range domain.AllPhases {
		if !restored[ph] {
			res.DefaultedPhases = append(res.DefaultedPhases, ph)
		}
	}
	res.Progress = s.Clone()
	return res, nil
}

func (e *Engine) lookupLocked(studyID string) (*domain.StudyProgress, error) {
	s, ok := e.studies[studyID]
	if !ok {
		return nil, fmt.Errorf("study %q: %w", studyID, domain.ErrStudyNotFound)
	}
	return s, nil
}

// recomputeStudy refreshes the derived study fields: overall progress, next
// recommended phase and per-phase blockers.
func recomputeStudy(s *domain.StudyProgress) {
	var sum int
	for _, ph := range domain.AllPhases {
		sum += s.Phases[ph].Progress
	}
	s.OverallProgress = int(math.Round(float64(sum) / float64(len(domain.AllPhases))))
	s.NextRecommendedPhase = nextRecommended(s)

	for _, ph := range domain.AllPhases {
		s.Phases[ph].Blockers = phaseBlockers(s, ph)
	}
}

// nextRecommended scans phases in order and stops at the first one below
// CompleteThreshold. It is recommended only if its dependencies are complete.
func nextRecommended(s *domain.StudyProgress) *domain.ResearchPhase {
	for _, ph := range domain.AllPhases {
		pp := s.Phases[ph]
		if pp.IsComplete() {
			continue
		}
		if !dependenciesAtLeast(s, pp, domain.CompleteThreshold) {
			return nil
		}
		next := ph
		return &next
	}
	return nil
}

func availablePhases(s *domain.StudyProgress) []domain.ResearchPhase {
	out := make([]domain.ResearchPhase, 0, len(domain.AllPhases))
	for _, ph := range domain.AllPhases {
		if dependenciesAtLeast(s, s.Phases[ph], domain.UnlockThreshold) {
			out = append(out, ph)
		}
	}
	return out
}

func dependenciesAtLeast(s *domain.StudyProgress, pp *domain.PhaseProgress, threshold int) bool {
	for _, dep := range pp.Dependencies {
		dp, ok := s.Phases[dep]
		if !ok || dp.Progress < threshold {
			return false
		}
	}
	return true
}

func phaseBlockers(s *domain.StudyProgress, phase domain.ResearchPhase) []string {
	pp := s.Phases[phase]
	blockers := []string{}
	for _, dep := range pp.Dependencies {
		dp, ok := s.Phases[dep]
		if !ok {
			continue
		}
		if dp.Progress < domain.CompleteThreshold {
			blockers = append(blockers, fmt.Sprintf("Complete %s phase first (currently %d%%)", dep, dp.Progress))
		}
	}
	if missing := pp.IncompleteRequired(); len(missing) > 0 {
		blockers = append(blockers, "Required tasks incomplete: "+strings.Join(missing, ", "))
	}
	return blockers
}
