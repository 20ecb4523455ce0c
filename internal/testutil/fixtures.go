package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/google/uuid"
)

var eventClock atomic.Int64

// BaseTime is the fixed instant fixtures are stamped relative to.
var BaseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// StepClock returns a clock that advances one second per call, starting at
// BaseTime.
func StepClock() func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return BaseTime.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

type RecordOption func(*domain.StudyRecord)

func WithOverall(p int) RecordOption {
	return func(r *domain.StudyRecord) {
		r.OverallProgress = p
	}
}

func WithCurrentPhase(ph domain.ResearchPhase) RecordOption {
	return func(r *domain.StudyRecord) {
		r.CurrentPhase = ph
	}
}

func WithUpdatedAt(t time.Time) RecordOption {
	return func(r *domain.StudyRecord) {
		r.UpdatedAt = t
	}
}

func WithPayload(p []byte) RecordOption {
	return func(r *domain.StudyRecord) {
		r.Payload = p
	}
}

// NewTestRecord builds a study record with a minimal valid payload.
func NewTestRecord(studyID string, opts ...RecordOption) *domain.StudyRecord {
	r := &domain.StudyRecord{
		StudyID:      studyID,
		Payload:      []byte(fmt.Sprintf(`{"studyId":%q,"phases":[]}`, studyID)),
		CurrentPhase: domain.PhaseDiscover,
		CreatedAt:    BaseTime,
		UpdatedAt:    BaseTime,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type EventOption func(*domain.TaskEvent)

func WithCompleted(c bool) EventOption {
	return func(e *domain.TaskEvent) {
		e.Completed = c
	}
}

func WithProgress(phase, overall int) EventOption {
	return func(e *domain.TaskEvent) {
		e.PhaseProgress = phase
		e.OverallProgress = overall
	}
}

func WithOccurredAt(t time.Time) EventOption {
	return func(e *domain.TaskEvent) {
		e.OccurredAt = t
	}
}

// NewTestEvent builds a completion event. Successive calls get strictly
// increasing timestamps.
func NewTestEvent(studyID string, phase domain.ResearchPhase, taskID string, opts ...EventOption) *domain.TaskEvent {
	e := &domain.TaskEvent{
		ID:         uuid.New().String(),
		StudyID:    studyID,
		Phase:      phase,
		TaskID:     taskID,
		Completed:  true,
		OccurredAt: BaseTime.Add(time.Duration(eventClock.Add(1)) * time.Millisecond),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
