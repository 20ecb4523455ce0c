package domain

import "time"

// StudyRecord is a persisted study: its snapshot JSON plus the summary
// columns used for listing without decoding the payload.
type StudyRecord struct {
	StudyID         string
	Payload         []byte
	OverallProgress int
	CurrentPhase    ResearchPhase
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskEvent records one task status change and the progress it produced.
type TaskEvent struct {
	ID              string
	StudyID         string
	Phase           ResearchPhase
	TaskID          string
	Completed       bool
	PhaseProgress   int
	OverallProgress int
	OccurredAt      time.Time
}
