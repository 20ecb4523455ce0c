// Package snapshot defines the persisted JSON form of a study's phase
// progress and converts it to and from the domain model.
package snapshot

import (
	"encoding/json"
	"time"
)

// TimeLayout is the timestamp encoding used for all snapshot times.
const TimeLayout = time.RFC3339Nano

// Snapshot is the top-level persisted structure. nextRecommendedPhase is
// deliberately absent; it is recomputed on load.
type Snapshot struct {
	StudyID         string       `json:"studyId"`
	Phases          []PhaseEntry `json:"phases"`
	OverallProgress int          `json:"overallProgress"`
	CurrentPhase    string       `json:"currentPhase"`
}

// PhaseEntry is one phase's persisted record. Pointer and nil-slice fields
// distinguish absent values from zero values on decode.
type PhaseEntry struct {
	Phase        string      `json:"phase"`
	Progress     *int        `json:"progress"`
	Tasks        []TaskEntry `json:"tasks"`
	StartedAt    *string     `json:"startedAt"`
	CompletedAt  *string     `json:"completedAt"`
	LastActivity *string     `json:"lastActivity"`
}

type TaskEntry struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Required    bool    `json:"required"`
	Completed   bool    `json:"completed"`
	Weight      float64 `json:"weight"`
}

// rawSnapshot is the first decoding stage. Phase entries stay raw so that a
// single corrupt entry can be rejected without failing the whole document.
type rawSnapshot struct {
	StudyID      *string           `json:"studyId"`
	Phases       []json.RawMessage `json:"phases"`
	CurrentPhase json.RawMessage   `json:"currentPhase"`
}
