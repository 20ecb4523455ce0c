package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/phasetrack/internal/domain"
)

// PhaseRecord is a validated phase entry converted to domain types. Nil
// fields were absent from the payload.
type PhaseRecord struct {
	Phase        domain.ResearchPhase
	Progress     *int
	Tasks        []domain.PhaseTask
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LastActivity *time.Time
}

// Rejection describes a phase entry that failed decoding or validation.
type Rejection struct {
	Index int
	Phase string
	Errs  []error
}

// Decoded is the result of decoding a snapshot document.
type Decoded struct {
	StudyID      string
	CurrentPhase domain.ResearchPhase
	Records      []PhaseRecord
	Rejected     []Rejection
}

// FromStudy converts a study into its persisted form. Phases are written in
// canonical order.
func FromStudy(s *domain.StudyProgress) Snapshot {
	snap := Snapshot{
		StudyID:         s.StudyID,
		Phases:          make([]PhaseEntry, 0, len(domain.AllPhases)),
		OverallProgress: s.OverallProgress,
		CurrentPhase:    string(s.CurrentPhase),
	}
	for _, ph := range domain.AllPhases {
		pp := s.Phases[ph]
		if pp == nil {
			continue
		}
		progress := pp.Progress
		entry := PhaseEntry{
			Phase:        string(ph),
			Progress:     &progress,
			Tasks:        make([]TaskEntry, len(pp.Tasks)),
			StartedAt:    formatTime(pp.StartedAt),
			CompletedAt:  formatTime(pp.CompletedAt),
			LastActivity: formatTime(pp.LastActivity),
		}
		for i, t := range pp.Tasks {
			entry.Tasks[i] = TaskEntry{
				ID:          t.ID,
				Label:       t.Label,
				Description: t.Description,
				Required:    t.Required,
				Completed:   t.Completed,
				Weight:      t.Weight,
			}
		}
		snap.Phases = append(snap.Phases, entry)
	}
	return snap
}

// Encode serializes a study to snapshot JSON.
func Encode(s *domain.StudyProgress) ([]byte, error) {
	data, err := json.Marshal(FromStudy(s))
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses snapshot JSON. The document as a whole is rejected with a
// *domain.MalformedSnapshotError when it does not parse or lacks studyId or
// phases; individual phase entries that fail are reported in Rejected.
func Decode(data []byte) (*Decoded, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.MalformedSnapshotError{Reason: "invalid JSON", Err: err}
	}
	if raw.StudyID == nil || *raw.StudyID == "" {
		return nil, &domain.MalformedSnapshotError{Reason: "missing studyId"}
	}
	if raw.Phases == nil {
		return nil, &domain.MalformedSnapshotError{Reason: "missing phases"}
	}

	dec := &Decoded{StudyID: *raw.StudyID}

	if len(raw.CurrentPhase) > 0 {
		var cur string
		if err := json.Unmarshal(raw.CurrentPhase, &cur); err == nil && domain.ResearchPhase(cur).Valid() {
			dec.CurrentPhase = domain.ResearchPhase(cur)
		}
	}

	seen := make(map[domain.ResearchPhase]bool, len(raw.Phases))
	for i, msg := range raw.Phases {
		prefix := fmt.Sprintf("phases[%d]", i)

		var entry PhaseEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			dec.Rejected = append(dec.Rejected, Rejection{
				Index: i,
				Errs:  []error{fmt.Errorf("%s: %w", prefix, err)},
			})
			continue
		}

		if errs := ValidatePhaseEntry(prefix, &entry); len(errs) > 0 {
			dec.Rejected = append(dec.Rejected, Rejection{Index: i, Phase: entry.Phase, Errs: errs})
			continue
		}

		ph := domain.ResearchPhase(entry.Phase)
		if seen[ph] {
			dec.Rejected = append(dec.Rejected, Rejection{
				Index: i,
				Phase: entry.Phase,
				Errs:  []error{fmt.Errorf("%s.phase: duplicate phase %q", prefix, entry.Phase)},
			})
			continue
		}
		seen[ph] = true

		dec.Records = append(dec.Records, toRecord(ph, &entry))
	}

	return dec, nil
}

// ApplyTo overwrites the fields of pp that were present in the payload.
func (r *PhaseRecord) ApplyTo(pp *domain.PhaseProgress) {
	if r.Progress != nil {
		pp.Progress = *r.Progress
	}
	if r.Tasks != nil {
		pp.Tasks = r.Tasks
	}
	pp.StartedAt = r.StartedAt
	pp.CompletedAt = r.CompletedAt
	pp.LastActivity = r.LastActivity
}

func toRecord(ph domain.ResearchPhase, e *PhaseEntry) PhaseRecord {
	rec := PhaseRecord{
		Phase:        ph,
		Progress:     e.Progress,
		StartedAt:    parseTime(e.StartedAt),
		CompletedAt:  parseTime(e.CompletedAt),
		LastActivity: parseTime(e.LastActivity),
	}
	if e.Tasks != nil {
		rec.Tasks = make([]domain.PhaseTask, len(e.Tasks))
		for i, t := range e.Tasks {
			rec.Tasks[i] = domain.PhaseTask{
				ID:          t.ID,
				Label:       t.Label,
				Description: t.Description,
				Required:    t.Required,
				Completed:   t.Completed,
				Weight:      t.Weight,
			}
		}
	}
	return rec
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(TimeLayout)
	return &s
}

// parseTime expects a value already checked by ValidatePhaseEntry.
func parseTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(TimeLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}
