package snapshot

import (
	"fmt"
	"time"

	"github.com/alexanderramin/phasetrack/internal/domain"
)

// ValidatePhaseEntry checks a single phase entry before it is trusted.
// Returns a slice of all validation errors found.
func ValidatePhaseEntry(prefix string, e *PhaseEntry) []error {
	var errs []error

	if e.Phase == "" {
		errs = append(errs, fmt.Errorf("%s.phase is required", prefix))
	} else if !domain.ResearchPhase(e.Phase).Valid() {
		errs = append(errs, fmt.Errorf("%s.phase: invalid value %q", prefix, e.Phase))
	}

	if e.Progress != nil && (*e.Progress < 0 || *e.Progress > 100) {
		errs = append(errs, fmt.Errorf("%s.progress: %d out of range 0-100", prefix, *e.Progress))
	}

	errs = append(errs, validateTasks(prefix+".tasks", e.Tasks)...)

	errs = append(errs, validateOptionalTime(prefix+".startedAt", e.StartedAt)...)
	errs = append(errs, validateOptionalTime(prefix+".completedAt", e.CompletedAt)...)
	errs = append(errs, validateOptionalTime(prefix+".lastActivity", e.LastActivity)...)

	return errs
}

func validateTasks(prefix string, tasks []TaskEntry) []error {
	var errs []error
	ids := make(map[string]bool, len(tasks))

	for i, t := range tasks {
		tp := fmt.Sprintf("%s[%d]", prefix, i)

		if t.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", tp))
		} else if ids[t.ID] {
			errs = append(errs, fmt.Errorf("%s.id: duplicate id %q", tp, t.ID))
		} else {
			ids[t.ID] = true
		}

		if t.Weight <= 0 || t.Weight > 1 {
			errs = append(errs, fmt.Errorf("%s.weight: %v out of range (0,1]", tp, t.Weight))
		}
	}

	return errs
}

func validateOptionalTime(field string, value *string) []error {
	if value == nil {
		return nil
	}
	if _, err := time.Parse(TimeLayout, *value); err != nil {
		return []error{fmt.Errorf("%s: invalid timestamp %q", field, *value)}
	}
	return nil
}
