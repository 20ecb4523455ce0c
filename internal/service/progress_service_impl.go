package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/phasetrack/internal/contract"
	"github.com/alexanderramin/phasetrack/internal/db"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/alexanderramin/phasetrack/internal/progress"
	"github.com/alexanderramin/phasetrack/internal/repository"
)

type progressService struct {
	engine    *progress.Engine
	snapshots repository.SnapshotRepo
	events    repository.TaskEventRepo
	uow       db.UnitOfWork
	observer  UseCaseObserver
}

func NewProgressService(
	engine *progress.Engine,
	snapshots repository.SnapshotRepo,
	events repository.TaskEventRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) ProgressService {
	return &progressService{
		engine:    engine,
		snapshots: snapshots,
		events:    events,
		uow:       uow,
		observer:  combineObservers(observers),
	}
}

func (s *progressService) InitStudy(ctx context.Context, studyID string) (resp *contract.StudyStatusResponse, err error) {
	fields := map[string]any{"study_id": studyID}
	defer s.observe(ctx, "init-study", time.Now(), fields, &err)

	if studyID == "" {
		return nil, errors.New("study ID is required")
	}

	err = s.mutate(ctx, studyID, func(ctx context.Context, snaps repository.SnapshotRepo) error {
		if _, loadErr := snaps.Load(ctx, studyID); loadErr == nil {
			return fmt.Errorf("study %q: %w", studyID, domain.ErrStudyExists)
		} else if !errors.Is(loadErr, repository.ErrNotFound) {
			return loadErr
		}
		s.engine.InitializeStudyProgress(studyID)
		return s.save(ctx, snaps, studyID)
	})
	if err != nil {
		return nil, err
	}
	return s.statusFromEngine(studyID, time.Now().UTC())
}

func (s *progressService) UpdateTask(ctx context.Context, studyID string, phase domain.ResearchPhase, taskID string, completed bool) (pp *domain.PhaseProgress, err error) {
	fields := map[string]any{
		"study_id":  studyID,
		"phase":     string(phase),
		"task_id":   taskID,
		"completed": completed,
	}
	defer s.observe(ctx, "update-task", time.Now(), fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		snaps := repository.NewSQLiteSnapshotRepo(tx)
		events := repository.NewSQLiteTaskEventRepo(tx)

		// Unknown studies start fresh on their first update.
		if err := s.hydrate(ctx, snaps, studyID); err != nil && !errors.Is(err, domain.ErrStudyNotFound) {
			return err
		}

		updated, err := s.engine.UpdateTaskStatus(studyID, phase, taskID, completed)
		if err != nil {
			return err
		}
		study, err := s.engine.StudyProgress(studyID)
		if err != nil {
			return err
		}

		if err := s.save(ctx, snaps, studyID); err != nil {
			return err
		}
		ev := &domain.TaskEvent{
			StudyID:         studyID,
			Phase:           phase,
			TaskID:          taskID,
			Completed:       completed,
			PhaseProgress:   updated.Progress,
			OverallProgress: study.OverallProgress,
			OccurredAt:      *updated.LastActivity,
		}
		if err := events.Create(ctx, ev); err != nil {
			return err
		}

		fields["phase_progress"] = updated.Progress
		fields["overall_progress"] = study.OverallProgress
		pp = &updated
		return nil
	})
	if err != nil {
		s.engine.Forget(studyID)
		return nil, err
	}
	return pp, nil
}

func (s *progressService) Status(ctx context.Context, studyID string) (*contract.StudyStatusResponse, error) {
	rec, err := s.load(ctx, s.snapshots, studyID)
	if err != nil {
		return nil, err
	}
	return s.statusFromEngine(studyID, rec.UpdatedAt)
}

func (s *progressService) AvailablePhases(ctx context.Context, studyID string) ([]domain.ResearchPhase, error) {
	if _, err := s.load(ctx, s.snapshots, studyID); err != nil {
		return nil, err
	}
	return s.engine.AvailablePhases(studyID)
}

func (s *progressService) Blockers(ctx context.Context, studyID string, phase domain.ResearchPhase) ([]string, error) {
	if _, err := s.load(ctx, s.snapshots, studyID); err != nil {
		return nil, err
	}
	return s.engine.PhaseBlockers(studyID, phase)
}

func (s *progressService) SetCurrentPhase(ctx context.Context, studyID string, phase domain.ResearchPhase) (err error) {
	fields := map[string]any{"study_id": studyID, "phase": string(phase)}
	defer s.observe(ctx, "set-current-phase", time.Now(), fields, &err)

	return s.mutate(ctx, studyID, func(ctx context.Context, snaps repository.SnapshotRepo) error {
		if err := s.hydrate(ctx, snaps, studyID); err != nil {
			return err
		}
		if err := s.engine.SetCurrentPhase(studyID, phase); err != nil {
			return err
		}
		return s.save(ctx, snaps, studyID)
	})
}

func (s *progressService) ResetPhase(ctx context.Context, studyID string, phase domain.ResearchPhase) (pp *domain.PhaseProgress, err error) {
	fields := map[string]any{"study_id": studyID, "phase": string(phase)}
	defer s.observe(ctx, "reset-phase", time.Now(), fields, &err)

	err = s.mutate(ctx, studyID, func(ctx context.Context, snaps repository.SnapshotRepo) error {
		if err := s.hydrate(ctx, snaps, studyID); err != nil {
			return err
		}
		reset, err := s.engine.ResetPhase(studyID, phase)
		if err != nil {
			return err
		}
		pp = &reset
		return s.save(ctx, snaps, studyID)
	})
	if err != nil {
		return nil, err
	}
	return pp, nil
}

func (s *progressService) Export(ctx context.Context, studyID string) ([]byte, error) {
	if _, err := s.load(ctx, s.snapshots, studyID); err != nil {
		return nil, err
	}
	return s.engine.ExportProgress(studyID)
}

func (s *progressService) Import(ctx context.Context, data []byte) (report *contract.ImportReport, err error) {
	fields := map[string]any{}
	defer s.observe(ctx, "import-study", time.Now(), fields, &err)

	res, err := s.engine.ImportProgress(data)
	if err != nil {
		return nil, err
	}
	studyID := res.Progress.StudyID
	fields["study_id"] = studyID
	fields["defaulted_phases"] = len(res.DefaultedPhases)

	err = s.mutate(ctx, studyID, func(ctx context.Context, snaps repository.SnapshotRepo) error {
		return s.save(ctx, snaps, studyID)
	})
	if err != nil {
		return nil, err
	}

	report = &contract.ImportReport{
		StudyID:         studyID,
		OverallProgress: res.Progress.OverallProgress,
		DefaultedPhases: res.DefaultedPhases,
	}
	for _, rej := range res.Rejected {
		for _, e := range rej.Errs {
			report.Rejections = append(report.Rejections, e.Error())
		}
	}
	return report, nil
}

func (s *progressService) History(ctx context.Context, studyID string, limit int) ([]*domain.TaskEvent, error) {
	if _, err := s.snapshots.Load(ctx, studyID); err != nil {
		return nil, studyNotFound(studyID, err)
	}
	return s.events.ListByStudy(ctx, studyID, limit)
}

func (s *progressService) ListStudies(ctx context.Context) ([]contract.StudySummary, error) {
	recs, err := s.snapshots.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contract.StudySummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, contract.StudySummary{
			StudyID:         r.StudyID,
			OverallProgress: r.OverallProgress,
			CurrentPhase:    r.CurrentPhase,
			CreatedAt:       r.CreatedAt,
			UpdatedAt:       r.UpdatedAt,
		})
	}
	return out, nil
}

func (s *progressService) DeleteStudy(ctx context.Context, studyID string) (err error) {
	fields := map[string]any{"study_id": studyID}
	defer s.observe(ctx, "delete-study", time.Now(), fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteTaskEventRepo(tx).DeleteByStudy(ctx, studyID); err != nil {
			return err
		}
		if err := repository.NewSQLiteSnapshotRepo(tx).Delete(ctx, studyID); err != nil {
			return studyNotFound(studyID, err)
		}
		return nil
	})
	s.engine.Forget(studyID)
	return err
}

// mutate runs fn in a transaction with a tx-scoped snapshot repo. A failed
// transaction drops the study from the engine cache so the next call
// reloads the committed state.
func (s *progressService) mutate(ctx context.Context, studyID string, fn func(ctx context.Context, snaps repository.SnapshotRepo) error) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, repository.NewSQLiteSnapshotRepo(tx))
	})
	if err != nil {
		s.engine.Forget(studyID)
	}
	return err
}

// hydrate replaces the engine's cached copy of the study with the stored one.
func (s *progressService) hydrate(ctx context.Context, snaps repository.SnapshotRepo, studyID string) error {
	_, err := s.load(ctx, snaps, studyID)
	return err
}

func (s *progressService) load(ctx context.Context, snaps repository.SnapshotRepo, studyID string) (*domain.StudyRecord, error) {
	rec, err := snaps.Load(ctx, studyID)
	if err != nil {
		s.engine.Forget(studyID)
		return nil, studyNotFound(studyID, err)
	}
	if _, err := s.engine.ImportProgress(rec.Payload); err != nil {
		return nil, fmt.Errorf("restoring study %q: %w", studyID, err)
	}
	return rec, nil
}

func (s *progressService) save(ctx context.Context, snaps repository.SnapshotRepo, studyID string) error {
	study, err := s.engine.StudyProgress(studyID)
	if err != nil {
		return err
	}
	payload, err := s.engine.ExportProgress(studyID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return snaps.Save(ctx, &domain.StudyRecord{
		StudyID:         studyID,
		Payload:         payload,
		OverallProgress: study.OverallProgress,
		CurrentPhase:    study.CurrentPhase,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (s *progressService) statusFromEngine(studyID string, updatedAt time.Time) (*contract.StudyStatusResponse, error) {
	study, err := s.engine.StudyProgress(studyID)
	if err != nil {
		return nil, err
	}
	available, err := s.engine.AvailablePhases(studyID)
	if err != nil {
		return nil, err
	}
	resp := buildStatus(study, available)
	resp.UpdatedAt = updatedAt
	return resp, nil
}

func (s *progressService) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, errp *error) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   *errp == nil,
		Err:       *errp,
		Fields:    fields,
	})
}

// studyNotFound maps a missing snapshot row to domain.ErrStudyNotFound.
func studyNotFound(studyID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("study %q: %w", studyID, domain.ErrStudyNotFound)
	}
	return err
}
