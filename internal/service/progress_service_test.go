package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/alexanderramin/phasetrack/internal/progress"
	"github.com/alexanderramin/phasetrack/internal/repository"
	"github.com/alexanderramin/phasetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, ev UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

func newServiceOn(database *sql.DB, observers ...UseCaseObserver) ProgressService {
	return NewProgressService(
		progress.NewEngine(progress.WithClock(testutil.StepClock())),
		repository.NewSQLiteSnapshotRepo(database),
		repository.NewSQLiteTaskEventRepo(database),
		testutil.NewTestUoW(database),
		observers...,
	)
}

func newTestService(t *testing.T) (ProgressService, *sql.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	return newServiceOn(database), database
}

func completeRequired(t *testing.T, svc ProgressService, studyID string, phase domain.ResearchPhase) {
	t.Helper()
	for _, task := range domain.PhaseTaskTemplates[phase] {
		if task.Required {
			_, err := svc.UpdateTask(context.Background(), studyID, phase, task.ID, true)
			require.NoError(t, err)
		}
	}
}

func TestInitStudy_FreshStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.InitStudy(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.StudyID)
	assert.Equal(t, 0, resp.OverallProgress)
	assert.Equal(t, domain.PhaseDiscover, resp.CurrentPhase)
	require.NotNil(t, resp.NextRecommendedPhase)
	assert.Equal(t, domain.PhaseDesign, *resp.NextRecommendedPhase)

	// Reloading recomputes the recommendation from the stored phases.
	status, err := svc.Status(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, status.Phases, 10)
	require.NotNil(t, status.NextRecommendedPhase)
	assert.Equal(t, domain.PhaseDiscover, *status.NextRecommendedPhase)

	discover := status.Phase(domain.PhaseDiscover)
	require.NotNil(t, discover)
	assert.True(t, discover.Unlocked)
	assert.Equal(t, 5, discover.TasksTotal)
	assert.Equal(t, 3, discover.RequiredTotal)
	assert.Equal(t, "Discover", discover.Label)

	design := status.Phase(domain.PhaseDesign)
	require.NotNil(t, design)
	assert.False(t, design.Unlocked)
	assert.Contains(t, design.Blockers, "Complete discover phase first (currently 0%)")
}

func TestInitStudy_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.InitStudy(ctx, "s1")
	require.NoError(t, err)
	_, err = svc.InitStudy(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrStudyExists)

	_, err = svc.InitStudy(ctx, "")
	assert.Error(t, err)
}

func TestUpdateTask_PersistsAcrossServices(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitStudy(ctx, "s1")
	require.NoError(t, err)

	pp, err := svc.UpdateTask(ctx, "s1", domain.PhaseDiscover, "lit-search", true)
	require.NoError(t, err)
	assert.Equal(t, 40, pp.Progress)
	require.NotNil(t, pp.StartedAt)

	// A second service on the same database starts with an empty engine.
	other := newServiceOn(database)
	status, err := other.Status(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, status.OverallProgress)
	discover := status.Phase(domain.PhaseDiscover)
	assert.Equal(t, 40, discover.Progress)
	assert.Equal(t, 1, discover.TasksDone)
	assert.Equal(t, 1, discover.RequiredDone)
	assert.NotNil(t, discover.StartedAt)
}

func TestUpdateTask_LazilyCreatesStudy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateTask(ctx, "new", domain.PhaseDiscover, "lit-search", true)
	require.NoError(t, err)

	studies, err := svc.ListStudies(ctx)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, "new", studies[0].StudyID)
	assert.Equal(t, 4, studies[0].OverallProgress)

	history, err := svc.History(ctx, "new", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpdateTask_ErrorsPersistNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateTask(ctx, "s1", domain.PhaseDiscover, "nope", true)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	var tnf *domain.TaskNotFoundError
	require.ErrorAs(t, err, &tnf)
	assert.Equal(t, "nope", tnf.TaskID)

	_, err = svc.UpdateTask(ctx, "s1", domain.ResearchPhase("bogus"), "lit-search", true)
	assert.ErrorIs(t, err, domain.ErrPhaseNotFound)

	_, err = svc.Status(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound, "failed lazy init must not be stored")
}

func TestUpdateTask_RollbackOnEventFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	svc := newServiceOn(database)
	_, err := svc.InitStudy(ctx, "s1")
	require.NoError(t, err)

	uow := &testutil.WriteFailUoW{DB: database, Table: "task_events", Err: errors.New("injected event failure")}
	failing := NewProgressService(
		progress.NewEngine(),
		repository.NewSQLiteSnapshotRepo(database),
		repository.NewSQLiteTaskEventRepo(database),
		uow,
	)
	_, err = failing.UpdateTask(ctx, "s1", domain.PhaseDiscover, "lit-search", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected event failure")
	assert.Equal(t, 1, uow.Injected())

	status, err := svc.Status(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, status.Phase(domain.PhaseDiscover).Progress, "snapshot save rolled back")

	history, err := svc.History(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistory_NewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	completeRequired(t, svc, "s1", domain.PhaseDiscover)
	_, err := svc.UpdateTask(ctx, "s1", domain.PhaseDiscover, "lit-search", false)
	require.NoError(t, err)

	history, err := svc.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)

	latest := history[0]
	assert.Equal(t, "lit-search", latest.TaskID)
	assert.False(t, latest.Completed)
	assert.Equal(t, 60, latest.PhaseProgress)
	assert.Equal(t, 6, latest.OverallProgress)

	done := history[1]
	assert.Equal(t, "gaps-analysis", done.TaskID)
	assert.Equal(t, 100, done.PhaseProgress)
	assert.Equal(t, 10, done.OverallProgress)
	assert.True(t, done.OccurredAt.Before(latest.OccurredAt))

	limited, err := svc.History(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = svc.History(ctx, "missing", 0)
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
}

func TestReads_UnknownStudy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Status(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
	_, err = svc.AvailablePhases(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
	_, err = svc.Blockers(ctx, "missing", domain.PhaseDesign)
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
	_, err = svc.Export(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
	assert.ErrorIs(t, svc.SetCurrentPhase(ctx, "missing", domain.PhaseBuild), domain.ErrStudyNotFound)
	_, err = svc.ResetPhase(ctx, "missing", domain.PhaseBuild)
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
}

func TestAvailableAndBlockers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	completeRequired(t, svc, "s1", domain.PhaseDiscover)
	_, err := svc.UpdateTask(ctx, "s1", domain.PhaseDesign, "research-question", true)
	require.NoError(t, err)

	available, err := svc.AvailablePhases(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ResearchPhase{domain.PhaseDiscover, domain.PhaseDesign}, available)

	blockers, err := svc.Blockers(ctx, "s1", domain.PhaseBuild)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Complete design phase first (currently 28%)",
		"Required tasks incomplete: Study setup, Sorting instructions, Consent form",
	}, blockers)

	_, err = svc.Blockers(ctx, "s1", domain.ResearchPhase("bogus"))
	assert.ErrorIs(t, err, domain.ErrPhaseNotFound)
}

func TestSetCurrentPhase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitStudy(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, svc.SetCurrentPhase(ctx, "s1", domain.PhaseAnalyze))
	status, err := svc.Status(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAnalyze, status.CurrentPhase)

	studies, err := svc.ListStudies(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAnalyze, studies[0].CurrentPhase)

	err = svc.SetCurrentPhase(ctx, "s1", domain.ResearchPhase("bogus"))
	assert.ErrorIs(t, err, domain.ErrPhaseNotFound)
}

func TestResetPhase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	completeRequired(t, svc, "s1", domain.PhaseDiscover)

	pp, err := svc.ResetPhase(ctx, "s1", domain.PhaseDiscover)
	require.NoError(t, err)
	assert.Equal(t, 0, pp.Progress)
	assert.Nil(t, pp.CompletedAt)

	status, err := svc.Status(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, status.OverallProgress)
	assert.Equal(t, 0, status.Phase(domain.PhaseDiscover).TasksDone)
}

func TestExportImport_BetweenDatabases(t *testing.T) {
	src, _ := newTestService(t)
	ctx := context.Background()
	completeRequired(t, src, "s1", domain.PhaseDiscover)
	_, err := src.UpdateTask(ctx, "s1", domain.PhaseDesign, "q-set", true)
	require.NoError(t, err)

	data, err := src.Export(ctx, "s1")
	require.NoError(t, err)

	dst, _ := newTestService(t)
	report, err := dst.Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "s1", report.StudyID)
	assert.False(t, report.Partial())
	assert.Empty(t, report.Rejections)
	assert.Equal(t, 13, report.OverallProgress)

	again, err := dst.Export(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestImport_PartialReport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	payload := `{"studyId":"s1","phases":[
		{"phase":"discover","progress":100},
		{"phase":"design","progress":400}
	]}`
	report, err := svc.Import(ctx, []byte(payload))
	require.NoError(t, err)
	assert.True(t, report.Partial())
	assert.Len(t, report.DefaultedPhases, 9)
	require.Len(t, report.Rejections, 1)
	assert.Contains(t, report.Rejections[0], "phases[1].progress")

	status, err := svc.Status(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, status.OverallProgress)
}

func TestImport_MalformedStoresNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, []byte(`{"phases":[]}`))
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)

	studies, err := svc.ListStudies(ctx)
	require.NoError(t, err)
	assert.Empty(t, studies)
}

func TestDeleteStudy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	completeRequired(t, svc, "s1", domain.PhaseDiscover)

	require.NoError(t, svc.DeleteStudy(ctx, "s1"))

	_, err := svc.Status(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
	_, err = svc.History(ctx, "s1", 0)
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)

	assert.ErrorIs(t, svc.DeleteStudy(ctx, "s1"), domain.ErrStudyNotFound)
}

func TestObserver_RecordsMutations(t *testing.T) {
	obs := &recordingObserver{}
	svc := newServiceOn(testutil.NewTestDB(t), obs)
	ctx := context.Background()

	_, err := svc.UpdateTask(ctx, "s1", domain.PhaseDiscover, "lit-search", true)
	require.NoError(t, err)

	ev := obs.last()
	assert.Equal(t, "update-task", ev.Name)
	assert.True(t, ev.Success)
	assert.Equal(t, "s1", ev.Fields["study_id"])
	assert.Equal(t, 40, ev.Fields["phase_progress"])
	assert.Equal(t, 4, ev.Fields["overall_progress"])

	_, err = svc.UpdateTask(ctx, "s1", domain.PhaseDiscover, "nope", true)
	require.Error(t, err)
	ev = obs.last()
	assert.False(t, ev.Success)
	assert.ErrorIs(t, ev.Err, domain.ErrTaskNotFound)
}

func TestLogUseCaseObserver_WritesRecords(t *testing.T) {
	var buf bytes.Buffer
	svc := newServiceOn(testutil.NewTestDB(t), NewLogUseCaseObserver(&buf))

	_, err := svc.InitStudy(context.Background(), "s1")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=service_use_case")
	assert.Contains(t, out, "use_case=init-study")
	assert.Contains(t, out, "study_id=s1")
	assert.Contains(t, out, "success=true")
}

func TestLogUseCaseObserver_NilWriter(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
	assert.IsType(t, NoopUseCaseObserver{}, NewSlogUseCaseObserver(nil))
}

func TestObservers_AllReceiveEvents(t *testing.T) {
	first, second := &recordingObserver{}, &recordingObserver{}
	var buf bytes.Buffer
	svc := newServiceOn(testutil.NewTestDB(t), first, nil, second, NewLogUseCaseObserver(&buf))

	_, err := svc.ResetPhase(context.Background(), "missing", domain.PhaseDesign)
	require.ErrorIs(t, err, domain.ErrStudyNotFound)

	assert.Equal(t, "reset-phase", first.last().Name)
	assert.Equal(t, "reset-phase", second.last().Name)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "error=")
}
