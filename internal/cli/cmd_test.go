package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/phasetrack/internal/config"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/alexanderramin/phasetrack/internal/progress"
	"github.com/alexanderramin/phasetrack/internal/repository"
	"github.com/alexanderramin/phasetrack/internal/service"
	"github.com/alexanderramin/phasetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)

	cfg := config.DefaultConfig()
	cfg.Home = t.TempDir()
	cfg.Display.BarWidth = 10

	return &App{
		Progress: service.NewProgressService(
			progress.NewEngine(progress.WithClock(testutil.StepClock())),
			repository.NewSQLiteSnapshotRepo(database),
			repository.NewSQLiteTaskEventRepo(database),
			testutil.NewTestUoW(database),
		),
		Config: cfg,
		Now:    func() time.Time { return testutil.BaseTime.Add(time.Hour) },
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustExec(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, out)
	return out
}

func TestInitAndList(t *testing.T) {
	app := testApp(t)

	out := mustExec(t, app, "init", "thesis")
	assert.Contains(t, out, "Created study")
	assert.Contains(t, out, "Discover")

	_, err := executeCmd(t, app, "init", "thesis")
	assert.ErrorIs(t, err, domain.ErrStudyExists)

	out = mustExec(t, app, "list")
	assert.Contains(t, out, "thesis")
	assert.Contains(t, out, "STUDY")
}

func TestList_Empty(t *testing.T) {
	out := mustExec(t, testApp(t), "ls")
	assert.Contains(t, out, "No studies yet")
}

func TestStatus(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "task", "done", "thesis", "discover", "lit-search", "refs-import", "gaps-analysis")

	out := mustExec(t, app, "status", "thesis")
	assert.Contains(t, out, "thesis")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "Design ★")
	assert.Contains(t, out, "✔ complete")

	out = mustExec(t, app, "status", "thesis", "--phase", "design")
	assert.Contains(t, out, "research-question")
	assert.Contains(t, out, "Required tasks incomplete")

	_, err := executeCmd(t, app, "status", "thesis", "--phase", "nonsense")
	assert.Error(t, err)

	_, err = executeCmd(t, app, "status", "missing")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
}

func TestTaskDoneAndUndo(t *testing.T) {
	app := testApp(t)

	out := mustExec(t, app, "task", "done", "thesis", "discover", "lit-search")
	assert.Contains(t, out, "discover/lit-search")
	assert.Contains(t, out, "40%")

	out = mustExec(t, app, "task", "undo", "thesis", "discover", "lit-search")
	assert.Contains(t, out, "0%")

	_, err := executeCmd(t, app, "task", "done", "thesis", "discover", "nope")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = executeCmd(t, app, "task", "done", "thesis", "bogus", "lit-search")
	assert.ErrorIs(t, err, domain.ErrPhaseNotFound)

	_, err = executeCmd(t, app, "task", "done", "thesis", "discover")
	assert.Error(t, err, "needs at least one task id")
}

func TestTaskPick_RequiresTerminal(t *testing.T) {
	_, err := executeCmd(t, testApp(t), "task", "pick", "thesis", "discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestApplyPicked(t *testing.T) {
	app := testApp(t)
	ctx := context.Background()
	mustExec(t, app, "task", "done", "thesis", "discover", "lit-search", "framework")

	tasks, err := currentTasks(ctx, app, "thesis", domain.PhaseDiscover)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := applyPicked(ctx, &buf, app, "thesis", domain.PhaseDiscover, tasks, []string{"lit-search", "refs-import"})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "refs-import added, framework removed")

	status, err := app.Progress.Status(ctx, "thesis")
	require.NoError(t, err)
	discover := status.Phase(domain.PhaseDiscover)
	assert.Equal(t, 2, discover.TasksDone)
	assert.Equal(t, 67, discover.Progress)
}

func TestCurrentTasks_UnknownStudyUsesTemplate(t *testing.T) {
	tasks, err := currentTasks(context.Background(), testApp(t), "new", domain.PhaseDesign)
	require.NoError(t, err)
	assert.Len(t, tasks, len(domain.PhaseTaskTemplates[domain.PhaseDesign]))
}

func TestPhaseCommands(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "task", "done", "thesis", "discover", "lit-search", "refs-import", "gaps-analysis")
	mustExec(t, app, "task", "done", "thesis", "design", "research-question")

	out := mustExec(t, app, "phase", "available", "thesis")
	assert.Contains(t, out, "discover")
	assert.Contains(t, out, "design")
	assert.NotContains(t, out, "build")

	out = mustExec(t, app, "phase", "blockers", "thesis", "build")
	assert.Contains(t, out, "Complete design phase first (currently 28%)")
	assert.Contains(t, out, "Required tasks incomplete: Study setup, Sorting instructions, Consent form")

	out = mustExec(t, app, "phase", "blockers", "thesis", "discover")
	assert.Contains(t, out, "No blockers")

	out = mustExec(t, app, "phase", "current", "thesis", "design")
	assert.Contains(t, out, "Design")

	out = mustExec(t, app, "phase", "reset", "thesis", "design")
	assert.Contains(t, out, "0%")

	status, err := app.Progress.Status(context.Background(), "thesis")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDesign, status.CurrentPhase)
	assert.Equal(t, 0, status.Phase(domain.PhaseDesign).Progress)
}

func TestExportImport(t *testing.T) {
	src := testApp(t)
	mustExec(t, src, "task", "done", "thesis", "discover", "lit-search")

	out := mustExec(t, src, "export", "thesis", "--pretty")
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "thesis", doc["studyId"])

	path := filepath.Join(t.TempDir(), "thesis.json")
	mustExec(t, src, "export", "thesis", "-o", path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	dst := testApp(t)
	out = mustExec(t, dst, "import", path)
	assert.Contains(t, out, "Imported")
	assert.Contains(t, out, "4%")
	assert.NotContains(t, out, "Reset to defaults")

	status, err := dst.Progress.Status(context.Background(), "thesis")
	require.NoError(t, err)
	assert.Equal(t, 40, status.Phase(domain.PhaseDiscover).Progress)
}

func TestImport_FromStdinPartial(t *testing.T) {
	app := testApp(t)
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(`{"studyId":"s1","phases":[{"phase":"discover","progress":100},{"phase":"nope"}]}`))
	root.SetArgs([]string{"import", "-"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "Reset to defaults")
	assert.Contains(t, out, "phases[1].phase")
}

func TestImport_Strict(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"studyId":"s1","phases":[{"phase":"discover","progress":100}]}`), 0o644))

	_, err := executeCmd(t, app, "import", "--strict", path)
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)

	_, err = app.Progress.Status(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
}

func TestImport_Malformed(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"phases": []}`), 0o644))

	_, err := executeCmd(t, app, "import", path)
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
}

func TestHistory(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "task", "done", "thesis", "discover", "lit-search")
	mustExec(t, app, "task", "undo", "thesis", "discover", "lit-search")

	out := mustExec(t, app, "history", "thesis")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "undo")
	assert.Contains(t, out, "lit-search")

	out = mustExec(t, app, "history", "thesis", "-n", "1")
	assert.Contains(t, out, "undo")
	assert.Equal(t, 1, strings.Count(out, "lit-search"))
}

func TestRemove(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "init", "thesis")

	_, err := executeCmd(t, app, "rm", "thesis")
	require.Error(t, err, "non-interactive delete needs --force")

	out := mustExec(t, app, "rm", "thesis", "--force")
	assert.Contains(t, out, "Deleted")

	_, err = executeCmd(t, app, "rm", "thesis", "-f")
	assert.ErrorIs(t, err, domain.ErrStudyNotFound)
}

func TestTemplates(t *testing.T) {
	out := mustExec(t, testApp(t), "templates")
	assert.Contains(t, out, "lit-search")
	assert.Contains(t, out, "depends on: analyze, visualize")

	out = mustExec(t, testApp(t), "templates", "--yaml")
	var docs []phaseTemplateDoc
	require.NoError(t, yaml.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, len(domain.AllPhases))
	assert.Equal(t, "interpret", docs[7].Phase)
	assert.Equal(t, []string{"analyze", "visualize"}, docs[7].DependsOn)
	assert.Equal(t, "lit-search", docs[0].Tasks[0].ID)
}

func TestConfigCommands(t *testing.T) {
	app := testApp(t)

	out := mustExec(t, app, "config", "show")
	assert.Contains(t, out, "[storage]")
	assert.Contains(t, out, "bar_width = 10")

	out = mustExec(t, app, "config", "init")
	assert.Contains(t, out, config.FileName)
	_, err := os.Stat(filepath.Join(app.Config.Home, config.FileName))
	require.NoError(t, err)

	_, err = executeCmd(t, app, "config", "init")
	assert.Error(t, err)
	mustExec(t, app, "config", "init", "--force")
}

func TestDashboard_RequiresTerminal(t *testing.T) {
	_, err := executeCmd(t, testApp(t), "dashboard", "thesis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestPhaseValue(t *testing.T) {
	var ph domain.ResearchPhase
	v := newPhaseValue(&ph)
	require.NoError(t, v.Set(" Analyze "))
	assert.Equal(t, domain.PhaseAnalyze, ph)
	assert.Equal(t, "analyze", v.String())
	assert.Equal(t, "phase", v.Type())
	assert.ErrorIs(t, v.Set("nope"), domain.ErrPhaseNotFound)
}
