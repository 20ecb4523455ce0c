package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/alexanderramin/phasetrack/internal/contract"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type dashboardKeys struct {
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Toggle key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func newDashboardKeys() dashboardKeys {
	return dashboardKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:   key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open phase")),
		Toggle: key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space", "toggle task")),
		Back:   key.NewBinding(key.WithKeys("esc", "h"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k dashboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Toggle, k.Back, k.Quit}
}

func (k dashboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type statusLoadedMsg struct {
	status *contract.StudyStatusResponse
	err    error
}

type taskToggledMsg struct {
	err error
}

// dashboardModel browses a study's phases and toggles tasks in place.
type dashboardModel struct {
	app     *App
	studyID string
	keys    dashboardKeys
	help    help.Model

	status     *contract.StudyStatusResponse
	err        error
	phaseIdx   int
	taskIdx    int
	inPhase    bool
	pending    bool
	lastAction string
}

func newDashboardModel(app *App, studyID string) *dashboardModel {
	return &dashboardModel{
		app:     app,
		studyID: studyID,
		keys:    newDashboardKeys(),
		help:    help.New(),
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return m.load()
}

func (m *dashboardModel) load() tea.Cmd {
	app, id := m.app, m.studyID
	return func() tea.Msg {
		status, err := app.Progress.Status(context.Background(), id)
		return statusLoadedMsg{status: status, err: err}
	}
}

func (m *dashboardModel) toggle() tea.Cmd {
	phase := m.status.Phases[m.phaseIdx]
	task := phase.Tasks[m.taskIdx]
	app, id := m.app, m.studyID
	m.pending = true
	m.lastAction = fmt.Sprintf("%s/%s", phase.Phase, task.ID)
	return func() tea.Msg {
		_, err := app.Progress.UpdateTask(context.Background(), id, phase.Phase, task.ID, !task.Completed)
		return taskToggledMsg{err: err}
	}
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusLoadedMsg:
		m.pending = false
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		return m, nil

	case taskToggledMsg:
		if msg.err != nil {
			m.pending = false
			m.err = msg.err
			return m, nil
		}
		return m, m.load()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.status == nil || m.pending {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.inPhase {
			m.taskIdx = max(0, m.taskIdx-1)
		} else {
			m.phaseIdx = max(0, m.phaseIdx-1)
		}
	case key.Matches(msg, m.keys.Down):
		if m.inPhase {
			m.taskIdx = min(len(m.status.Phases[m.phaseIdx].Tasks)-1, m.taskIdx+1)
		} else {
			m.phaseIdx = min(len(m.status.Phases)-1, m.phaseIdx+1)
		}
	case key.Matches(msg, m.keys.Open):
		if !m.inPhase && len(m.status.Phases[m.phaseIdx].Tasks) > 0 {
			m.inPhase = true
			m.taskIdx = 0
		}
	case key.Matches(msg, m.keys.Back):
		m.inPhase = false
	case key.Matches(msg, m.keys.Toggle):
		if m.inPhase {
			return m, m.toggle()
		}
	}
	return m, nil
}

func (m *dashboardModel) View() string {
	if m.status == nil {
		if m.err != nil {
			return formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n"
		}
		return formatter.Dim("Loading…") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", formatter.Bold(m.status.StudyID), formatter.RenderProgress(m.status.OverallProgress, m.app.barWidth()))

	for i, p := range m.status.Phases {
		cursor := "  "
		if i == m.phaseIdx {
			cursor = formatter.StyleHeader.Render("› ")
		}
		isNext := m.status.NextRecommendedPhase != nil && *m.status.NextRecommendedPhase == p.Phase
		fmt.Fprintf(&b, "%s%-22s %s  %s\n", cursor,
			formatter.PhaseName(p.Phase, p.Phase == m.status.CurrentPhase, isNext),
			formatter.RenderProgress(p.Progress, m.app.barWidth()),
			formatter.PhaseState(p.Complete, p.Unlocked))

		if m.inPhase && i == m.phaseIdx {
			for j, t := range p.Tasks {
				tc := "    "
				if j == m.taskIdx {
					tc = formatter.StyleHeader.Render("  › ")
				}
				fmt.Fprintf(&b, "%s%s %s\n", tc, formatter.TaskCheck(t.Completed, t.Required), t.Label)
			}
			for _, bl := range p.Blockers {
				fmt.Fprintf(&b, "      %s %s\n", formatter.StyleRed.Render("✖"), formatter.Dim(bl))
			}
		}
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", formatter.StyleRed.Render("Error: "+m.err.Error()))
	} else if m.pending {
		fmt.Fprintf(&b, "\n%s\n", formatter.Dim("Saving "+m.lastAction+"…"))
	}
	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard <study-id>",
		Short: "Browse phases and toggle tasks in a full-screen view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Interactive {
				return errors.New("dashboard needs an interactive terminal; use status instead")
			}
			if _, err := app.Progress.Status(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := tea.NewProgram(newDashboardModel(app, args[0]), tea.WithAltScreen()).Run()
			return err
		},
	}
}
