// Package teatest drives bubbletea models in tests without a tea.Program.
//
// Update is called directly and every returned Cmd is run inline, so a
// model that loads data through Cmds settles before Send returns.
package teatest

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// maxDepth bounds Cmd chains such as load, reload, reload.
const maxDepth = 32

// Driver holds a model and feeds it messages.
type Driver struct {
	t     *testing.T
	Model tea.Model

	// Quitting is set once a Cmd produces tea.QuitMsg. Later sends are
	// ignored, like a finished program.
	Quitting bool
}

// New wraps model. Call Start to run its Init command.
func New(t *testing.T, model tea.Model) *Driver {
	t.Helper()
	return &Driver{t: t, Model: model}
}

// Start runs Init and settles the model.
func (d *Driver) Start() *Driver {
	d.t.Helper()
	d.run(d.Model.Init(), 0)
	return d
}

// Send dispatches msg and settles the model.
func (d *Driver) Send(msg tea.Msg) {
	d.t.Helper()
	if d.Quitting {
		return
	}
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.run(cmd, 0)
}

// Press sends each key in order. Named keys ("enter", "esc", "up",
// "down", "space") map to their key types; anything else is sent as runes.
func (d *Driver) Press(keys ...string) {
	d.t.Helper()
	for _, k := range keys {
		d.Send(KeyMsg(k))
	}
}

// View renders the current model.
func (d *Driver) View() string {
	return d.Model.View()
}

// KeyMsg builds the tea.KeyMsg for a key name as used by Press.
func KeyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (d *Driver) run(cmd tea.Cmd, depth int) {
	d.t.Helper()
	if cmd == nil {
		return
	}
	if depth >= maxDepth {
		d.t.Fatalf("teatest: command chain deeper than %d", maxDepth)
	}

	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			d.run(c, depth+1)
		}
	case tea.QuitMsg:
		d.Quitting = true
	default:
		var next tea.Cmd
		d.Model, next = d.Model.Update(msg)
		d.run(next, depth+1)
	}
}
