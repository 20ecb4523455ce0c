package cli

import (
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/charmbracelet/huh"
)

// huhTheme is huh's Catppuccin theme with checkbox prefixes that match the
// status views.
func huhTheme() *huh.Theme {
	t := huh.ThemeCatppuccin()
	t.Focused.SelectedPrefix = t.Focused.SelectedPrefix.SetString("[x] ")
	t.Focused.UnselectedPrefix = t.Focused.UnselectedPrefix.SetString("[ ] ")
	t.Focused.Title = t.Focused.Title.Foreground(formatter.ColorPeach)
	return t
}

// pickTasksForm builds a multi-select over the phase's tasks, preselecting
// the completed ones. Required tasks are suffixed with an asterisk.
func pickTasksForm(phase domain.ResearchPhase, tasks []domain.PhaseTask, selected *[]string) *huh.Form {
	options := make([]huh.Option[string], 0, len(tasks))
	for _, t := range tasks {
		label := t.Label
		if t.Required {
			label += " *"
		}
		options = append(options, huh.NewOption(label, t.ID).Selected(t.Completed))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(fmt.Sprintf("%s tasks", phase.Label())).
				Description("space toggles, enter saves (* required)").
				Options(options...).
				Value(selected),
		),
	).WithTheme(huhTheme()).WithShowHelp(false)
}
