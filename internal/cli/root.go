package cli

import (
	"time"

	"github.com/alexanderramin/phasetrack/internal/config"
	"github.com/alexanderramin/phasetrack/internal/service"
	"github.com/spf13/cobra"
)

// App holds what CLI commands need: the progress service and resolved
// settings.
type App struct {
	Progress service.ProgressService
	Config   config.Config
	// Interactive reports whether prompts and the dashboard may take over
	// the terminal.
	Interactive bool
	Now         func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) barWidth() int {
	if a.Config.Display.BarWidth > 0 {
		return a.Config.Display.BarWidth
	}
	return 20
}

// NewRootCmd creates the top-level "phasetrack" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "phasetrack",
		Short:         "Track Q-methodology study progress across research phases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCmd(app),
		newListCmd(app),
		newRemoveCmd(app),
		newStatusCmd(app),
		newTaskCmd(app),
		newPhaseCmd(app),
		newExportCmd(app),
		newImportCmd(app),
		newHistoryCmd(app),
		newTemplatesCmd(),
		newConfigCmd(app),
		newDashboardCmd(app),
	)

	return root
}
