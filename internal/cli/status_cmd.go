package cli

import (
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	var phase domain.ResearchPhase

	cmd := &cobra.Command{
		Use:   "status <study-id>",
		Short: "Show phase progress for a study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Progress.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if phase == "" {
				fmt.Fprint(out, formatter.FormatStudyStatus(resp, app.barWidth(), app.now()))
				return nil
			}
			sum := resp.Phase(phase)
			if sum == nil {
				return &domain.PhaseNotFoundError{Phase: string(phase)}
			}
			fmt.Fprint(out, formatter.FormatPhaseDetail(sum, app.barWidth(), app.now()))
			return nil
		},
	}

	phaseFlag(cmd, &phase, "Show tasks of a single phase")
	return cmd
}
