package cli

import (
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <study-id>",
		Short: "Show recent task changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = app.Config.History.Limit
			}
			events, err := app.Progress.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(events, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of changes to show, 0 for all (default from config)")
	return cmd
}
