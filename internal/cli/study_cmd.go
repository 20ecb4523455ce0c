package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init <study-id>",
		Short: "Start tracking a new study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Progress.InitStudy(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created study %s. Start with the %s phase.\n",
				formatter.Bold(resp.StudyID), resp.CurrentPhase.Label())
			return nil
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked studies",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			studies, err := app.Progress.ListStudies(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStudyList(studies, app.barWidth(), app.now()))
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <study-id>",
		Short: "Delete a study and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studyID := args[0]
			if !force {
				if !app.Interactive {
					return errors.New("refusing to delete without --force in a non-interactive session")
				}
				confirmed := false
				form := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete study %q and all of its history?", studyID)).
						Affirmative("Delete").
						Negative("Cancel").
						Value(&confirmed),
				)).WithTheme(huhTheme()).WithShowHelp(false)
				if err := form.Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			if err := app.Progress.DeleteStudy(cmd.Context(), studyID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted study %s.\n", studyID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without confirmation")
	return cmd
}
