package cli

import (
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newPhaseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Inspect and manage research phases",
	}
	cmd.AddCommand(
		newPhaseAvailableCmd(app),
		newPhaseBlockersCmd(app),
		newPhaseCurrentCmd(app),
		newPhaseResetCmd(app),
	)
	return cmd
}

func newPhaseAvailableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "available <study-id>",
		Short: "List phases whose prerequisites are at least half done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phases, err := app.Progress.AvailablePhases(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAvailable(phases))
			return nil
		},
	}
}

func newPhaseBlockersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:               "blockers <study-id> <phase>",
		Short:             "Explain what keeps a phase from being ready",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeSecondArgPhase,
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := parsePhaseArg(args[1])
			if err != nil {
				return err
			}
			blockers, err := app.Progress.Blockers(cmd.Context(), args[0], phase)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBlockers(phase, blockers))
			return nil
		},
	}
}

func newPhaseCurrentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:               "current <study-id> <phase>",
		Short:             "Set the phase the study is working in",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeSecondArgPhase,
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := parsePhaseArg(args[1])
			if err != nil {
				return err
			}
			if err := app.Progress.SetCurrentPhase(cmd.Context(), args[0], phase); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current phase of %s is now %s.\n", args[0], phase.Label())
			return nil
		},
	}
}

func newPhaseResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:               "reset <study-id> <phase>",
		Short:             "Clear all task progress of a phase",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeSecondArgPhase,
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := parsePhaseArg(args[1])
			if err != nil {
				return err
			}
			pp, err := app.Progress.ResetPhase(cmd.Context(), args[0], phase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s  %s\n", phase.Label(), formatter.RenderProgress(pp.Progress, app.barWidth()))
			return nil
		},
	}
}

func completeSecondArgPhase(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		return completePhases(cmd, args, toComplete)
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
