package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Mark phase tasks done or not done",
	}
	cmd.AddCommand(
		newTaskSetCmd(app, "done", "Mark tasks complete", true),
		newTaskSetCmd(app, "undo", "Mark tasks incomplete", false),
		newTaskPickCmd(app),
	)
	return cmd
}

func newTaskSetCmd(app *App, use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <study-id> <phase> <task-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(3),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 1:
				return completePhases(cmd, args, toComplete)
			case 0:
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			ph, err := parsePhaseArg(args[1])
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			ids := make([]string, 0, len(domain.PhaseTaskTemplates[ph]))
			for _, t := range domain.PhaseTaskTemplates[ph] {
				ids = append(ids, t.ID)
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := parsePhaseArg(args[1])
			if err != nil {
				return err
			}
			for _, taskID := range args[2:] {
				if err := setTask(cmd.Context(), cmd.OutOrStdout(), app, args[0], phase, taskID, completed); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func setTask(ctx context.Context, out io.Writer, app *App, studyID string, phase domain.ResearchPhase, taskID string, completed bool) error {
	pp, err := app.Progress.UpdateTask(ctx, studyID, phase, taskID, completed)
	if err != nil {
		return err
	}
	mark := formatter.StyleGreen.Render("✔")
	if !completed {
		mark = formatter.StyleYellow.Render("↺")
	}
	fmt.Fprintf(out, "%s %s/%s  %s\n", mark, phase, taskID, formatter.RenderProgress(pp.Progress, app.barWidth()))
	return nil
}

func newTaskPickCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pick <study-id> <phase>",
		Short: "Choose completed tasks interactively",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Interactive {
				return errors.New("task pick needs an interactive terminal; use task done/undo instead")
			}
			studyID := args[0]
			phase, err := parsePhaseArg(args[1])
			if err != nil {
				return err
			}

			tasks, err := currentTasks(cmd.Context(), app, studyID, phase)
			if err != nil {
				return err
			}
			var selected []string
			if err := pickTasksForm(phase, tasks, &selected).Run(); err != nil {
				return err
			}
			n, err := applyPicked(cmd.Context(), cmd.OutOrStdout(), app, studyID, phase, tasks, selected)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No changes."))
			}
			return nil
		},
	}
}

// currentTasks returns the stored tasks of a phase, or the template tasks
// when the study does not exist yet.
func currentTasks(ctx context.Context, app *App, studyID string, phase domain.ResearchPhase) ([]domain.PhaseTask, error) {
	resp, err := app.Progress.Status(ctx, studyID)
	if errors.Is(err, domain.ErrStudyNotFound) {
		return domain.NewPhaseProgress(phase).Tasks, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Phase(phase).Tasks, nil
}

// applyPicked updates every task whose completion differs from selected and
// returns the number of updates.
func applyPicked(ctx context.Context, out io.Writer, app *App, studyID string, phase domain.ResearchPhase, tasks []domain.PhaseTask, selected []string) (int, error) {
	changed := 0
	for _, t := range tasks {
		want := slices.Contains(selected, t.ID)
		if want == t.Completed {
			continue
		}
		if err := setTask(ctx, out, app, studyID, phase, t.ID, want); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
