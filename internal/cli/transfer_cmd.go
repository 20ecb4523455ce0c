package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/alexanderramin/phasetrack/internal/snapshot"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var output string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "export <study-id>",
		Short: "Write a study's progress snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := app.Progress.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, data, "", "  "); err != nil {
					return fmt.Errorf("formatting snapshot: %w", err)
				}
				data = buf.Bytes()
			}
			data = append(data, '\n')

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", args[0], output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore a study from a progress snapshot",
		Long: `Restore a study from a JSON snapshot produced by export. Phase entries
that are missing or invalid are reset to their defaults and reported;
use --strict to refuse such snapshots instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading snapshot: %w", err)
			}

			if strict {
				if err := requireComplete(data); err != nil {
					return err
				}
			}

			report, err := app.Progress.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatImportReport(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail instead of resetting invalid phases")
	return cmd
}

// requireComplete rejects snapshots that would import only partially.
func requireComplete(data []byte) error {
	dec, err := snapshot.Decode(data)
	if err != nil {
		return err
	}
	if len(dec.Rejected) == 0 && len(dec.Records) == len(domain.AllPhases) {
		return nil
	}
	errs := []error{&domain.MalformedSnapshotError{
		Reason: fmt.Sprintf("%d of %d phases restorable", len(dec.Records), len(domain.AllPhases)),
	}}
	for _, rej := range dec.Rejected {
		errs = append(errs, rej.Errs...)
	}
	return errors.Join(errs...)
}
