package cli

import (
	"fmt"

	"github.com/alexanderramin/phasetrack/internal/cli/formatter"
	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type phaseTemplateDoc struct {
	Phase     string                `yaml:"phase"`
	Label     string                `yaml:"label"`
	DependsOn []string              `yaml:"depends_on"`
	Tasks     []domain.TaskTemplate `yaml:"tasks"`
}

func templateDocs() []phaseTemplateDoc {
	docs := make([]phaseTemplateDoc, 0, len(domain.AllPhases))
	for _, ph := range domain.AllPhases {
		deps := make([]string, 0, len(domain.PhaseDependencies[ph]))
		for _, d := range domain.PhaseDependencies[ph] {
			deps = append(deps, string(d))
		}
		docs = append(docs, phaseTemplateDoc{
			Phase:     string(ph),
			Label:     ph.Label(),
			DependsOn: deps,
			Tasks:     domain.PhaseTaskTemplates[ph],
		})
	}
	return docs
}

func newTemplatesCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the task templates and dependencies of every phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !asYAML {
				fmt.Fprint(out, formatter.FormatTemplates())
				return nil
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(templateDocs()); err != nil {
				return fmt.Errorf("encoding templates: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	return cmd
}
