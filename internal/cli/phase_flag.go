package cli

import (
	"strings"

	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// phaseValue is a pflag.Value that only accepts known phase names.
type phaseValue struct {
	phase *domain.ResearchPhase
}

var _ pflag.Value = (*phaseValue)(nil)

func newPhaseValue(p *domain.ResearchPhase) *phaseValue {
	return &phaseValue{phase: p}
}

func (v *phaseValue) String() string {
	if v.phase == nil {
		return ""
	}
	return string(*v.phase)
}

func (v *phaseValue) Set(s string) error {
	ph, err := domain.ParsePhase(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return err
	}
	*v.phase = ph
	return nil
}

func (v *phaseValue) Type() string {
	return "phase"
}

// phaseFlag registers a --phase flag with shell completion of phase names.
func phaseFlag(cmd *cobra.Command, p *domain.ResearchPhase, usage string) {
	cmd.Flags().VarP(newPhaseValue(p), "phase", "p", usage+" ("+strings.Join(domain.PhaseNames(), ", ")+")")
	_ = cmd.RegisterFlagCompletionFunc("phase", completePhases)
}

func completePhases(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return domain.PhaseNames(), cobra.ShellCompDirectiveNoFileComp
}

// parsePhaseArg parses a positional phase argument.
func parsePhaseArg(s string) (domain.ResearchPhase, error) {
	var ph domain.ResearchPhase
	if err := newPhaseValue(&ph).Set(s); err != nil {
		return "", err
	}
	return ph, nil
}
