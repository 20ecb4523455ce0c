package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/phasetrack/internal/domain"
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Colors come from the Catppuccin Mocha flavour, the same family huh's
// Catppuccin theme uses for prompts.
var (
	mocha = catppuccin.Mocha

	ColorGreen  = lipgloss.Color(mocha.Green().Hex)
	ColorYellow = lipgloss.Color(mocha.Yellow().Hex)
	ColorRed    = lipgloss.Color(mocha.Red().Hex)
	ColorBlue   = lipgloss.Color(mocha.Blue().Hex)
	ColorMauve  = lipgloss.Color(mocha.Mauve().Hex)
	ColorTeal   = lipgloss.Color(mocha.Teal().Hex)
	ColorPeach  = lipgloss.Color(mocha.Peach().Hex)
	ColorDim    = lipgloss.Color(mocha.Overlay1().Hex)
	ColorFg     = lipgloss.Color(mocha.Text().Hex)
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorMauve)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorPeach).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// stageColors groups the phases into the four stages of a Q study.
var stageColors = map[domain.ResearchPhase]lipgloss.Color{
	domain.PhaseDiscover:  ColorBlue,
	domain.PhaseDesign:    ColorBlue,
	domain.PhaseBuild:     ColorBlue,
	domain.PhaseRecruit:   ColorMauve,
	domain.PhaseCollect:   ColorMauve,
	domain.PhaseAnalyze:   ColorTeal,
	domain.PhaseVisualize: ColorTeal,
	domain.PhaseInterpret: ColorTeal,
	domain.PhaseReport:    ColorPeach,
	domain.PhaseArchive:   ColorPeach,
}

// PhaseColor returns the accent of the stage a phase belongs to.
func PhaseColor(ph domain.ResearchPhase) lipgloss.Color {
	if c, ok := stageColors[ph]; ok {
		return c
	}
	return ColorFg
}

// ProgressColor maps a percentage onto the completion thresholds: green once
// complete, yellow once it unlocks dependents, red below that.
func ProgressColor(pct int) lipgloss.Color {
	switch {
	case pct >= domain.CompleteThreshold:
		return ColorGreen
	case pct >= domain.UnlockThreshold:
		return ColorYellow
	default:
		return ColorRed
	}
}

func PhaseState(complete, unlocked bool) string {
	switch {
	case complete:
		return StyleGreen.Render("✔ complete")
	case unlocked:
		return StyleBlue.Render("● available")
	default:
		return StyleDim.Render("○ locked")
	}
}

// Header renders an uppercased title over a rule of the same width.
func Header(text string) string {
	title := strings.ToUpper(text)
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(title), StyleDim.Render(strings.Repeat("─", lipgloss.Width(title))))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
