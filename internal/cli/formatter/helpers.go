package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/phasetrack/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(0, 2)

	if title != "" {
		return box.Render(StyleHeader.Render(title) + "\n\n" + content)
	}
	return box.Render(content)
}

// Timestamp renders t relative to now for recent times and as a date
// otherwise. A nil time renders as "--".
func Timestamp(t *time.Time, now time.Time) string {
	if t == nil {
		return Dim("--")
	}
	diff := now.Sub(*t)
	switch {
	case diff < 0:
		return t.Local().Format("2006-01-02 15:04")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Local().Format("2006-01-02")
	}
}

// PhaseName renders a phase label, marking the current and recommended
// phases.
func PhaseName(ph domain.ResearchPhase, current bool, next bool) string {
	var marks []string
	if current {
		marks = append(marks, StylePurple.Render("▸"))
	} else {
		marks = append(marks, " ")
	}
	name := lipgloss.NewStyle().Foreground(PhaseColor(ph)).Render(ph.Label())
	if next {
		name += StyleYellow.Render(" ★")
	}
	return strings.Join(append(marks, name), " ")
}

// TaskCheck renders a checkbox for a task, with an asterisk on required ones.
func TaskCheck(completed, required bool) string {
	box := StyleDim.Render("[ ]")
	if completed {
		box = StyleGreen.Render("[x]")
	}
	if required {
		return box + StyleRed.Render("*")
	}
	return box + " "
}
