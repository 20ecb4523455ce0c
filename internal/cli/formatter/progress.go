package formatter

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
)

// RenderProgress renders a static bar followed by the percentage, e.g.
// "████░░░░░░  40%". pct is clamped to 0..100 and width to at least 2.
func RenderProgress(pct, width int) string {
	pct = clampPct(pct)
	if width < 2 {
		width = 2
	}
	bar := progress.New(
		progress.WithSolidFill(string(ProgressColor(pct))),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return fmt.Sprintf("%s %3d%%", bar.ViewAs(float64(pct)/100), pct)
}

func clampPct(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
