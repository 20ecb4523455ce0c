package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/phasetrack/internal/contract"
	"github.com/alexanderramin/phasetrack/internal/domain"
)

// FormatStudyStatus renders the overview box and one row per phase.
func FormatStudyStatus(resp *contract.StudyStatusResponse, barWidth int, now time.Time) string {
	var b strings.Builder

	next := Dim("all phases complete")
	if resp.NextRecommendedPhase != nil {
		next = StyleYellow.Render(resp.NextRecommendedPhase.Label())
	}
	summary := strings.Join([]string{
		"Overall   " + RenderProgress(resp.OverallProgress, barWidth),
		"Current   " + StylePurple.Render(resp.CurrentPhase.Label()),
		"Next      " + next,
		"Updated   " + Timestamp(&resp.UpdatedAt, now),
	}, "\n")
	b.WriteString(RenderBox(resp.StudyID, summary))
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(resp.Phases))
	for _, p := range resp.Phases {
		isNext := resp.NextRecommendedPhase != nil && *resp.NextRecommendedPhase == p.Phase
		rows = append(rows, []string{
			PhaseName(p.Phase, p.Phase == resp.CurrentPhase, isNext),
			RenderProgress(p.Progress, barWidth),
			fmt.Sprintf("%d/%d", p.TasksDone, p.TasksTotal),
			fmt.Sprintf("%d/%d", p.RequiredDone, p.RequiredTotal),
			PhaseState(p.Complete, p.Unlocked),
			Timestamp(p.LastActivity, now),
		})
	}
	b.WriteString(RenderTable([]string{"PHASE", "PROGRESS", "TASKS", "REQUIRED", "STATE", "ACTIVITY"}, rows))
	return b.String()
}

// FormatPhaseDetail renders one phase's tasks and blockers.
func FormatPhaseDetail(p *contract.PhaseSummary, barWidth int, now time.Time) string {
	var b strings.Builder
	b.WriteString(Header(p.Label))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s\n", RenderProgress(p.Progress, barWidth), PhaseState(p.Complete, p.Unlocked))
	fmt.Fprintf(&b, "Started %s · Completed %s · Last activity %s\n\n",
		Timestamp(p.StartedAt, now), Timestamp(p.CompletedAt, now), Timestamp(p.LastActivity, now))

	for _, t := range p.Tasks {
		fmt.Fprintf(&b, "%s %-22s %s  %s\n", TaskCheck(t.Completed, t.Required), t.ID, t.Label, Dim(fmt.Sprintf("(%.2f)", t.Weight)))
	}
	if len(p.Blockers) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatBlockers(p.Phase, p.Blockers))
	}
	b.WriteString(Dim("\n* required\n"))
	return b.String()
}

func FormatBlockers(phase domain.ResearchPhase, blockers []string) string {
	if len(blockers) == 0 {
		return StyleGreen.Render(fmt.Sprintf("No blockers for %s.", phase.Label())) + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Bold("Blockers for "+phase.Label()+":"))
	for _, bl := range blockers {
		fmt.Fprintf(&b, "  %s %s\n", StyleRed.Render("✖"), bl)
	}
	return b.String()
}

func FormatAvailable(phases []domain.ResearchPhase) string {
	if len(phases) == 0 {
		return Dim("No phases available.") + "\n"
	}
	var b strings.Builder
	for _, ph := range phases {
		fmt.Fprintf(&b, "%s %-10s %s\n", StyleBlue.Render("●"), string(ph), Dim(ph.Label()))
	}
	return b.String()
}

func FormatStudyList(studies []contract.StudySummary, barWidth int, now time.Time) string {
	if len(studies) == 0 {
		return Dim("No studies yet. Create one with: phasetrack init <study-id>") + "\n"
	}
	rows := make([][]string, 0, len(studies))
	for _, s := range studies {
		rows = append(rows, []string{
			Bold(s.StudyID),
			RenderProgress(s.OverallProgress, barWidth),
			s.CurrentPhase.Label(),
			Timestamp(&s.UpdatedAt, now),
		})
	}
	return RenderTable([]string{"STUDY", "OVERALL", "CURRENT", "UPDATED"}, rows)
}

func FormatHistory(events []*domain.TaskEvent, now time.Time) string {
	if len(events) == 0 {
		return Dim("No task changes recorded.") + "\n"
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		action := StyleGreen.Render("done")
		if !ev.Completed {
			action = StyleYellow.Render("undo")
		}
		at := ev.OccurredAt
		rows = append(rows, []string{
			Timestamp(&at, now),
			action,
			ev.Phase.Label(),
			ev.TaskID,
			strconv.Itoa(ev.PhaseProgress) + "%",
			strconv.Itoa(ev.OverallProgress) + "%",
		})
	}
	return RenderTable([]string{"WHEN", "ACTION", "PHASE", "TASK", "PHASE %", "OVERALL %"}, rows)
}

// FormatTemplates lists every phase's task template and dependencies.
func FormatTemplates() string {
	var b strings.Builder
	for i, ph := range domain.AllPhases {
		if i > 0 {
			b.WriteString("\n")
		}
		deps := Dim("none")
		if d := domain.PhaseDependencies[ph]; len(d) > 0 {
			names := make([]string, len(d))
			for j, dep := range d {
				names[j] = string(dep)
			}
			deps = strings.Join(names, ", ")
		}
		fmt.Fprintf(&b, "%s %s\n", Header(ph.Label()), Dim("depends on: ")+deps)

		rows := make([][]string, 0, len(domain.PhaseTaskTemplates[ph]))
		for _, t := range domain.PhaseTaskTemplates[ph] {
			req := ""
			if t.Required {
				req = StyleRed.Render("yes")
			}
			rows = append(rows, []string{t.ID, t.Label, req, fmt.Sprintf("%.2f", t.Weight)})
		}
		b.WriteString(RenderTable([]string{"ID", "LABEL", "REQUIRED", "WEIGHT"}, rows))
	}
	return b.String()
}

func FormatImportReport(r *contract.ImportReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %s (overall %d%%)\n", Bold(r.StudyID), r.OverallProgress)
	if !r.Partial() {
		return b.String()
	}
	names := make([]string, len(r.DefaultedPhases))
	for i, ph := range r.DefaultedPhases {
		names[i] = string(ph)
	}
	fmt.Fprintf(&b, "%s %s\n", StyleYellow.Render("Reset to defaults:"), strings.Join(names, ", "))
	for _, msg := range r.Rejections {
		fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render("!"), msg)
	}
	return b.String()
}
