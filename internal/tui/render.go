package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/handoffdev/handoff/pkg/models"
)

// View renders the dashboard.
func (a *WatchApp) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder

	title := titleStyle.Render("handoff")
	subtitle := subtitleStyle.Render("delegation dashboard")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", subtitle))
	b.WriteString("\n")

	if a.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("error: %v", a.err)))
		b.WriteString("\n")
		b.WriteString(footerStyle.Render("r refresh · q quit"))
		return b.String()
	}

	if a.report == nil {
		b.WriteString(a.spinner.View())
		b.WriteString(" loading state...")
		return b.String()
	}

	r := a.report

	b.WriteString(sectionStyle.Render("Session"))
	b.WriteString("\n")
	b.WriteString(renderField("State", a.renderMachineState(r.MachineState)))
	b.WriteString(renderField("Delegations", fmt.Sprintf("%d (%d left this session)",
		r.TotalDelegations, r.SessionRemaining)))
	b.WriteString(renderField("Completed / Failed", fmt.Sprintf("%d / %d (%.0f%% success)",
		r.CompletedCount, r.FailedCount, r.SuccessRate*100)))
	b.WriteString(renderField("Estimated savings", fmt.Sprintf("%d tokens", r.TotalSavings)))
	b.WriteString(renderField("Parallel slots", fmt.Sprintf("%d free", r.ParallelRemaining)))

	b.WriteString(renderUnits("Queued", r.Queued))
	b.WriteString(renderUnits("Active", r.Active))
	b.WriteString(renderUnits("History", r.History))

	if eval := r.LastEvaluation; eval != nil {
		b.WriteString(sectionStyle.Render("Last evaluation"))
		b.WriteString("\n")
		verdict := "delegate"
		if !eval.ShouldDelegate {
			verdict = "hold"
		}
		b.WriteString(renderField("Verdict", fmt.Sprintf("%s (usage %.0f%%, threshold %.0f%%)",
			verdict, eval.UsageRatio*100, eval.Threshold*100)))
		for _, reason := range eval.Reasons {
			b.WriteString("    ")
			b.WriteString(reasonStyle.Render("· " + reason))
			b.WriteString("\n")
		}
	}

	b.WriteString(footerStyle.Render("r refresh · q quit"))
	return b.String()
}

func (a *WatchApp) renderMachineState(state models.MachineState) string {
	if state == models.StateIdle {
		return string(state)
	}
	return a.spinner.View() + string(state)
}

func renderField(label, value string) string {
	return fmt.Sprintf("  %s %s\n",
		labelStyle.Render(fmt.Sprintf("%-20s", label)),
		valueStyle.Render(value))
}

func renderUnits(section string, units []models.Unit) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", section, len(units))))
	b.WriteString("\n")

	if len(units) == 0 {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("none"))
		b.WriteString("\n")
		return b.String()
	}

	for _, u := range units {
		status := statusStyle(string(u.Status)).Render(fmt.Sprintf("%-9s", u.Status))
		line := fmt.Sprintf("  %s %s  p%-2d %-9s %s",
			status, u.ID, u.Priority, u.Category, truncate(u.SubItemText, 48))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
