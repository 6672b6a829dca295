package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current session state",
	Long: `Display the current state of the handoff session.

Shows:
  - Machine state and session counters
  - Queued, active, and recently finished units
  - Context meter usage
  - The active task`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := newEngineEnv()
	if err != nil {
		return err
	}
	defer env.close()

	report, err := env.engine.Status()
	if err != nil {
		return fmt.Errorf("read engine status: %w", err)
	}

	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("%s  %s\n", bold("Session"), cyan(report.MachineState))
	fmt.Printf("  started:     %s (%s ago)\n",
		report.SessionStart.Format(time.RFC3339),
		time.Since(report.SessionStart).Round(time.Second))
	fmt.Printf("  delegations: %d (%d left this session, %d parallel slots free)\n",
		report.TotalDelegations, report.SessionRemaining, report.ParallelRemaining)
	fmt.Printf("  outcomes:    %s / %s (%.0f%% success)\n",
		green(fmt.Sprintf("%d completed", report.CompletedCount)),
		red(fmt.Sprintf("%d failed", report.FailedCount)),
		report.SuccessRate*100)
	fmt.Printf("  savings:     ~%d tokens\n", report.TotalSavings)

	metrics := env.meter.Load()
	meterLine := fmt.Sprintf("%d / %d tokens (%.0f%%, %s)",
		metrics.EstimatedTokens, metrics.WindowSize,
		metrics.UsageRatio()*100, metrics.Status())
	if metrics.Status() != "ok" {
		meterLine = yellow(meterLine)
	}
	fmt.Printf("\n%s  %s\n", bold("Context"), meterLine)

	task, err := env.db.ActiveTask()
	if err != nil {
		return fmt.Errorf("get active task: %w", err)
	}
	fmt.Printf("\n%s  ", bold("Active task"))
	if task == nil {
		fmt.Println("none")
	} else {
		fmt.Printf("%s (%s), %d pending sub-items\n",
			task.Name, task.ID, len(task.PendingSubItems()))
	}

	printUnitSection(bold("Queued"), report.Queued)
	printUnitSection(bold("Active"), report.Active)
	printUnitSection(bold("History"), report.History)

	if eval := report.LastEvaluation; eval != nil {
		verdict := green("delegate")
		if !eval.ShouldDelegate {
			verdict = yellow("hold")
		}
		fmt.Printf("\n%s  %s (usage %.0f%%, threshold %.0f%%)\n",
			bold("Last evaluation"), verdict, eval.UsageRatio*100, eval.Threshold*100)
		for _, reason := range eval.Reasons {
			fmt.Printf("  - %s\n", reason)
		}
	}

	return nil
}

func printUnitSection(title string, units []models.Unit) {
	fmt.Printf("\n%s (%d)\n", title, len(units))
	if len(units) == 0 {
		fmt.Println("  none")
		return
	}
	for _, u := range units {
		text := u.SubItemText
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		line := fmt.Sprintf("  %s  %-9s p%-2d %-9s %s", u.ID, u.Status, u.Priority, u.Category, text)
		if u.Status == models.UnitFailed && u.Error != "" {
			line += fmt.Sprintf(" (%s)", strings.TrimSpace(u.Error))
		}
		fmt.Println(line)
	}
}
