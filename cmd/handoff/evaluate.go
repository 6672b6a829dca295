package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Decide whether delegation should trigger now",
	Long: `Run one evaluation pass: check context usage against the threshold,
collect eligible sub-items of the active task, and test every safety
limit. The verdict and its reasons are printed and persisted as the
session's last evaluation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		result, err := env.engine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}

		if result.ShouldDelegate {
			color.Green("delegate (usage %.0f%%, threshold %.0f%%)",
				result.UsageRatio*100, result.Threshold*100)
		} else {
			color.Yellow("hold (usage %.0f%%, threshold %.0f%%)",
				result.UsageRatio*100, result.Threshold*100)
		}

		for _, reason := range result.Reasons {
			fmt.Printf("  - %s\n", reason)
		}

		if len(result.Candidates) > 0 {
			fmt.Printf("\n%d candidate(s):\n", len(result.Candidates))
			for _, c := range result.Candidates {
				fmt.Printf("  p%-2d %-9s %s (rule %s)\n", c.Priority, c.Category, c.Text, c.RuleName)
			}
			if result.ShouldDelegate {
				fmt.Println("\nRun 'handoff queue build' to queue them.")
			}
		}
		return nil
	},
}
