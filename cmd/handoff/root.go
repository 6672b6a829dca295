package main

import (
	"os"

	"github.com/spf13/cobra"
)

// stateDirOverride lets every command target a state directory other
// than ./.handoff.
var stateDirOverride string

var rootCmd = &cobra.Command{
	Use:   "handoff",
	Short: "Delegation orchestration for coding sessions",
	Long: `Handoff tracks a project's tasks and token-budget consumption and
offloads eligible sub-items to specialized helper agents when the
context budget runs low.

Typical flow:
  handoff init                    # scaffold .handoff in the project
  handoff task add "..." -i ...   # register a task with sub-items
  handoff task start <id>         # make it the active task
  handoff evaluate                # should anything be delegated now?
  handoff queue build             # materialize the delegation queue
  handoff run                     # execute queued units with helper agents
  handoff status                  # session counters and unit collections`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stateDirOverride, "state-dir", "",
		"Path to the handoff state directory (default ./.handoff)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(failCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}
