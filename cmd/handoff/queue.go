package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/pkg/models"
)

var queueBuildTask string

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the delegation queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		queue, err := env.engine.Queue()
		if err != nil {
			return fmt.Errorf("read queue: %w", err)
		}
		printQueue(queue)
		return nil
	},
}

var queueBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the delegation queue from the active task",
	Long: `Materialize the delegation queue: every pending sub-item with a rule
match at or above the priority floor becomes a queued unit, sorted by
priority and truncated to the open capacity. The new queue replaces
the old one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		queue, err := env.engine.BuildQueue(queueBuildTask)
		if err != nil {
			return fmt.Errorf("build queue: %w", err)
		}
		if queue == nil {
			fmt.Println("No target task. Start one with 'handoff task start <id>'.")
			return nil
		}
		printQueue(queue)
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all queued units",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.engine.ClearQueue(); err != nil {
			return fmt.Errorf("clear queue: %w", err)
		}
		fmt.Println("queue cleared")
		return nil
	},
}

func printQueue(queue []models.Unit) {
	if len(queue) == 0 {
		fmt.Println("Queue is empty.")
		return
	}
	fmt.Printf("%d queued unit(s):\n", len(queue))
	for _, u := range queue {
		fmt.Printf("  %s  p%-2d %-9s ~%-6d %s\n",
			u.ID, u.Priority, u.Category, u.EstimatedSavings, u.SubItemText)
	}
}

func init() {
	queueBuildCmd.Flags().StringVar(&queueBuildTask, "task", "",
		"Task id to build from (default: the active task)")

	queueCmd.AddCommand(queueBuildCmd)
	queueCmd.AddCommand(queueClearCmd)
}
