package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/orchestrator"
)

var (
	completeFilesCreated  []string
	completeFilesModified []string
	completeKeepSubItem   bool
)

var startCmd = &cobra.Command{
	Use:   "start <unit-id>",
	Short: "Move a queued unit to active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		unit, err := env.engine.Start(args[0])
		if err != nil {
			return fmt.Errorf("start unit: %w", err)
		}
		if unit == nil {
			fmt.Printf("no queued unit %s\n", args[0])
			return nil
		}
		fmt.Printf("started %s: %s\n", unit.ID, unit.SubItemText)
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <unit-id> <summary>",
	Short: "Mark an active unit completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		unit, err := env.engine.Complete(args[0], args[1], orchestrator.CompleteOptions{
			FilesCreated:      completeFilesCreated,
			FilesModified:     completeFilesModified,
			SkipSubItemUpdate: completeKeepSubItem,
		})
		if err != nil {
			return fmt.Errorf("complete unit: %w", err)
		}
		if unit == nil {
			fmt.Printf("no active unit %s\n", args[0])
			return nil
		}
		fmt.Printf("completed %s (~%d tokens saved)\n", unit.ID, unit.EstimatedSavings)
		return nil
	},
}

var failCmd = &cobra.Command{
	Use:   "fail <unit-id> <error>",
	Short: "Mark an active unit failed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		unit, err := env.engine.Fail(args[0], args[1])
		if err != nil {
			return fmt.Errorf("fail unit: %w", err)
		}
		if unit == nil {
			fmt.Printf("no active unit %s\n", args[0])
			return nil
		}
		fmt.Printf("failed %s: %s\n", unit.ID, unit.Error)
		return nil
	},
}

func init() {
	completeCmd.Flags().StringArrayVar(&completeFilesCreated, "created", nil,
		"File the helper agent created (repeatable)")
	completeCmd.Flags().StringArrayVar(&completeFilesModified, "modified", nil,
		"File the helper agent modified (repeatable)")
	completeCmd.Flags().BoolVar(&completeKeepSubItem, "keep-sub-item", false,
		"Leave the originating sub-item pending in the task store")
}
