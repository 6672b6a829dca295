package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/state"
)

var (
	taskAddItems       []string
	taskAddDescription string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage parent tasks and their sub-items",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a task with sub-items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := requireHandoffDir()
		if err != nil {
			return err
		}
		db, err := openStore(dir)
		if err != nil {
			return err
		}
		defer db.Close()

		task, err := db.CreateTask(args[0], taskAddDescription, taskAddItems)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		fmt.Printf("created task %s: %s (%d sub-items)\n", task.ID, task.Name, len(task.SubItems))
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := requireHandoffDir()
		if err != nil {
			return err
		}
		db, err := openStore(dir)
		if err != nil {
			return err
		}
		defer db.Close()

		tasks, err := db.ListTasks(nil)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks. Run 'handoff task add' to create one.")
			return nil
		}

		for i := range tasks {
			printTaskLine(&tasks[i])
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a task and its sub-items (the active task by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := requireHandoffDir()
		if err != nil {
			return err
		}
		db, err := openStore(dir)
		if err != nil {
			return err
		}
		defer db.Close()

		var task *state.Task
		if len(args) > 0 {
			task, err = db.GetTask(args[0])
		} else {
			task, err = db.ActiveTask()
		}
		if err != nil {
			return fmt.Errorf("get task: %w", err)
		}
		if task == nil {
			fmt.Println("No such task.")
			return nil
		}

		printTaskLine(task)
		if task.Description != "" {
			fmt.Printf("  %s\n", task.Description)
		}
		for _, item := range task.SubItems {
			marker := "[ ]"
			if item.Done {
				marker = color.GreenString("[x]")
			}
			fmt.Printf("  %s %d: %s\n", marker, item.Ref, item.Text)
		}
		return nil
	},
}

var taskStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Make a task the active task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := requireHandoffDir()
		if err != nil {
			return err
		}
		db, err := openStore(dir)
		if err != nil {
			return err
		}
		defer db.Close()

		task, err := db.StartTask(args[0])
		if err != nil {
			return fmt.Errorf("start task: %w", err)
		}

		fmt.Printf("active task: %s (%s)\n", task.Name, task.ID)
		return nil
	},
}

var taskItemCmd = &cobra.Command{
	Use:   "item <task-id> <text>",
	Short: "Add a sub-item to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := requireHandoffDir()
		if err != nil {
			return err
		}
		db, err := openStore(dir)
		if err != nil {
			return err
		}
		defer db.Close()

		ref, err := db.AddSubItem(args[0], args[1])
		if err != nil {
			return fmt.Errorf("add sub-item: %w", err)
		}

		fmt.Printf("added sub-item %d to task %s\n", ref, args[0])
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id> <ref>",
	Short: "Mark a sub-item done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := requireHandoffDir()
		if err != nil {
			return err
		}
		db, err := openStore(dir)
		if err != nil {
			return err
		}
		defer db.Close()

		ref, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid sub-item ref %q", args[1])
		}

		ok, err := db.MarkSubItemDone(args[0], ref)
		if err != nil {
			return fmt.Errorf("mark sub-item done: %w", err)
		}
		if !ok {
			fmt.Printf("no sub-item %d on task %s\n", ref, args[0])
			return nil
		}

		fmt.Printf("marked sub-item %d done\n", ref)
		return nil
	},
}

func printTaskLine(task *state.Task) {
	status := string(task.Status)
	switch task.Status {
	case state.TaskInProgress:
		status = color.CyanString(status)
	case state.TaskDone:
		status = color.GreenString(status)
	}

	done := 0
	for _, item := range task.SubItems {
		if item.Done {
			done++
		}
	}
	fmt.Printf("%s  %-12s %s (%d/%d sub-items done)\n",
		task.ID, status, task.Name, done, len(task.SubItems))
}

func init() {
	taskAddCmd.Flags().StringArrayVarP(&taskAddItems, "item", "i", nil, "Sub-item text (repeatable)")
	taskAddCmd.Flags().StringVarP(&taskAddDescription, "description", "d", "", "Task description")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskItemCmd)
	taskCmd.AddCommand(taskDoneCmd)
}
