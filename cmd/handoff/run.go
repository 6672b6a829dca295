package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/agent"
	"github.com/handoffdev/handoff/internal/orchestrator"
)

var (
	runAll     bool
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [unit-id]",
	Short: "Execute queued units with helper agents",
	Long: `Start a queued unit, execute its instructions with a helper agent,
and complete (or fail) it with the agent's summary. The tokens the
call consumed are added to the context meter.

With no argument, runs the first queued unit. With --all, keeps going
until the queue is empty.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUnits,
}

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "Run every queued unit")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "Per-unit execution timeout")
}

func runUnits(cmd *cobra.Command, args []string) error {
	emitter := orchestrator.NewEventEmitter(64)
	defer emitter.Close()

	env, err := newEngineEnv(orchestrator.WithEmitter(emitter))
	if err != nil {
		return err
	}
	defer env.close()

	client, err := agent.NewClient(env.cfg.Agent)
	if err != nil {
		return err
	}
	runner := agent.NewRunner(client)

	// Reclaim units left behind by a crashed run before starting.
	if reaped, err := env.engine.ReapStale(); err != nil {
		return fmt.Errorf("reap stale units: %w", err)
	} else if len(reaped) > 0 {
		color.Yellow("reaped %d stale unit(s)", len(reaped))
	}

	go printEvents(emitter)

	for {
		queue, err := env.engine.Queue()
		if err != nil {
			return fmt.Errorf("read queue: %w", err)
		}
		if len(queue) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		target := queue[0].ID
		if len(args) > 0 {
			target = args[0]
		}

		if err := runOne(env, runner, target); err != nil {
			return err
		}
		if !runAll || len(args) > 0 {
			return nil
		}
	}
}

func runOne(env *engineEnv, runner *agent.Runner, unitID string) error {
	unit, err := env.engine.Start(unitID)
	if err != nil {
		return fmt.Errorf("start unit: %w", err)
	}
	if unit == nil {
		return fmt.Errorf("no queued unit %s", unitID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, execErr := runner.Execute(ctx, unit)
	if execErr != nil {
		if _, failErr := env.engine.Fail(unit.ID, execErr.Error()); failErr != nil {
			return fmt.Errorf("record failure of %s: %w", unit.ID, failErr)
		}
		return fmt.Errorf("unit %s failed: %w", unit.ID, execErr)
	}

	if err := env.meter.AddTokens(int(result.Usage.Total())); err != nil {
		env.logger.Log("run %s: meter update failed: %v", unit.ID, err)
	}

	if _, err := env.engine.Complete(unit.ID, result.Summary, orchestrator.CompleteOptions{}); err != nil {
		return fmt.Errorf("complete unit %s: %w", unit.ID, err)
	}

	fmt.Printf("\n%s\n%s\n", color.New(color.Bold).Sprintf("Summary for %s:", unit.ID), result.Summary)
	return nil
}

// printEvents streams engine events as one-line progress output.
func printEvents(emitter *orchestrator.EventEmitter) {
	for ev := range emitter.Events() {
		switch ev.Type {
		case orchestrator.EventUnitStarted:
			color.Cyan("▶ %s started", ev.UnitID)
		case orchestrator.EventUnitCompleted:
			color.Green("✓ %s completed", ev.UnitID)
		case orchestrator.EventUnitFailed:
			color.Red("✗ %s failed: %s", ev.UnitID, ev.Message)
		case orchestrator.EventUnitReaped:
			color.Yellow("↺ %s reaped", ev.UnitID)
		}
	}
}
