// Package orchestrator implements the delegation engine: a state
// machine that decides when sub-items of the active task should be
// offloaded to helper agents, builds a bounded queue of candidate
// offloads, and tracks each unit's lifecycle under the configured
// safety limits.
package orchestrator

import (
	"time"

	"github.com/handoffdev/handoff/internal/config"
)

// Limits holds the engine's safety limits and trigger thresholds.
// Each limit is enforced independently; none couples to another.
type Limits struct {
	// MaxPerTask caps delegations for a single parent task.
	MaxPerTask int
	// MaxPerSession caps total delegations in a session.
	MaxPerSession int
	// Cooldown is the minimum time between two delegation starts.
	Cooldown time.Duration
	// MaxParallel caps concurrently active units.
	MaxParallel int
	// ContextThreshold is the usage fraction (0-1) that triggers delegation.
	ContextThreshold float64
	// MinCandidates is the minimum eligible sub-items needed to trigger.
	MinCandidates int
	// PriorityFloor is the minimum rule priority to consider.
	PriorityFloor int
	// ActiveTimeout auto-fails units active longer than this; zero
	// disables the reaper.
	ActiveTimeout time.Duration
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return LimitsFromConfig(config.Default().Orchestration)
}

// LimitsFromConfig converts the loaded configuration section.
func LimitsFromConfig(c config.OrchestrationConfig) Limits {
	return Limits{
		MaxPerTask:       c.MaxPerTask,
		MaxPerSession:    c.MaxPerSession,
		Cooldown:         time.Duration(c.CooldownSeconds) * time.Second,
		MaxParallel:      c.MaxParallel,
		ContextThreshold: c.ContextThreshold,
		MinCandidates:    c.MinCandidates,
		PriorityFloor:    c.PriorityFloor,
		ActiveTimeout:    c.ActiveTimeout,
	}
}
