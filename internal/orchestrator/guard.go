package orchestrator

import (
	"fmt"
	"time"
)

// GuardResult is the safety guard's verdict. Blocking is communicated
// only through Reasons; the guard never errors on policy.
type GuardResult struct {
	// Allowed is true when no limit blocks delegation.
	Allowed bool `json:"allowed"`
	// Reasons lists every limit currently blocking, so a caller sees
	// all of them at once.
	Reasons []string `json:"reasons,omitempty"`
	// SessionUsed is the current session delegation count.
	SessionUsed int `json:"session_used"`
	// SessionLimit is the session cap.
	SessionLimit int `json:"session_limit"`
	// ActiveCount is the number of currently active units.
	ActiveCount int `json:"active_count"`
	// ParallelLimit is the parallelism cap.
	ParallelLimit int `json:"parallel_limit"`
}

// evaluateGuard checks every safety limit against the snapshot. All
// checks run; they are never short-circuited, so the result carries
// every blocking reason at once. taskID may be empty to skip the
// per-task check.
func evaluateGuard(limits Limits, snap *Snapshot, delegationEnabled bool, taskID string, now time.Time) GuardResult {
	var reasons []string

	if !delegationEnabled {
		reasons = append(reasons, "delegation is disabled")
	}

	if snap.TotalDelegations >= limits.MaxPerSession {
		reasons = append(reasons, fmt.Sprintf("session limit reached (%d/%d)",
			snap.TotalDelegations, limits.MaxPerSession))
	}

	if taskID != "" {
		if count := snap.PerTaskCounts[taskID]; count >= limits.MaxPerTask {
			reasons = append(reasons, fmt.Sprintf("task limit reached (%d/%d)",
				count, limits.MaxPerTask))
		}
	}

	if len(snap.Active) >= limits.MaxParallel {
		reasons = append(reasons, fmt.Sprintf("parallel limit reached (%d/%d)",
			len(snap.Active), limits.MaxParallel))
	}

	if snap.LastDelegationAt != nil && limits.Cooldown > 0 {
		elapsed := now.Sub(*snap.LastDelegationAt)
		if elapsed < limits.Cooldown {
			remaining := limits.Cooldown - elapsed
			reasons = append(reasons, fmt.Sprintf("cooldown active (%.0fs remaining)",
				remaining.Seconds()))
		}
	}

	return GuardResult{
		Allowed:       len(reasons) == 0,
		Reasons:       reasons,
		SessionUsed:   snap.TotalDelegations,
		SessionLimit:  limits.MaxPerSession,
		ActiveCount:   len(snap.Active),
		ParallelLimit: limits.MaxParallel,
	}
}

// CanDelegate checks all safety limits for the given task. An empty
// taskID skips the per-task check. The returned error is reserved for
// persistence failures; policy blocks show up only in Reasons.
func (e *Engine) CanDelegate(taskID string) (GuardResult, error) {
	release, err := e.acquireLock()
	if err != nil {
		return GuardResult{}, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return GuardResult{}, err
	}

	return evaluateGuard(e.limits, snap, e.classifier.IsEnabled(), taskID, e.now()), nil
}
