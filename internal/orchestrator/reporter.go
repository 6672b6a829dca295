package orchestrator

import (
	"time"

	"github.com/handoffdev/handoff/pkg/models"
)

// StatusReport is a read-only projection of the engine's state for
// display. Building one never mutates the snapshot.
type StatusReport struct {
	// MachineState is the engine's current orchestration state.
	MachineState models.MachineState `json:"machine_state"`
	// SessionStart is when this session began.
	SessionStart time.Time `json:"session_start"`
	// LastEvaluationAt is when the last evaluation ran, if any.
	LastEvaluationAt *time.Time `json:"last_evaluation_at,omitempty"`
	// LastDelegationAt is when the last unit was started, if any.
	LastDelegationAt *time.Time `json:"last_delegation_at,omitempty"`

	// TotalDelegations counts every started unit this session.
	TotalDelegations int `json:"total_delegations"`
	// CompletedCount counts units that completed successfully.
	CompletedCount int `json:"completed_count"`
	// FailedCount counts units that failed.
	FailedCount int `json:"failed_count"`
	// TotalSavings accumulates estimated savings of completed units.
	TotalSavings int `json:"total_savings"`
	// SuccessRate is completed over terminal units, 0 when none ended.
	SuccessRate float64 `json:"success_rate"`

	// SessionRemaining is how many more units this session admits.
	SessionRemaining int `json:"session_remaining"`
	// ParallelRemaining is how many more units may run concurrently.
	ParallelRemaining int `json:"parallel_remaining"`

	// Queued holds units waiting to start.
	Queued []models.Unit `json:"queued"`
	// Active holds units currently with a helper agent.
	Active []models.Unit `json:"active"`
	// History holds the most recent terminal units.
	History []models.Unit `json:"history"`

	// LastEvaluation is the last evaluation diagnostic, if any.
	LastEvaluation *models.EvaluationResult `json:"last_evaluation,omitempty"`
}

// Status returns a report of the engine's current state.
func (e *Engine) Status() (*StatusReport, error) {
	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		MachineState:      snap.MachineState,
		SessionStart:      snap.SessionStart,
		LastEvaluationAt:  snap.LastEvaluationAt,
		LastDelegationAt:  snap.LastDelegationAt,
		TotalDelegations:  snap.TotalDelegations,
		CompletedCount:    snap.CompletedCount,
		FailedCount:       snap.FailedCount,
		TotalSavings:      snap.TotalSavings,
		SessionRemaining:  clampNonNegative(e.limits.MaxPerSession - snap.TotalDelegations),
		ParallelRemaining: clampNonNegative(e.limits.MaxParallel - len(snap.Active)),
		Queued:            snap.Queued,
		Active:            snap.Active,
		History:           snap.History,
		LastEvaluation:    snap.LastEvaluation,
	}

	if terminal := snap.CompletedCount + snap.FailedCount; terminal > 0 {
		report.SuccessRate = float64(snap.CompletedCount) / float64(terminal)
	}

	return report, nil
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
