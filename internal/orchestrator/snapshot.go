package orchestrator

import (
	"time"

	"github.com/handoffdev/handoff/pkg/models"
)

// historyLimit caps the completed/failed unit history. On overflow the
// oldest entry is dropped first; this is a bounded ring, not an error.
const historyLimit = 20

// Snapshot is the engine's durable state: the machine state, session
// counters, the three unit collections, and the last evaluation
// diagnostic. It persists as a single JSON document and is rewritten
// after every mutating call.
//
// A unit lives in exactly one of Queued, Active, or History at any
// time; lifecycle calls transfer ownership, they never copy.
type Snapshot struct {
	// MachineState is the engine's coarse orchestration state.
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
	// PerTaskCounts maps parent task id to its delegation count.
	PerTaskCounts map[string]int `json:"per_task_counts"`

	// Queued holds units waiting to start.
	Queued []models.Unit `json:"queued"`
	// Active holds units currently with a helper agent.
	Active []models.Unit `json:"active"`
	// History holds the most recent terminal units, capped at 20.
	History []models.Unit `json:"history"`

	// LastEvaluation is the last evaluation diagnostic, overwritten on
	// every evaluation and never merged.
	LastEvaluation *models.EvaluationResult `json:"last_evaluation,omitempty"`
}

// NewSnapshot returns an empty snapshot with the session started now.
func NewSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		MachineState:  models.StateIdle,
		SessionStart:  now.UTC(),
		PerTaskCounts: make(map[string]int),
	}
}

// normalize repairs a snapshot loaded from disk: nil maps become empty
// and an unknown machine state falls back to idle.
func (s *Snapshot) normalize() {
	if s.PerTaskCounts == nil {
		s.PerTaskCounts = make(map[string]int)
	}
	if !s.MachineState.Valid() {
		s.MachineState = models.StateIdle
	}
}

// appendHistory appends a terminal unit, evicting the oldest entry
// when the cap is exceeded.
func (s *Snapshot) appendHistory(unit models.Unit) {
	s.History = append(s.History, unit)
	if len(s.History) > historyLimit {
		s.History = s.History[len(s.History)-historyLimit:]
	}
}

// removeUnit removes the unit with the given id from a collection,
// returning the unit and the shortened slice. The third return value
// is false when the id is not present.
func removeUnit(units []models.Unit, id string) (models.Unit, []models.Unit, bool) {
	for i := range units {
		if units[i].ID == id {
			unit := units[i]
			return unit, append(units[:i:i], units[i+1:]...), true
		}
	}
	return models.Unit{}, units, false
}
