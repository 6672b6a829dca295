package models

import "time"

// UnitStatus represents the lifecycle state of a delegation unit.
type UnitStatus string

const (
	// UnitQueued indicates the unit is waiting to be started.
	UnitQueued UnitStatus = "queued"
	// UnitActive indicates the unit has been handed to a helper agent.
	UnitActive UnitStatus = "active"
	// UnitCompleted indicates the unit finished successfully.
	UnitCompleted UnitStatus = "completed"
	// UnitFailed indicates the unit finished with an error.
	UnitFailed UnitStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s UnitStatus) Valid() bool {
	switch s {
	case UnitQueued, UnitActive, UnitCompleted, UnitFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is an end state.
func (s UnitStatus) Terminal() bool {
	return s == UnitCompleted || s == UnitFailed
}

// MachineState represents the engine's coarse orchestration state.
type MachineState string

const (
	// StateIdle indicates no orchestration activity is in progress.
	StateIdle MachineState = "idle"
	// StateEvaluating indicates a trigger evaluation is running.
	StateEvaluating MachineState = "evaluating"
	// StateDelegating indicates a delegation queue is being built.
	StateDelegating MachineState = "delegating"
	// StateWaiting indicates one or more units are active.
	StateWaiting MachineState = "waiting"
	// StateIntegrating indicates a completed unit is being folded back in.
	StateIntegrating MachineState = "integrating"
)

// Valid returns true if the machine state is a known value.
func (s MachineState) Valid() bool {
	switch s {
	case StateIdle, StateEvaluating, StateDelegating, StateWaiting, StateIntegrating:
		return true
	default:
		return false
	}
}

// Unit is one candidate or in-flight offload of a task sub-item.
// Identity fields are fixed at creation; only the lifecycle fields
// (Status, StartedAt, CompletedAt, ResultSummary, Files*, Error) change,
// and only through the engine's lifecycle methods.
type Unit struct {
	// ID is the unique identifier for this unit.
	ID string `json:"id"`
	// TaskID is the parent task this unit belongs to.
	TaskID string `json:"task_id"`
	// TaskName is the parent task name, kept for display.
	TaskName string `json:"task_name,omitempty"`
	// SubItemRef is the index of the sub-item within the parent task.
	SubItemRef int `json:"sub_item_ref"`
	// SubItemText is the sub-item description that matched a rule.
	SubItemText string `json:"sub_item_text"`
	// RuleName is the delegation rule that matched.
	RuleName string `json:"rule_name"`
	// Category is the helper agent category for this unit.
	Category Category `json:"category"`
	// Priority is the matched rule's priority.
	Priority int `json:"priority"`
	// Instructions is the generated delegation prompt, passed through
	// to the helper agent unmodified.
	Instructions string `json:"instructions"`
	// EstimatedSavings is the estimated context tokens saved by offloading.
	EstimatedSavings int `json:"estimated_savings"`
	// Status is the current lifecycle state.
	Status UnitStatus `json:"status"`
	// CreatedAt is when the unit was queued.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when the unit became active, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the unit reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// ResultSummary is the helper agent's summary for completed units.
	ResultSummary string `json:"result_summary,omitempty"`
	// FilesCreated lists files the helper agent reported creating.
	FilesCreated []string `json:"files_created,omitempty"`
	// FilesModified lists files the helper agent reported modifying.
	FilesModified []string `json:"files_modified,omitempty"`
	// Error holds the failure reason for failed units.
	Error string `json:"error,omitempty"`
}
