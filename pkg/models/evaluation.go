package models

import "time"

// Candidate is one pending sub-item that matched a delegation rule
// during evaluation.
type Candidate struct {
	// Ref is the sub-item index within the parent task.
	Ref int `json:"ref"`
	// Text is the sub-item description.
	Text string `json:"text"`
	// RuleName is the matching rule.
	RuleName string `json:"rule_name"`
	// Category is the helper agent category.
	Category Category `json:"category"`
	// Priority is the matching rule's priority.
	Priority int `json:"priority"`
}

// EvaluationResult is the diagnostic outcome of one evaluation pass.
// It is persisted as the snapshot's last evaluation regardless of
// outcome, so callers can always explain why delegation did or did not
// trigger without re-deriving state.
type EvaluationResult struct {
	// ShouldDelegate is true when every trigger condition was met.
	ShouldDelegate bool `json:"should_delegate"`
	// Reasons lists every condition that blocked delegation.
	Reasons []string `json:"reasons,omitempty"`
	// UsageRatio is the resource meter reading at evaluation time.
	UsageRatio float64 `json:"usage_ratio"`
	// Threshold is the configured context threshold.
	Threshold float64 `json:"threshold"`
	// Candidates lists eligible sub-items found during evaluation.
	Candidates []Candidate `json:"candidates,omitempty"`
	// TaskID is the active parent task, if one existed.
	TaskID string `json:"task_id,omitempty"`
	// TaskName is the active parent task's name.
	TaskName string `json:"task_name,omitempty"`
	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}
