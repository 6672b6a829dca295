package orchestrator

import (
	"fmt"

	"github.com/handoffdev/handoff/pkg/models"
)

// Evaluate decides whether delegation should trigger now. It never
// blocks and always produces a diagnostic: the result is persisted as
// the snapshot's last evaluation regardless of outcome, and the engine
// always finishes back in the idle state.
//
// Collaborator failures are converted to a single "evaluation error"
// reason with ShouldDelegate false; they never propagate. The returned
// error is reserved for snapshot persistence failures.
func (e *Engine) Evaluate() (*models.EvaluationResult, error) {
	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	// The transient evaluating state is observable by other processes
	// through the persisted snapshot.
	snap.MachineState = models.StateEvaluating
	if err := e.save(snap); err != nil {
		return nil, err
	}

	result := &models.EvaluationResult{
		Threshold:   e.limits.ContextThreshold,
		EvaluatedAt: e.now(),
	}
	e.runEvaluation(snap, result)

	now := e.now()
	snap.LastEvaluation = result
	snap.LastEvaluationAt = &now
	snap.MachineState = models.StateIdle
	if err := e.save(snap); err != nil {
		return nil, err
	}

	e.emit(Event{
		Type:      EventEvaluationFinished,
		TaskID:    result.TaskID,
		Message:   fmt.Sprintf("should_delegate=%v candidates=%d", result.ShouldDelegate, len(result.Candidates)),
		Timestamp: now,
	})
	e.debugf("evaluate: should_delegate=%v usage=%.2f reasons=%v",
		result.ShouldDelegate, result.UsageRatio, result.Reasons)

	return result, nil
}

// runEvaluation fills in the result. Panics from collaborators are
// caught here and surfaced as an evaluation-error reason so one
// misbehaving collaborator cannot abort the caller's loop.
func (e *Engine) runEvaluation(snap *Snapshot, result *models.EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			result.ShouldDelegate = false
			result.Reasons = append(result.Reasons, fmt.Sprintf("evaluation error: %v", r))
		}
	}()

	ratio, err := e.meter.UsageRatio()
	if err != nil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("evaluation error: %v", err))
		return
	}
	result.UsageRatio = ratio

	// Below-threshold usage blocks the trigger but evaluation continues,
	// so the diagnostic still records candidates.
	contextMet := ratio >= e.limits.ContextThreshold
	if !contextMet {
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"context usage (%.0f%%) below threshold (%.0f%%)",
			ratio*100, e.limits.ContextThreshold*100))
	}

	task, err := e.tasks.ActiveTask()
	if err != nil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("evaluation error: %v", err))
		return
	}
	if task == nil {
		result.Reasons = append(result.Reasons, "no active task")
		return
	}
	result.TaskID = task.ID
	result.TaskName = task.Name

	pending := task.PendingSubItems()
	if len(pending) == 0 {
		result.Reasons = append(result.Reasons, "no pending sub-items")
		return
	}

	for _, item := range pending {
		match, ok := e.classifier.Match(item.Text)
		if !ok || match.Priority < e.limits.PriorityFloor {
			continue
		}
		result.Candidates = append(result.Candidates, models.Candidate{
			Ref:      item.Ref,
			Text:     item.Text,
			RuleName: match.RuleName,
			Category: match.Category,
			Priority: match.Priority,
		})
	}

	if len(result.Candidates) == 0 {
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"no eligible candidates (priority floor %d)", e.limits.PriorityFloor))
		return
	}

	if len(result.Candidates) < e.limits.MinCandidates {
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"need at least %d eligible candidates (found %d)",
			e.limits.MinCandidates, len(result.Candidates)))
		return
	}

	guard := evaluateGuard(e.limits, snap, e.classifier.IsEnabled(), task.ID, e.now())
	if !guard.Allowed {
		result.Reasons = append(result.Reasons, guard.Reasons...)
		return
	}

	if contextMet {
		result.ShouldDelegate = true
	}
}
