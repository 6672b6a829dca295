package orchestrator

import (
	"errors"
	"testing"

	"github.com/handoffdev/handoff/pkg/models"
)

func TestEvaluateTriggersOverThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.meter.ratio = 0.6

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.ShouldDelegate {
		t.Fatalf("expected should_delegate, reasons %v", result.Reasons)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}
	if result.TaskID != "T1" || result.TaskName != "Auth rework" {
		t.Errorf("task = %s/%s, want T1/Auth rework", result.TaskID, result.TaskName)
	}
	if result.UsageRatio != 0.6 {
		t.Errorf("usage = %v, want 0.6", result.UsageRatio)
	}
}

func TestEvaluateBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.meter.ratio = 0.2

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.ShouldDelegate {
		t.Fatal("expected no delegation below threshold")
	}
	if !containsSubstring(result.Reasons, "below threshold") {
		t.Errorf("missing threshold reason in %v", result.Reasons)
	}
	// Evaluation keeps going so the diagnostic still lists candidates.
	if len(result.Candidates) != 2 {
		t.Errorf("expected 2 candidates in the diagnostic, got %d", len(result.Candidates))
	}
}

func TestEvaluateParallelLimitBlocks(t *testing.T) {
	env := newTestEnv(t)

	snap, _ := env.engine.load()
	for i := 0; i < 3; i++ {
		snap.Active = append(snap.Active, models.Unit{ID: "u", Status: models.UnitActive})
	}
	if err := env.engine.save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.ShouldDelegate {
		t.Fatal("expected guard to block at the parallelism cap")
	}
	if !containsSubstring(result.Reasons, "parallel limit reached (3/3)") {
		t.Errorf("missing parallel limit reason in %v", result.Reasons)
	}
}

func TestEvaluateNoActiveTask(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.active = nil

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.ShouldDelegate {
		t.Fatal("expected no delegation without an active task")
	}
	if !containsSubstring(result.Reasons, "no active task") {
		t.Errorf("missing reason in %v", result.Reasons)
	}
}

func TestEvaluateNoPendingSubItems(t *testing.T) {
	env := newTestEnv(t)
	for i := range env.tasks.active.SubItems {
		env.tasks.active.SubItems[i].Done = true
	}

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !containsSubstring(result.Reasons, "no pending sub-items") {
		t.Errorf("missing reason in %v", result.Reasons)
	}
}

func TestEvaluateNoEligibleCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.classifier.matches = map[string]models.RuleMatch{
		"explore": {RuleName: "exploration", Category: models.CategoryExplore, Priority: 3},
	}

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.ShouldDelegate {
		t.Fatal("expected no delegation below the priority floor")
	}
	if !containsSubstring(result.Reasons, "no eligible candidates (priority floor 5)") {
		t.Errorf("missing reason in %v", result.Reasons)
	}
}

func TestEvaluateMinCandidates(t *testing.T) {
	env := newTestEnv(t)
	limits := testLimits()
	limits.MinCandidates = 3
	env.engine.limits = limits

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.ShouldDelegate {
		t.Fatal("expected no delegation under the candidate minimum")
	}
	if !containsSubstring(result.Reasons, "need at least 3 eligible candidates (found 2)") {
		t.Errorf("missing reason in %v", result.Reasons)
	}
}

func TestEvaluateMeterFailureSoftFails(t *testing.T) {
	env := newTestEnv(t)
	env.meter.err = errors.New("metrics file locked")

	result, err := env.engine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.ShouldDelegate {
		t.Fatal("expected no delegation on meter failure")
	}
	if !containsSubstring(result.Reasons, "evaluation error: metrics file locked") {
		t.Errorf("missing soft-fail reason in %v", result.Reasons)
	}
}

func TestEvaluatePersistsDiagnosticAndReturnsIdle(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.engine.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	snap, err := env.engine.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.MachineState != models.StateIdle {
		t.Errorf("state = %s, want idle", snap.MachineState)
	}
	if snap.LastEvaluation == nil {
		t.Fatal("expected last evaluation persisted")
	}
	if snap.LastEvaluationAt == nil {
		t.Fatal("expected last evaluation timestamp persisted")
	}
	if !snap.LastEvaluation.ShouldDelegate {
		t.Error("persisted diagnostic lost the verdict")
	}
}

func TestEvaluateEmitsEvent(t *testing.T) {
	env := newTestEnv(t)
	emitter := NewEventEmitter(8)
	env.engine.emitter = emitter

	if _, err := env.engine.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	select {
	case ev := <-emitter.Events():
		if ev.Type != EventEvaluationFinished {
			t.Errorf("event type = %s, want %s", ev.Type, EventEvaluationFinished)
		}
		if ev.TaskID != "T1" {
			t.Errorf("event task = %s, want T1", ev.TaskID)
		}
	default:
		t.Fatal("expected an evaluation event")
	}
}
