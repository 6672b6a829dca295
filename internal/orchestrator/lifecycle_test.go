package orchestrator

import (
	"testing"
	"time"

	"github.com/handoffdev/handoff/pkg/models"
)

func seedQueue(t *testing.T, env *testEnv) []models.Unit {
	t.Helper()
	queue, err := env.engine.BuildQueue("")
	if err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	if len(queue) == 0 {
		t.Fatal("expected a non-empty queue")
	}
	return queue
}

func TestStartMovesUnitToActive(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)

	unit, err := env.engine.Start(queue[0].ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if unit == nil {
		t.Fatal("expected the started unit back")
	}
	if unit.Status != models.UnitActive {
		t.Errorf("status = %s, want active", unit.Status)
	}
	if unit.StartedAt == nil {
		t.Error("expected a start timestamp")
	}

	snap, _ := env.engine.load()
	if len(snap.Queued) != len(queue)-1 {
		t.Errorf("queued = %d, want %d", len(snap.Queued), len(queue)-1)
	}
	if len(snap.Active) != 1 || snap.Active[0].ID != unit.ID {
		t.Errorf("active collection does not own the unit: %v", snap.Active)
	}
	if snap.TotalDelegations != 1 {
		t.Errorf("total delegations = %d, want 1", snap.TotalDelegations)
	}
	if snap.PerTaskCounts["T1"] != 1 {
		t.Errorf("per-task count = %d, want 1", snap.PerTaskCounts["T1"])
	}
	if snap.LastDelegationAt == nil {
		t.Error("expected cooldown stamp")
	}
	if snap.MachineState != models.StateWaiting {
		t.Errorf("state = %s, want waiting", snap.MachineState)
	}

	if len(env.tracker.recorded) != 1 || env.tracker.recorded[0] != unit.ID {
		t.Errorf("tracker records = %v, want [%s]", env.tracker.recorded, unit.ID)
	}
}

func TestStartUnknownIDIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	seedQueue(t, env)

	unit, err := env.engine.Start("missing")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if unit != nil {
		t.Fatalf("expected nil for an unknown id, got %+v", unit)
	}

	snap, _ := env.engine.load()
	if snap.TotalDelegations != 0 {
		t.Errorf("counters moved on a no-op start: %d", snap.TotalDelegations)
	}
}

func TestStartStampsCooldown(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)

	if _, err := env.engine.Start(queue[0].ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := env.engine.CanDelegate("T1")
	if err != nil {
		t.Fatalf("CanDelegate: %v", err)
	}
	if result.Allowed {
		t.Fatal("expected cooldown to block right after a start")
	}
	if !containsSubstring(result.Reasons, "cooldown active") {
		t.Errorf("missing cooldown reason in %v", result.Reasons)
	}

	env.clock.Advance(61 * time.Second)
	result, err = env.engine.CanDelegate("T1")
	if err != nil {
		t.Fatalf("CanDelegate: %v", err)
	}
	if !result.Allowed {
		t.Errorf("expected allowed after the cooldown elapsed, got %v", result.Reasons)
	}
}

func TestCompleteCreditsSavingsAndHistory(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)

	started, err := env.engine.Start(queue[0].ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	done, err := env.engine.Complete(started.ID, "done", CompleteOptions{
		FilesCreated: []string{"/repo/notes.md"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done == nil {
		t.Fatal("expected the completed unit back")
	}
	if done.Status != models.UnitCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}
	if done.ResultSummary != "done" {
		t.Errorf("summary = %q, want done", done.ResultSummary)
	}
	if done.CompletedAt == nil {
		t.Error("expected a completion timestamp")
	}

	snap, _ := env.engine.load()
	if snap.CompletedCount != 1 {
		t.Errorf("completed count = %d, want 1", snap.CompletedCount)
	}
	if snap.TotalSavings != started.EstimatedSavings {
		t.Errorf("savings = %d, want %d", snap.TotalSavings, started.EstimatedSavings)
	}
	if len(snap.Active) != 0 {
		t.Errorf("active collection still owns %d units", len(snap.Active))
	}
	if len(snap.History) != 1 || snap.History[0].ID != started.ID {
		t.Errorf("history does not own the unit: %v", snap.History)
	}
	if snap.MachineState != models.StateIdle {
		t.Errorf("state = %s, want idle with nothing active", snap.MachineState)
	}

	if env.tracker.outcomes[started.ID] != models.UnitCompleted {
		t.Errorf("tracker outcome = %s, want completed", env.tracker.outcomes[started.ID])
	}
	if len(env.tasks.marked) != 1 || env.tasks.marked[0] != started.SubItemRef {
		t.Errorf("marked sub-items = %v, want [%d]", env.tasks.marked, started.SubItemRef)
	}
}

func TestCompleteSkipSubItemUpdate(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)

	started, _ := env.engine.Start(queue[0].ID)
	if _, err := env.engine.Complete(started.ID, "done", CompleteOptions{SkipSubItemUpdate: true}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(env.tasks.marked) != 0 {
		t.Errorf("sub-item marked despite skip: %v", env.tasks.marked)
	}
}

func TestCompleteUnknownIDIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)
	if _, err := env.engine.Start(queue[0].ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	unit, err := env.engine.Complete("missing", "done", CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if unit != nil {
		t.Fatalf("expected nil for an unknown id, got %+v", unit)
	}

	snap, _ := env.engine.load()
	if snap.CompletedCount != 0 || snap.TotalSavings != 0 {
		t.Errorf("counters moved on a no-op complete: %d/%d",
			snap.CompletedCount, snap.TotalSavings)
	}
	if len(snap.Active) != 1 {
		t.Errorf("active unit lost on a no-op complete")
	}
}

func TestFailRecordsErrorWithoutSavings(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)

	started, _ := env.engine.Start(queue[0].ID)
	failed, err := env.engine.Fail(started.ID, "agent crashed")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if failed == nil {
		t.Fatal("expected the failed unit back")
	}
	if failed.Status != models.UnitFailed {
		t.Errorf("status = %s, want failed", failed.Status)
	}
	if failed.Error != "agent crashed" {
		t.Errorf("error = %q, want agent crashed", failed.Error)
	}

	snap, _ := env.engine.load()
	if snap.FailedCount != 1 {
		t.Errorf("failed count = %d, want 1", snap.FailedCount)
	}
	if snap.TotalSavings != 0 {
		t.Errorf("failure must not credit savings, got %d", snap.TotalSavings)
	}
	if len(snap.History) != 1 {
		t.Errorf("history = %d units, want 1", len(snap.History))
	}
	if env.tracker.outcomes[started.ID] != models.UnitFailed {
		t.Errorf("tracker outcome = %s, want failed", env.tracker.outcomes[started.ID])
	}
	if len(env.tasks.marked) != 0 {
		t.Errorf("failure must not touch the task store, marked %v", env.tasks.marked)
	}
}

func TestCompleteStaysWaitingWhileOthersActive(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)
	if len(queue) < 2 {
		t.Fatalf("need 2 queued units, got %d", len(queue))
	}

	first, _ := env.engine.Start(queue[0].ID)
	env.clock.Advance(61 * time.Second)
	second, _ := env.engine.Start(queue[1].ID)
	if second == nil {
		t.Fatal("expected second start to succeed")
	}

	if _, err := env.engine.Complete(first.ID, "done", CompleteOptions{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	snap, _ := env.engine.load()
	if snap.MachineState != models.StateWaiting {
		t.Errorf("state = %s, want waiting while a unit is still active", snap.MachineState)
	}
}

func TestLifecycleEmitsEvents(t *testing.T) {
	env := newTestEnv(t)
	emitter := NewEventEmitter(16)
	env.engine.emitter = emitter
	queue := seedQueue(t, env)

	started, _ := env.engine.Start(queue[0].ID)
	if _, err := env.engine.Complete(started.ID, "done", CompleteOptions{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var types []EventType
	for len(emitter.Events()) > 0 {
		types = append(types, (<-emitter.Events()).Type)
	}

	wantTail := []EventType{EventUnitStarted, EventUnitCompleted}
	if len(types) < len(wantTail) {
		t.Fatalf("got %d events, want at least %d", len(types), len(wantTail))
	}
	tail := types[len(types)-2:]
	for i, want := range wantTail {
		if tail[i] != want {
			t.Errorf("event[%d] = %s, want %s", i, tail[i], want)
		}
	}
}
