package orchestrator

import (
	"testing"
	"time"

	"github.com/handoffdev/handoff/pkg/models"
)

func TestReapStaleDisabledByDefault(t *testing.T) {
	env := newTestEnv(t)
	queue := seedQueue(t, env)
	if _, err := env.engine.Start(queue[0].ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	env.clock.Advance(48 * time.Hour)
	reaped, err := env.engine.ReapStale()
	if err != nil {
		t.Fatalf("ReapStale: %v", err)
	}
	if len(reaped) != 0 {
		t.Fatalf("zero timeout must disable the reaper, reaped %d", len(reaped))
	}

	snap, _ := env.engine.load()
	if len(snap.Active) != 1 {
		t.Errorf("active unit removed with the reaper disabled")
	}
}

func TestReapStaleFailsOnlyExpiredUnits(t *testing.T) {
	env := newTestEnv(t)
	limits := testLimits()
	limits.ActiveTimeout = 30 * time.Minute
	env.engine.limits = limits
	queue := seedQueue(t, env)

	stale, err := env.engine.Start(queue[0].ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	env.clock.Advance(time.Hour)
	fresh, err := env.engine.Start(queue[1].ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	reaped, err := env.engine.ReapStale()
	if err != nil {
		t.Fatalf("ReapStale: %v", err)
	}
	if len(reaped) != 1 || reaped[0].ID != stale.ID {
		t.Fatalf("reaped = %v, want just %s", reaped, stale.ID)
	}
	if reaped[0].Status != models.UnitFailed {
		t.Errorf("status = %s, want failed", reaped[0].Status)
	}
	if reaped[0].Error == "" {
		t.Error("expected a reap reason on the unit")
	}

	snap, _ := env.engine.load()
	if len(snap.Active) != 1 || snap.Active[0].ID != fresh.ID {
		t.Errorf("active = %v, want just %s", snap.Active, fresh.ID)
	}
	if snap.FailedCount != 1 {
		t.Errorf("failed count = %d, want 1", snap.FailedCount)
	}
	if snap.TotalSavings != 0 {
		t.Errorf("reaping must not credit savings, got %d", snap.TotalSavings)
	}
	if env.tracker.outcomes[stale.ID] != models.UnitFailed {
		t.Errorf("tracker outcome = %s, want failed", env.tracker.outcomes[stale.ID])
	}
}

func TestReapStaleEmitsEvent(t *testing.T) {
	env := newTestEnv(t)
	limits := testLimits()
	limits.ActiveTimeout = 30 * time.Minute
	env.engine.limits = limits
	queue := seedQueue(t, env)

	started, _ := env.engine.Start(queue[0].ID)
	env.clock.Advance(time.Hour)

	emitter := NewEventEmitter(8)
	env.engine.emitter = emitter
	if _, err := env.engine.ReapStale(); err != nil {
		t.Fatalf("ReapStale: %v", err)
	}

	select {
	case ev := <-emitter.Events():
		if ev.Type != EventUnitReaped {
			t.Errorf("event type = %s, want %s", ev.Type, EventUnitReaped)
		}
		if ev.UnitID != started.ID {
			t.Errorf("event unit = %s, want %s", ev.UnitID, started.ID)
		}
	default:
		t.Fatal("expected a reap event")
	}
}
