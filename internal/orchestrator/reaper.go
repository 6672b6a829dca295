package orchestrator

import (
	"fmt"

	"github.com/handoffdev/handoff/pkg/models"
)

// ReapStale fails every active unit that has been running longer than
// the configured active timeout. Returns the reaped units. A zero
// timeout disables the reaper and returns nothing.
func (e *Engine) ReapStale() ([]models.Unit, error) {
	if e.limits.ActiveTimeout <= 0 {
		return nil, nil
	}

	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	now := e.now()
	var stale []string
	for i := range snap.Active {
		started := snap.Active[i].StartedAt
		if started != nil && now.Sub(*started) > e.limits.ActiveTimeout {
			stale = append(stale, snap.Active[i].ID)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	reason := fmt.Sprintf("reaped: active longer than %s", e.limits.ActiveTimeout)
	reaped := make([]models.Unit, 0, len(stale))
	for _, id := range stale {
		unit, err := e.failLocked(snap, id, reason)
		if err != nil {
			return nil, err
		}
		if unit != nil {
			reaped = append(reaped, *unit)
		}
	}

	if err := e.save(snap); err != nil {
		return nil, err
	}

	for i := range reaped {
		if e.tracker != nil {
			if err := e.tracker.RecordOutcome(reaped[i].ID, models.UnitFailed, reason); err != nil {
				e.debugf("reap %s: tracker outcome failed: %v", reaped[i].ID, err)
			}
		}
		e.emit(Event{Type: EventUnitReaped, UnitID: reaped[i].ID, TaskID: reaped[i].TaskID, Message: reason, Timestamp: now})
	}
	e.debugf("reaped %d stale units", len(reaped))

	return reaped, nil
}
