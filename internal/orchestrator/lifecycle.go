package orchestrator

import (
	"github.com/handoffdev/handoff/pkg/models"
)

// CompleteOptions carries the optional parts of a completion.
type CompleteOptions struct {
	// FilesCreated lists files the helper agent created.
	FilesCreated []string
	// FilesModified lists files the helper agent modified.
	FilesModified []string
	// SkipSubItemUpdate leaves the originating sub-item pending in the
	// task store. By default completion marks it done.
	SkipSubItemUpdate bool
}

// Start moves a queued unit to active: ownership transfers from the
// queued collection to the active collection, counters and the
// cooldown stamp are updated, and the telemetry tracker is notified
// best-effort. Returns (nil, nil) when no queued unit has the id;
// in that case nothing changes, so a start on a unit that is already
// active or in history is a no-op.
func (e *Engine) Start(id string) (*models.Unit, error) {
	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	unit, queued, found := removeUnit(snap.Queued, id)
	if !found {
		return nil, nil
	}
	snap.Queued = queued

	now := e.now().UTC()
	unit.Status = models.UnitActive
	unit.StartedAt = &now

	snap.Active = append(snap.Active, unit)
	snap.TotalDelegations++
	snap.PerTaskCounts[unit.TaskID]++
	snap.LastDelegationAt = &now
	snap.MachineState = models.StateWaiting

	if err := e.save(snap); err != nil {
		return nil, err
	}

	// Fire-and-forget: a tracker failure never undoes the transition.
	if e.tracker != nil {
		if err := e.tracker.Record(&unit); err != nil {
			e.debugf("start %s: tracker record failed: %v", id, err)
		}
	}

	e.emit(Event{Type: EventUnitStarted, UnitID: unit.ID, TaskID: unit.TaskID, Timestamp: now})
	e.debugf("start %s: task=%s ref=%d category=%s", unit.ID, unit.TaskID, unit.SubItemRef, unit.Category)

	return &unit, nil
}

// Complete moves an active unit to history as completed, credits its
// estimated savings, and by default marks the originating sub-item
// done in the task store. Returns (nil, nil) when no active unit has
// the id; counters are untouched in that case.
func (e *Engine) Complete(id, resultSummary string, opts CompleteOptions) (*models.Unit, error) {
	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	unit, active, found := removeUnit(snap.Active, id)
	if !found {
		return nil, nil
	}

	snap.MachineState = models.StateIntegrating
	snap.Active = active

	now := e.now().UTC()
	unit.Status = models.UnitCompleted
	unit.CompletedAt = &now
	unit.ResultSummary = resultSummary
	unit.FilesCreated = opts.FilesCreated
	unit.FilesModified = opts.FilesModified

	snap.CompletedCount++
	snap.TotalSavings += unit.EstimatedSavings
	snap.appendHistory(unit)
	snap.MachineState = waitingOrIdle(snap)

	if err := e.save(snap); err != nil {
		return nil, err
	}

	if e.tracker != nil {
		if err := e.tracker.RecordOutcome(unit.ID, models.UnitCompleted, resultSummary); err != nil {
			e.debugf("complete %s: tracker outcome failed: %v", id, err)
		}
	}

	if !opts.SkipSubItemUpdate {
		if ok, err := e.tasks.MarkSubItemDone(unit.TaskID, unit.SubItemRef); err != nil {
			e.debugf("complete %s: mark sub-item done failed: %v", id, err)
		} else if !ok {
			e.debugf("complete %s: sub-item %d not found in task %s", id, unit.SubItemRef, unit.TaskID)
		}
	}

	e.emit(Event{Type: EventUnitCompleted, UnitID: unit.ID, TaskID: unit.TaskID, Message: resultSummary, Timestamp: now})
	e.debugf("complete %s: savings=%d", unit.ID, unit.EstimatedSavings)

	return &unit, nil
}

// Fail moves an active unit to history as failed. No savings are
// credited and the task store is not touched. Returns (nil, nil) when
// no active unit has the id.
func (e *Engine) Fail(id, errMsg string) (*models.Unit, error) {
	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	unit, err := e.failLocked(snap, id, errMsg)
	if err != nil || unit == nil {
		return nil, err
	}

	if err := e.save(snap); err != nil {
		return nil, err
	}

	if e.tracker != nil {
		if err := e.tracker.RecordOutcome(unit.ID, models.UnitFailed, errMsg); err != nil {
			e.debugf("fail %s: tracker outcome failed: %v", id, err)
		}
	}

	e.emit(Event{Type: EventUnitFailed, UnitID: unit.ID, TaskID: unit.TaskID, Message: errMsg, Timestamp: e.now()})
	e.debugf("fail %s: %s", unit.ID, errMsg)

	return unit, nil
}

// failLocked performs the fail transition on a loaded snapshot without
// persisting. Shared with the stale-unit reaper.
func (e *Engine) failLocked(snap *Snapshot, id, errMsg string) (*models.Unit, error) {
	unit, active, found := removeUnit(snap.Active, id)
	if !found {
		return nil, nil
	}
	snap.Active = active

	now := e.now().UTC()
	unit.Status = models.UnitFailed
	unit.CompletedAt = &now
	unit.Error = errMsg

	snap.FailedCount++
	snap.appendHistory(unit)
	snap.MachineState = waitingOrIdle(snap)

	return &unit, nil
}

// waitingOrIdle returns the machine state after a terminal transition:
// waiting while any unit remains active, idle otherwise.
func waitingOrIdle(snap *Snapshot) models.MachineState {
	if len(snap.Active) > 0 {
		return models.StateWaiting
	}
	return models.StateIdle
}
