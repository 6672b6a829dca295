package orchestrator

import (
	"sort"

	"github.com/google/uuid"
	"github.com/handoffdev/handoff/internal/state"
	"github.com/handoffdev/handoff/pkg/models"
)

// BuildQueue materializes the delegation queue for a task: every
// pending sub-item with a rule match at or above the priority floor
// becomes a queued unit, sorted by priority descending (stable, so
// ties keep discovery order) and truncated to the admissible slot
// count. The new queue replaces the snapshot's queued collection.
//
// An empty taskID targets the currently active task. This is the only
// place queue size is bounded; the slot arithmetic here must stay
// consistent with the safety guard's counting.
func (e *Engine) BuildQueue(taskID string) ([]models.Unit, error) {
	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	snap.MachineState = models.StateDelegating
	if err := e.save(snap); err != nil {
		return nil, err
	}

	queue, buildErr := e.buildUnits(snap, taskID)

	if queue != nil {
		snap.Queued = queue
	}
	snap.MachineState = models.StateIdle
	if err := e.save(snap); err != nil {
		return nil, err
	}
	if buildErr != nil {
		return nil, buildErr
	}

	for i := range queue {
		e.emit(Event{Type: EventUnitQueued, UnitID: queue[i].ID, TaskID: queue[i].TaskID, Timestamp: e.now()})
	}
	e.debugf("build queue: task=%s units=%d", taskID, len(queue))

	return queue, nil
}

// buildUnits constructs the capacity-bounded unit list. A nil return
// with nil error means no target task exists; the existing queue is
// left untouched in that case.
func (e *Engine) buildUnits(snap *Snapshot, taskID string) ([]models.Unit, error) {
	var task *state.Task
	var err error
	if taskID != "" {
		task, err = e.tasks.GetTask(taskID)
	} else {
		task, err = e.tasks.ActiveTask()
	}
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	queue := make([]models.Unit, 0)
	for _, item := range task.PendingSubItems() {
		match, ok := e.classifier.Match(item.Text)
		if !ok || match.Priority < e.limits.PriorityFloor {
			continue
		}

		queue = append(queue, models.Unit{
			ID:               uuid.New().String()[:8],
			TaskID:           task.ID,
			TaskName:         task.Name,
			SubItemRef:       item.Ref,
			SubItemText:      item.Text,
			RuleName:         match.RuleName,
			Category:         match.Category,
			Priority:         match.Priority,
			Instructions:     e.classifier.Instructions(task.ID, task.Name, item.Text, match),
			EstimatedSavings: e.classifier.EstimateSavings(match.Category),
			Status:           models.UnitQueued,
			CreatedAt:        e.now().UTC(),
		})
	}

	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Priority > queue[j].Priority
	})

	slots := admissibleSlots(e.limits, snap, task.ID)
	if len(queue) > slots {
		queue = queue[:slots]
	}
	return queue, nil
}

// admissibleSlots is the number of units that may still start: the
// tightest of the parallel, session, and per-task limits, clamped to
// zero.
func admissibleSlots(limits Limits, snap *Snapshot, taskID string) int {
	slots := limits.MaxParallel - len(snap.Active)
	if remaining := limits.MaxPerSession - snap.TotalDelegations; remaining < slots {
		slots = remaining
	}
	if remaining := limits.MaxPerTask - snap.PerTaskCounts[taskID]; remaining < slots {
		slots = remaining
	}
	if slots < 0 {
		return 0
	}
	return slots
}

// Queue returns the current delegation queue.
func (e *Engine) Queue() ([]models.Unit, error) {
	release, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return nil, err
	}
	return snap.Queued, nil
}

// ClearQueue drops all queued units. Active units are unaffected.
func (e *Engine) ClearQueue() error {
	release, err := e.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	snap, err := e.load()
	if err != nil {
		return err
	}

	snap.Queued = nil
	return e.save(snap)
}
