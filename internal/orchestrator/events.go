package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventUnitQueued indicates a unit was placed on the queue.
	EventUnitQueued EventType = "unit_queued"
	// EventUnitStarted indicates a unit began executing.
	EventUnitStarted EventType = "unit_started"
	// EventUnitCompleted indicates a unit completed successfully.
	EventUnitCompleted EventType = "unit_completed"
	// EventUnitFailed indicates a unit failed.
	EventUnitFailed EventType = "unit_failed"
	// EventUnitReaped indicates a stale active unit was failed by the reaper.
	EventUnitReaped EventType = "unit_reaped"
	// EventEvaluationFinished indicates an evaluation pass finished.
	EventEvaluationFinished EventType = "evaluation_finished"
	// EventSessionReset indicates the session state was reset.
	EventSessionReset EventType = "session_reset"
)

// Event represents a state change emitted by the engine.
// Subscribers such as the watch TUI and the run command consume these.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// UnitID is the ID of the related unit, if applicable.
	UnitID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// Message provides additional context about the event.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// EventEmitter handles event emission for the engine.
// It provides a simple, thread-safe way to emit events to subscribers.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the event.
func (e *EventEmitter) Emit(event Event) {
	select {
	case e.events <- event:
		return
	default:
	}

	// Give the receiver a short window to drain before dropping.
	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[orchestrator] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel.
func (e *EventEmitter) Close() {
	close(e.events)
}
