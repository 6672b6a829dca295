package orchestrator

import (
	"time"

	"github.com/handoffdev/handoff/internal/state"
	"github.com/handoffdev/handoff/pkg/models"
)

// ResourceMeter reports current context consumption as a fraction of
// the budget.
type ResourceMeter interface {
	UsageRatio() (float64, error)
}

// Classifier maps sub-item text to a delegation rule. The concrete
// matching strategy is swappable behind this interface.
type Classifier interface {
	// IsEnabled reports whether delegation is enabled at all.
	IsEnabled() bool
	// Match returns the best rule match for the text, if any.
	Match(text string) (models.RuleMatch, bool)
	// EstimateSavings returns the estimated context tokens saved by
	// offloading a unit of the given category.
	EstimateSavings(category models.Category) int
	// Instructions renders the delegation prompt for a matched sub-item.
	Instructions(taskID, taskName, subItemText string, match models.RuleMatch) string
}

// Tracker is the best-effort delegation telemetry sink. Its failures
// never undo a lifecycle transition.
type Tracker interface {
	Record(unit *models.Unit) error
	RecordOutcome(unitID string, status models.UnitStatus, summary string) error
}

// Engine is the delegation orchestration state machine. All public
// methods are single read-modify-write cycles against the persisted
// snapshot, serialized by an advisory file lock.
type Engine struct {
	dir        string
	limits     Limits
	meter      ResourceMeter
	tasks      state.TaskSource
	classifier Classifier
	tracker    Tracker
	emitter    *EventEmitter
	logger     *DebugLogger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracker attaches the telemetry sink.
func WithTracker(t Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// WithEmitter attaches an event emitter for lifecycle events.
func WithEmitter(em *EventEmitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithLogger attaches a debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// withClock overrides the engine clock (tests only).
func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine persisting its snapshot under handoffDir.
func New(handoffDir string, limits Limits, meter ResourceMeter, tasks state.TaskSource, classifier Classifier, opts ...Option) *Engine {
	e := &Engine{
		dir:        handoffDir,
		limits:     limits,
		meter:      meter,
		tasks:      tasks,
		classifier: classifier,
		logger:     NopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Limits returns the engine's configured limits.
func (e *Engine) Limits() Limits {
	return e.limits
}

// Reset clears the session: counters return to zero, all three unit
// collections are emptied, and the session start is re-stamped.
func (e *Engine) Reset() error {
	release, err := e.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	if err := e.save(NewSnapshot(e.now())); err != nil {
		return err
	}

	e.emit(Event{Type: EventSessionReset, Timestamp: e.now()})
	e.debugf("session reset")
	return nil
}

// emit sends an event if an emitter is attached.
func (e *Engine) emit(ev Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

// debugf logs a message if a logger is attached.
func (e *Engine) debugf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Log(format, args...)
	}
}
