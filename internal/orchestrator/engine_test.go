package orchestrator

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/handoffdev/handoff/internal/state"
	"github.com/handoffdev/handoff/pkg/models"
)

type fakeMeter struct {
	ratio float64
	err   error
}

func (m *fakeMeter) UsageRatio() (float64, error) {
	return m.ratio, m.err
}

type fakeTasks struct {
	active    *state.Task
	tasks     map[string]*state.Task
	activeErr error
	marked    []int
	markErr   error
}

func (f *fakeTasks) ActiveTask() (*state.Task, error) {
	return f.active, f.activeErr
}

func (f *fakeTasks) GetTask(id string) (*state.Task, error) {
	return f.tasks[id], nil
}

func (f *fakeTasks) MarkSubItemDone(taskID string, ref int) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	f.marked = append(f.marked, ref)
	return true, nil
}

type fakeClassifier struct {
	enabled bool
	matches map[string]models.RuleMatch
	savings map[models.Category]int
}

func (c *fakeClassifier) IsEnabled() bool {
	return c.enabled
}

func (c *fakeClassifier) Match(text string) (models.RuleMatch, bool) {
	for needle, m := range c.matches {
		if strings.Contains(text, needle) {
			return m, true
		}
	}
	return models.RuleMatch{}, false
}

func (c *fakeClassifier) EstimateSavings(category models.Category) int {
	if v, ok := c.savings[category]; ok {
		return v
	}
	return 1000
}

func (c *fakeClassifier) Instructions(taskID, taskName, subItemText string, match models.RuleMatch) string {
	return "offload: " + subItemText
}

type fakeTracker struct {
	mu       sync.Mutex
	recorded []string
	outcomes map[string]models.UnitStatus
	err      error
}

func (f *fakeTracker) Record(unit *models.Unit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, unit.ID)
	return f.err
}

func (f *fakeTracker) RecordOutcome(unitID string, status models.UnitStatus, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes == nil {
		f.outcomes = make(map[string]models.UnitStatus)
	}
	f.outcomes[unitID] = status
	return f.err
}

// fakeClock is an adjustable clock so cooldown and timeout checks are
// deterministic.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testLimits() Limits {
	return Limits{
		MaxPerTask:       5,
		MaxPerSession:    20,
		Cooldown:         60 * time.Second,
		MaxParallel:      3,
		ContextThreshold: 0.5,
		MinCandidates:    1,
		PriorityFloor:    5,
	}
}

// fourItemTask is a task with four pending sub-items, two of which the
// test classifier matches above the priority floor.
func fourItemTask() *state.Task {
	return &state.Task{
		ID:     "T1",
		Name:   "Auth rework",
		Status: state.TaskInProgress,
		SubItems: []state.SubItem{
			{Ref: 0, Text: "explore the session middleware"},
			{Ref: 1, Text: "write tests for the login flow"},
			{Ref: 2, Text: "update the changelog"},
			{Ref: 3, Text: "ping the design channel"},
		},
		CreatedAt: time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
	}
}

func matchingClassifier() *fakeClassifier {
	return &fakeClassifier{
		enabled: true,
		matches: map[string]models.RuleMatch{
			"explore": {RuleName: "exploration", Category: models.CategoryExplore, Priority: 10},
			"tests":   {RuleName: "testing", Category: models.CategoryTest, Priority: 8},
		},
		savings: map[models.Category]int{
			models.CategoryExplore: 22000,
			models.CategoryTest:    13000,
		},
	}
}

type testEnv struct {
	engine     *Engine
	meter      *fakeMeter
	tasks      *fakeTasks
	classifier *fakeClassifier
	tracker    *fakeTracker
	clock      *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		meter:      &fakeMeter{ratio: 0.6},
		tasks:      &fakeTasks{active: fourItemTask()},
		classifier: matchingClassifier(),
		tracker:    &fakeTracker{},
		clock:      newFakeClock(),
	}
	env.engine = New(t.TempDir(), testLimits(), env.meter, env.tasks, env.classifier,
		WithTracker(env.tracker),
		withClock(env.clock.Now),
	)
	return env
}

func TestResetClearsState(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.engine.BuildQueue(""); err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	queue, err := env.engine.Queue()
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue) == 0 {
		t.Fatal("expected a non-empty queue before reset")
	}

	if err := env.engine.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	report, err := env.engine.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(report.Queued) != 0 || len(report.Active) != 0 || len(report.History) != 0 {
		t.Errorf("expected empty collections after reset, got %d/%d/%d",
			len(report.Queued), len(report.Active), len(report.History))
	}
	if report.TotalDelegations != 0 || report.TotalSavings != 0 {
		t.Errorf("expected zeroed counters, got delegations=%d savings=%d",
			report.TotalDelegations, report.TotalSavings)
	}
	if report.MachineState != models.StateIdle {
		t.Errorf("expected idle state, got %s", report.MachineState)
	}
	if !report.SessionStart.Equal(env.clock.Now().UTC()) {
		t.Error("expected session start re-stamped to now")
	}
}

func TestStatusRemainingSlots(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.engine.BuildQueue(""); err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	queue, _ := env.engine.Queue()
	if len(queue) != 2 {
		t.Fatalf("expected 2 queued units, got %d", len(queue))
	}
	if _, err := env.engine.Start(queue[0].ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	report, err := env.engine.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.SessionRemaining != 19 {
		t.Errorf("SessionRemaining = %d, want 19", report.SessionRemaining)
	}
	if report.ParallelRemaining != 2 {
		t.Errorf("ParallelRemaining = %d, want 2", report.ParallelRemaining)
	}
}

func TestStatusSuccessRate(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.engine.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.SuccessRate != 0 {
		t.Errorf("SuccessRate with no terminal units = %v, want 0", report.SuccessRate)
	}

	snap, _ := env.engine.load()
	snap.CompletedCount = 3
	snap.FailedCount = 1
	if err := env.engine.save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	report, err = env.engine.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.SuccessRate != 0.75 {
		t.Errorf("SuccessRate = %v, want 0.75", report.SuccessRate)
	}
}
