package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/handoffdev/handoff/internal/orchestrator"
	"github.com/handoffdev/handoff/pkg/models"
)

func sampleReport() *orchestrator.StatusReport {
	return &orchestrator.StatusReport{
		MachineState:      models.StateIdle,
		SessionStart:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TotalDelegations:  3,
		CompletedCount:    2,
		FailedCount:       1,
		TotalSavings:      35000,
		SuccessRate:       2.0 / 3.0,
		SessionRemaining:  17,
		ParallelRemaining: 3,
		Queued: []models.Unit{
			{ID: "aa11bb22", Status: models.UnitQueued, Priority: 10,
				Category: models.CategoryExplore, SubItemText: "explore the session middleware"},
		},
		History: []models.Unit{
			{ID: "cc33dd44", Status: models.UnitCompleted, Priority: 8,
				Category: models.CategoryTest, SubItemText: "write tests for the login flow"},
		},
		LastEvaluation: &models.EvaluationResult{
			ShouldDelegate: false,
			UsageRatio:     0.3,
			Threshold:      0.5,
			Reasons:        []string{"context usage (30%) below threshold (50%)"},
		},
	}
}

func TestViewRendersReport(t *testing.T) {
	app := NewWatchApp(func() (*orchestrator.StatusReport, error) {
		return sampleReport(), nil
	}, nil)

	model, _ := app.Update(StatusMsg{Report: sampleReport()})
	view := model.(*WatchApp).View()

	for _, want := range []string{
		"handoff",
		"Queued (1)",
		"aa11bb22",
		"explore the session middleware",
		"History (1)",
		"35000 tokens",
		"17 left this session",
		"below threshold",
		"hold",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewRendersError(t *testing.T) {
	app := NewWatchApp(nil, nil)

	model, _ := app.Update(StatusMsg{Err: errors.New("state locked")})
	view := model.(*WatchApp).View()

	if !strings.Contains(view, "state locked") {
		t.Errorf("view missing the error, got %q", view)
	}
}

func TestViewLoadingBeforeFirstStatus(t *testing.T) {
	app := NewWatchApp(nil, nil)
	if !strings.Contains(app.View(), "loading state") {
		t.Error("expected the loading view before the first report")
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		app := NewWatchApp(nil, nil)
		app.report = sampleReport()

		var msg tea.KeyMsg
		switch key {
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}

		_, cmd := app.Update(msg)
		if cmd == nil {
			t.Errorf("key %s: expected a quit command", key)
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %s: expected tea.Quit", key)
		}
	}
}

func TestFileChangeTriggersRefresh(t *testing.T) {
	calls := 0
	app := NewWatchApp(func() (*orchestrator.StatusReport, error) {
		calls++
		return sampleReport(), nil
	}, nil)

	_, cmd := app.Update(FileChangedMsg{})
	if cmd == nil {
		t.Fatal("expected a refresh command")
	}
	// Drain the batch so the fetch actually runs.
	drainCmd(t, cmd)
	if calls == 0 {
		t.Error("expected the provider to be called on a file change")
	}
}

// drainCmd executes a command tree, following batches one level deep.
func drainCmd(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				c()
			}
		}
	}
}
