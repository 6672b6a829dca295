// Package tui provides the terminal user interface for handoff.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/handoffdev/handoff/internal/orchestrator"
)

// refreshInterval is the fallback poll rate when no file change
// arrives.
const refreshInterval = 2 * time.Second

// StatusProvider supplies the current engine status for display.
type StatusProvider func() (*orchestrator.StatusReport, error)

// StatusMsg carries a fresh status report into the model.
type StatusMsg struct {
	Report *orchestrator.StatusReport
	Err    error
}

// FileChangedMsg signals that the watched state directory changed.
type FileChangedMsg struct{}

// tickMsg drives the fallback refresh.
type tickMsg time.Time

// WatchApp is the bubbletea model for the live delegation dashboard.
// It refreshes when the persisted snapshot changes on disk and falls
// back to periodic polling when file events are unavailable.
type WatchApp struct {
	status  StatusProvider
	watcher *fsnotify.Watcher

	spinner  spinner.Model
	report   *orchestrator.StatusReport
	err      error
	width    int
	height   int
	quitting bool
}

// NewWatchApp creates a watch app polling the given provider. The
// watcher may be nil, in which case only the poll timer refreshes.
func NewWatchApp(status StatusProvider, watcher *fsnotify.Watcher) *WatchApp {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return &WatchApp{
		status:  status,
		watcher: watcher,
		spinner: s,
		width:   80,
		height:  24,
	}
}

// NewDirWatcher creates an fsnotify watcher on the handoff state
// directory. The caller owns closing it.
func NewDirWatcher(handoffDir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(handoffDir); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// Init starts the spinner, the poll timer, the file watcher, and the
// first status fetch.
func (a *WatchApp) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, a.fetchStatus(), a.tick()}
	if a.watcher != nil {
		cmds = append(cmds, a.waitForChange())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (a *WatchApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			a.quitting = true
			return a, tea.Quit
		case "r":
			return a, a.fetchStatus()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case StatusMsg:
		a.report = msg.Report
		a.err = msg.Err
		return a, nil

	case FileChangedMsg:
		return a, tea.Batch(a.fetchStatus(), a.waitForChange())

	case tickMsg:
		return a, tea.Batch(a.fetchStatus(), a.tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// fetchStatus loads the latest report off the UI goroutine.
func (a *WatchApp) fetchStatus() tea.Cmd {
	status := a.status
	return func() tea.Msg {
		report, err := status()
		return StatusMsg{Report: report, Err: err}
	}
}

// tick schedules the next fallback refresh.
func (a *WatchApp) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks on the next file event. Write bursts from the
// atomic temp-then-rename save collapse into a single refresh because
// fetchStatus always reads the current file.
func (a *WatchApp) waitForChange() tea.Cmd {
	watcher := a.watcher
	if watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					return FileChangedMsg{}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}
