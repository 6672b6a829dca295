// Package meter estimates context-window consumption for the current
// working session. It is a heuristic: file reads, writes, command
// output, and conversation turns are converted to token estimates and
// accumulated against a fixed window size. The orchestration engine
// only consumes the resulting usage ratio.
package meter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultWindowSize is the assumed context window in tokens.
const DefaultWindowSize = 200000

// Characters-per-token heuristics. Code is denser in tokens than prose.
const (
	codeCharsPerToken = 3.5
	textCharsPerToken = 4.0
)

// Usage thresholds mirrored by Status.
const (
	warningThreshold  = 0.5
	criticalThreshold = 0.8
)

// codeExtensions are treated as code for token estimation.
var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true,
	".jsx": true, ".java": true, ".c": true, ".cpp": true, ".h": true,
	".rs": true, ".rb": true, ".sh": true, ".sql": true, ".json": true,
	".yaml": true, ".yml": true, ".toml": true,
}

// Metrics is the persisted session consumption snapshot.
type Metrics struct {
	// EstimatedTokens is the accumulated token estimate.
	EstimatedTokens int `json:"estimated_tokens"`
	// WindowSize is the context window the estimate is measured against.
	WindowSize int `json:"window_size"`
	// FilesRead counts tracked file reads.
	FilesRead int `json:"files_read"`
	// FilesWritten counts tracked file writes.
	FilesWritten int `json:"files_written"`
	// CommandsRun counts tracked command executions.
	CommandsRun int `json:"commands_run"`
	// SessionStart is when tracking began.
	SessionStart time.Time `json:"session_start"`
	// UpdatedAt is the last tracking event.
	UpdatedAt time.Time `json:"updated_at"`
}

// UsageRatio returns consumption as a fraction of the window, clamped
// to [0, 1].
func (m *Metrics) UsageRatio() float64 {
	if m.WindowSize <= 0 {
		return 0
	}
	ratio := float64(m.EstimatedTokens) / float64(m.WindowSize)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// Remaining returns the estimated tokens left in the window.
func (m *Metrics) Remaining() int {
	left := m.WindowSize - m.EstimatedTokens
	if left < 0 {
		return 0
	}
	return left
}

// Status classifies the current usage ratio as ok, warning, or critical.
func (m *Metrics) Status() string {
	switch ratio := m.UsageRatio(); {
	case ratio >= criticalThreshold:
		return "critical"
	case ratio >= warningThreshold:
		return "warning"
	default:
		return "ok"
	}
}

// Meter tracks session consumption in a JSON metrics file.
type Meter struct {
	path       string
	windowSize int
}

// New creates a meter persisting under the given .handoff directory.
// A windowSize of 0 uses DefaultWindowSize.
func New(handoffDir string, windowSize int) *Meter {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Meter{
		path:       filepath.Join(handoffDir, "context_metrics.json"),
		windowSize: windowSize,
	}
}

// Load reads the current metrics. A missing or corrupt file yields a
// fresh zeroed snapshot rather than an error: the meter is a heuristic
// and losing it must never block the caller.
func (m *Meter) Load() *Metrics {
	fresh := &Metrics{
		WindowSize:   m.windowSize,
		SessionStart: time.Now().UTC(),
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return fresh
	}

	metrics := &Metrics{}
	if err := json.Unmarshal(data, metrics); err != nil {
		return fresh
	}
	if metrics.WindowSize <= 0 {
		metrics.WindowSize = m.windowSize
	}
	return metrics
}

func (m *Meter) save(metrics *Metrics) error {
	metrics.UpdatedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// UsageRatio reports current consumption as a fraction in [0, 1].
func (m *Meter) UsageRatio() (float64, error) {
	return m.Load().UsageRatio(), nil
}

// TrackFileRead records a file read of contentLength characters.
func (m *Meter) TrackFileRead(path string, contentLength int) error {
	metrics := m.Load()
	metrics.EstimatedTokens += estimateTokens(contentLength, isCodeFile(path))
	metrics.FilesRead++
	return m.save(metrics)
}

// TrackFileWrite records a file write of contentLength characters.
func (m *Meter) TrackFileWrite(path string, contentLength int) error {
	metrics := m.Load()
	metrics.EstimatedTokens += estimateTokens(contentLength, isCodeFile(path))
	metrics.FilesWritten++
	return m.save(metrics)
}

// TrackCommand records a command execution and its output size.
func (m *Meter) TrackCommand(command string, outputLength int) error {
	metrics := m.Load()
	metrics.EstimatedTokens += estimateTokens(len(command)+outputLength, false)
	metrics.CommandsRun++
	return m.save(metrics)
}

// TrackConversation records one user/assistant exchange.
func (m *Meter) TrackConversation(userLength, assistantLength int) error {
	metrics := m.Load()
	metrics.EstimatedTokens += estimateTokens(userLength+assistantLength, false)
	return m.save(metrics)
}

// AddTokens records an exact token count, for callers that have real
// usage numbers (e.g. API responses) instead of character heuristics.
func (m *Meter) AddTokens(tokens int) error {
	if tokens <= 0 {
		return nil
	}
	metrics := m.Load()
	metrics.EstimatedTokens += tokens
	return m.save(metrics)
}

// Reset zeroes the metrics and restamps the session start.
func (m *Meter) Reset() error {
	return m.save(&Metrics{
		WindowSize:   m.windowSize,
		SessionStart: time.Now().UTC(),
	})
}

// estimateTokens converts a character count to a token estimate. Any
// non-empty content costs at least one token.
func estimateTokens(chars int, isCode bool) int {
	if chars <= 0 {
		return 0
	}
	perToken := textCharsPerToken
	if isCode {
		perToken = codeCharsPerToken
	}
	tokens := int(float64(chars) / perToken)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// isCodeFile returns true when the path looks like a code file.
func isCodeFile(path string) bool {
	return codeExtensions[strings.ToLower(filepath.Ext(path))]
}
