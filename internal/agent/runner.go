package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/handoffdev/handoff/pkg/models"
)

// systemPrompt frames every helper agent call. The unit's rendered
// instructions carry the task-specific constraints.
const systemPrompt = `You are a helper agent executing one delegated sub-task on behalf of a ` +
	`primary coding session. Follow the instructions exactly, stay within the ` +
	`stated constraints, and finish with the requested summary so the primary ` +
	`session can integrate your work without re-reading everything you did.`

// Usage is the API-reported token consumption of one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// Result is the outcome of executing one delegation unit.
type Result struct {
	// Summary is the helper agent's response text.
	Summary string
	// Usage is what the call cost in tokens.
	Usage Usage
}

// completer is the single API call the runner needs; Client implements
// it. Tests substitute a canned implementation.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, Usage, error)
}

// Runner executes delegation units one at a time.
type Runner struct {
	client completer
}

// NewRunner creates a runner backed by the given client.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client}
}

// Execute sends the unit's instructions to a helper agent and returns
// the summary. An empty response is an error so a silent model failure
// never completes a unit with a blank summary.
func (r *Runner) Execute(ctx context.Context, unit *models.Unit) (*Result, error) {
	if unit == nil {
		return nil, fmt.Errorf("no unit to execute")
	}
	if strings.TrimSpace(unit.Instructions) == "" {
		return nil, fmt.Errorf("unit %s has no instructions", unit.ID)
	}

	text, usage, err := r.client.complete(ctx, systemPrompt, unit.Instructions)
	if err != nil {
		return nil, fmt.Errorf("execute unit %s: %w", unit.ID, err)
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		return nil, fmt.Errorf("execute unit %s: empty response", unit.ID)
	}

	return &Result{Summary: summary, Usage: usage}, nil
}
