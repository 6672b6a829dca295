package rules

import (
	"fmt"
	"strings"

	"github.com/handoffdev/handoff/pkg/models"
)

// InstructionRequest carries everything needed to render the
// delegation prompt for one sub-item.
type InstructionRequest struct {
	TaskID      string
	TaskName    string
	SubItemText string
	Match       models.RuleMatch
	// RelevantFiles optionally lists files the helper agent should look at.
	RelevantFiles []string
	// AdditionalContext optionally carries extra background text.
	AdditionalContext string
}

// Instructions renders the delegation prompt for a matched sub-item.
// The engine stores the result on the unit verbatim.
func (c *Classifier) Instructions(taskID, taskName, subItemText string, match models.RuleMatch) string {
	return c.Render(InstructionRequest{
		TaskID:      taskID,
		TaskName:    taskName,
		SubItemText: subItemText,
		Match:       match,
	})
}

// Render renders the full delegation prompt, including the optional
// file list and background context.
func (c *Classifier) Render(req InstructionRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Delegated Task: %s\n\n", req.SubItemText)
	fmt.Fprintf(&b, "**Task:** %s (ID: %s)\n", req.TaskName, req.TaskID)
	fmt.Fprintf(&b, "**Agent Category:** %s\n\n", req.Match.Category)
	fmt.Fprintf(&b, "### Task Description\n%s\n\n", req.SubItemText)

	b.WriteString("### Context\n")
	if req.AdditionalContext != "" {
		b.WriteString(req.AdditionalContext)
		b.WriteString("\n\n")
	}

	if len(req.RelevantFiles) > 0 {
		b.WriteString("### Relevant Files\n")
		for _, f := range req.RelevantFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("### Constraints\n")
	for _, constraint := range c.set.DefaultConstraints {
		fmt.Fprintf(&b, "- %s\n", constraint)
	}
	for _, constraint := range req.Match.Constraints {
		fmt.Fprintf(&b, "- %s\n", constraint)
	}

	fmt.Fprintf(&b, `
### Output Requirements
Provide a concise summary (under %d words) containing:

1. **What was accomplished** - Brief description of work done
2. **Files created/modified** - List with absolute paths
3. **Key decisions made** - Important choices and rationale
4. **Issues encountered** - Any problems or blockers
5. **Recommended next steps** - What should happen next
`, c.set.SummaryMaxWords)

	return b.String()
}
