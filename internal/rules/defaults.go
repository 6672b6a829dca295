package rules

import "github.com/handoffdev/handoff/pkg/models"

// fullCostEstimates is the estimated context cost of doing a category
// of work inline, in tokens.
var fullCostEstimates = map[models.Category]int{
	models.CategoryExplore:  25000,
	models.CategoryTest:     18000,
	models.CategoryDocument: 12000,
	models.CategoryReview:   20000,
	models.CategoryGeneral:  15000,
}

// summaryCostEstimates is the estimated cost of the summary a helper
// agent returns to the main context, in tokens.
var summaryCostEstimates = map[models.Category]int{
	models.CategoryExplore:  3000,
	models.CategoryTest:     5000,
	models.CategoryDocument: 3000,
	models.CategoryReview:   5000,
	models.CategoryGeneral:  4000,
}

// EstimateSavings returns the estimated context tokens saved by
// offloading a unit of the given category: the inline cost minus the
// cost of the returned summary. Unknown categories use the general
// estimates. The result is never negative.
func (c *Classifier) EstimateSavings(category models.Category) int {
	full, ok := fullCostEstimates[category]
	if !ok {
		full = fullCostEstimates[models.CategoryGeneral]
	}
	summary, ok := summaryCostEstimates[category]
	if !ok {
		summary = summaryCostEstimates[models.CategoryGeneral]
	}
	if summary > full {
		return 0
	}
	return full - summary
}

// DefaultSet returns the built-in rule set. Delegation starts disabled;
// `handoff init` writes this set to .handoff/rules.yaml for editing.
func DefaultSet() *Set {
	return &Set{
		Enabled:         false,
		SummaryMaxWords: 500,
		DefaultConstraints: []string{
			"Keep summaries concise to preserve main agent context",
			"Report file paths as absolute paths",
			"Include specific line numbers when relevant",
		},
		Rules: []Rule{
			{
				Name: "exploration",
				Patterns: []string{
					`explore.*`, `investigate.*`, `find.*`, `discover.*`,
					`search.*`, `analyze.*codebase`, `understand.*`,
				},
				Category: models.CategoryExplore,
				Priority: 10,
				Enabled:  true,
				Constraints: []string{
					"Read-only operations",
					"Focus on file structure and patterns",
				},
			},
			{
				Name: "testing",
				Patterns: []string{
					`test.*`, `write.*test.*`, `unit test.*`, `e2e.*`,
					`integration test.*`, `add.*test.*`,
				},
				Category: models.CategoryTest,
				Priority: 8,
				Enabled:  true,
				Constraints: []string{
					"Use project test framework",
					"Include edge cases",
					"Mock external services",
				},
			},
			{
				Name: "review",
				Patterns: []string{
					`review.*`, `audit.*`, `check.*`, `validate.*`,
					`security.*`, `performance.*`,
				},
				Category: models.CategoryReview,
				Priority: 7,
				Enabled:  true,
				Constraints: []string{
					"Focus on critical issues",
					"Provide actionable feedback",
				},
			},
			{
				Name: "documentation",
				Patterns: []string{
					`document.*`, `doc.*`, `readme.*`, `comment.*`,
					`write.*doc.*`, `update.*doc.*`,
				},
				Category: models.CategoryDocument,
				Priority: 6,
				Enabled:  true,
				Constraints: []string{
					"Follow project doc conventions",
					"Be concise",
					"Include examples",
				},
			},
		},
	}
}
