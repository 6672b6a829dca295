package models

// Category identifies the kind of helper agent a sub-item is offloaded to.
type Category string

const (
	// CategoryExplore covers codebase exploration and investigation.
	CategoryExplore Category = "explore"
	// CategoryTest covers writing and extending tests.
	CategoryTest Category = "test"
	// CategoryDocument covers documentation work.
	CategoryDocument Category = "document"
	// CategoryReview covers review and audit work.
	CategoryReview Category = "review"
	// CategoryGeneral is the fallback category.
	CategoryGeneral Category = "general"
)

// Valid returns true if the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryExplore, CategoryTest, CategoryDocument, CategoryReview, CategoryGeneral:
		return true
	default:
		return false
	}
}

// RuleMatch is the classifier's verdict for one sub-item: the rule that
// matched and the parameters the engine needs to rank and queue it.
type RuleMatch struct {
	// RuleName is the name of the matching rule.
	RuleName string `json:"rule_name"`
	// Category is the helper agent category the rule delegates to.
	Category Category `json:"category"`
	// Priority is the rule's priority (higher matches win).
	Priority int `json:"priority"`
	// Constraints are rule-specific constraints for the helper agent.
	Constraints []string `json:"constraints,omitempty"`
}
