// Package rules implements the delegation rule classifier. It decides
// which sub-items are worth offloading to a helper agent, what category
// of agent should take them, and what the offload is expected to save.
package rules

import (
	"regexp"
	"strings"

	"github.com/handoffdev/handoff/pkg/models"
)

// Rule matches sub-item descriptions against patterns and maps them to
// a helper agent category.
type Rule struct {
	// Name identifies the rule.
	Name string `yaml:"name" json:"name"`
	// Patterns are regex patterns matched against sub-item text. A
	// pattern that fails to compile falls back to substring matching.
	Patterns []string `yaml:"patterns" json:"patterns"`
	// Category is the helper agent category this rule delegates to.
	Category models.Category `yaml:"category" json:"category"`
	// Priority ranks competing rules, 1-10 (higher wins).
	Priority int `yaml:"priority" json:"priority"`
	// Enabled toggles the rule without removing it.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Constraints are instructions passed to the helper agent.
	Constraints []string `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// Matches returns true if any of the rule's patterns match the text.
// Matching is case-insensitive. Disabled rules never match.
func (r *Rule) Matches(text string) bool {
	if !r.Enabled {
		return false
	}
	lower := strings.ToLower(text)
	for _, pattern := range r.Patterns {
		p := strings.ToLower(pattern)
		re, err := regexp.Compile(p)
		if err != nil {
			// Invalid regex, fall back to substring match.
			if strings.Contains(lower, p) {
				return true
			}
			continue
		}
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// Set is the full classifier configuration: the master switch, the
// rule list, and prompt-generation settings. It persists as
// .handoff/rules.yaml.
type Set struct {
	// Enabled is the master delegation switch.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// SummaryMaxWords caps the helper agent's summary length.
	SummaryMaxWords int `yaml:"summary_max_words" json:"summary_max_words"`
	// DefaultConstraints apply to every delegation regardless of rule.
	DefaultConstraints []string `yaml:"default_constraints" json:"default_constraints"`
	// Rules is the ordered rule list.
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Classifier evaluates sub-item text against a rule set.
type Classifier struct {
	set *Set
}

// NewClassifier creates a classifier over the given rule set.
func NewClassifier(set *Set) *Classifier {
	if set == nil {
		set = DefaultSet()
	}
	return &Classifier{set: set}
}

// IsEnabled reports whether delegation is enabled at all.
func (c *Classifier) IsEnabled() bool {
	return c.set.Enabled
}

// Set returns the underlying rule set.
func (c *Classifier) Set() *Set {
	return c.set
}

// Match returns the highest-priority enabled rule matching the text.
// The second return value is false when no rule matches or delegation
// is disabled.
func (c *Classifier) Match(text string) (models.RuleMatch, bool) {
	if !c.set.Enabled {
		return models.RuleMatch{}, false
	}

	var best *Rule
	for i := range c.set.Rules {
		r := &c.set.Rules[i]
		if !r.Matches(text) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}
	if best == nil {
		return models.RuleMatch{}, false
	}

	return models.RuleMatch{
		RuleName:    best.Name,
		Category:    best.Category,
		Priority:    best.Priority,
		Constraints: best.Constraints,
	}, true
}

// EnableRule enables the named rule. Returns false if no rule has that name.
func (c *Classifier) EnableRule(name string) bool {
	return c.setRuleEnabled(name, true)
}

// DisableRule disables the named rule. Returns false if no rule has that name.
func (c *Classifier) DisableRule(name string) bool {
	return c.setRuleEnabled(name, false)
}

func (c *Classifier) setRuleEnabled(name string, enabled bool) bool {
	for i := range c.set.Rules {
		if c.set.Rules[i].Name == name {
			c.set.Rules[i].Enabled = enabled
			return true
		}
	}
	return false
}
