package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FilePath returns the rules file path under a project's .handoff directory.
func FilePath(handoffDir string) string {
	return filepath.Join(handoffDir, "rules.yaml")
}

// Load reads a rule set from the given YAML file. A missing file yields
// the default set; a malformed file is an error so a typo in a rule
// never silently disables delegation policy.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	set := &Set{}
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	if set.SummaryMaxWords <= 0 {
		set.SummaryMaxWords = DefaultSet().SummaryMaxWords
	}
	if len(set.Rules) == 0 {
		set.Rules = DefaultSet().Rules
	}
	return set, nil
}

// Save writes the rule set to the given path, creating parent
// directories as needed.
func Save(path string, set *Set) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create rules directory: %w", err)
	}

	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}
	return nil
}
