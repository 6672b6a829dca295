package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the delegation rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := requireHandoffDir()
		if err != nil {
			return err
		}
		set, err := rules.Load(rules.FilePath(dir))
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}

		master := color.RedString("disabled")
		if set.Enabled {
			master = color.GreenString("enabled")
		}
		fmt.Printf("delegation: %s\n\n", master)

		for _, r := range set.Rules {
			marker := color.RedString("off")
			if r.Enabled {
				marker = color.GreenString("on ")
			}
			fmt.Printf("%s  p%-2d %-13s -> %-9s patterns: %s\n",
				marker, r.Priority, r.Name, r.Category, strings.Join(r.Patterns, ", "))
		}
		return nil
	},
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable [rule]",
	Short: "Enable delegation, or a single rule",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRules(args, true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable [rule]",
	Short: "Disable delegation, or a single rule",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRules(args, false)
	},
}

func toggleRules(args []string, enabled bool) error {
	dir, err := requireHandoffDir()
	if err != nil {
		return err
	}
	path := rules.FilePath(dir)
	set, err := rules.Load(path)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	verb := "disabled"
	if enabled {
		verb = "enabled"
	}

	if len(args) == 0 {
		set.Enabled = enabled
		if err := rules.Save(path, set); err != nil {
			return fmt.Errorf("save rules: %w", err)
		}
		fmt.Printf("delegation %s\n", verb)
		return nil
	}

	classifier := rules.NewClassifier(set)
	var ok bool
	if enabled {
		ok = classifier.EnableRule(args[0])
	} else {
		ok = classifier.DisableRule(args[0])
	}
	if !ok {
		return fmt.Errorf("no rule named %q", args[0])
	}
	if err := rules.Save(path, set); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	fmt.Printf("rule %s %s\n", args[0], verb)
	return nil
}

func init() {
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
}
