package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify handoff configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/handoff/config.yaml
Project-specific overrides can be placed in .handoff.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
			return nil
		case 1:
			return displayConfigKey(cfg, args[0])
		default:
			return setConfigKey(cfg, args[0], args[1])
		}
	},
}

func configValues(cfg *config.Config) map[string]string {
	apiKeyDisplay := "(not set)"
	if cfg.Agent.APIKey != "" {
		apiKeyDisplay = "****"
	}

	return map[string]string{
		"orchestration.max_per_task":      strconv.Itoa(cfg.Orchestration.MaxPerTask),
		"orchestration.max_per_session":   strconv.Itoa(cfg.Orchestration.MaxPerSession),
		"orchestration.cooldown_seconds":  strconv.Itoa(cfg.Orchestration.CooldownSeconds),
		"orchestration.max_parallel":      strconv.Itoa(cfg.Orchestration.MaxParallel),
		"orchestration.context_threshold": strconv.FormatFloat(cfg.Orchestration.ContextThreshold, 'g', -1, 64),
		"orchestration.min_candidates":    strconv.Itoa(cfg.Orchestration.MinCandidates),
		"orchestration.priority_floor":    strconv.Itoa(cfg.Orchestration.PriorityFloor),
		"orchestration.active_timeout":    cfg.Orchestration.ActiveTimeout.String(),
		"agent.model":                     cfg.Agent.Model,
		"agent.api_key":                   apiKeyDisplay,
		"agent.use_bedrock":               strconv.FormatBool(cfg.Agent.UseBedrock),
		"agent.aws_region":                cfg.Agent.AWSRegion,
		"agent.aws_profile":               cfg.Agent.AWSProfile,
		"agent.max_tokens":                strconv.Itoa(cfg.Agent.MaxTokens),
		"meter.window_size":               strconv.Itoa(cfg.Meter.WindowSize),
		"debug_log":                       cfg.DebugLog,
	}
}

// configKeyOrder keeps display output stable.
var configKeyOrder = []string{
	"orchestration.max_per_task",
	"orchestration.max_per_session",
	"orchestration.cooldown_seconds",
	"orchestration.max_parallel",
	"orchestration.context_threshold",
	"orchestration.min_candidates",
	"orchestration.priority_floor",
	"orchestration.active_timeout",
	"agent.model",
	"agent.api_key",
	"agent.use_bedrock",
	"agent.aws_region",
	"agent.aws_profile",
	"agent.max_tokens",
	"meter.window_size",
	"debug_log",
}

func displayAllConfig(cfg *config.Config) {
	values := configValues(cfg)
	for _, key := range configKeyOrder {
		fmt.Printf("%s: %s\n", key, values[key])
	}
}

func displayConfigKey(cfg *config.Config, key string) error {
	values := configValues(cfg)
	value, ok := values[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	fmt.Println(value)
	return nil
}

func setConfigKey(cfg *config.Config, key, value string) error {
	var err error
	switch key {
	case "orchestration.max_per_task":
		cfg.Orchestration.MaxPerTask, err = strconv.Atoi(value)
	case "orchestration.max_per_session":
		cfg.Orchestration.MaxPerSession, err = strconv.Atoi(value)
	case "orchestration.cooldown_seconds":
		cfg.Orchestration.CooldownSeconds, err = strconv.Atoi(value)
	case "orchestration.max_parallel":
		cfg.Orchestration.MaxParallel, err = strconv.Atoi(value)
	case "orchestration.context_threshold":
		cfg.Orchestration.ContextThreshold, err = strconv.ParseFloat(value, 64)
	case "orchestration.min_candidates":
		cfg.Orchestration.MinCandidates, err = strconv.Atoi(value)
	case "orchestration.priority_floor":
		cfg.Orchestration.PriorityFloor, err = strconv.Atoi(value)
	case "orchestration.active_timeout":
		cfg.Orchestration.ActiveTimeout, err = time.ParseDuration(value)
	case "agent.model":
		cfg.Agent.Model = value
	case "agent.api_key":
		cfg.Agent.APIKey = value
	case "agent.use_bedrock":
		cfg.Agent.UseBedrock, err = strconv.ParseBool(value)
	case "agent.aws_region":
		cfg.Agent.AWSRegion = value
	case "agent.aws_profile":
		cfg.Agent.AWSProfile = value
	case "agent.max_tokens":
		cfg.Agent.MaxTokens, err = strconv.Atoi(value)
	case "meter.window_size":
		cfg.Meter.WindowSize, err = strconv.Atoi(value)
	case "debug_log":
		cfg.DebugLog = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(os.Stdout, "set %s = %s\n", key, value)
	return nil
}
