// Package config handles configuration loading for handoff.
// It supports XDG config paths, project-level overrides, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for handoff.
type Config struct {
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
	Agent         AgentConfig         `mapstructure:"agent"`
	Meter         MeterConfig         `mapstructure:"meter"`
	// DebugLog enables the engine debug log: a file path, or "1" /
	// "true" for the default location under the state directory.
	DebugLog string `mapstructure:"debug_log"`
}

// OrchestrationConfig holds the delegation engine's limits and
// thresholds. Each limit is enforced independently.
type OrchestrationConfig struct {
	// MaxPerTask caps delegations for a single parent task.
	MaxPerTask int `mapstructure:"max_per_task"`
	// MaxPerSession caps total delegations in a session.
	MaxPerSession int `mapstructure:"max_per_session"`
	// CooldownSeconds is the minimum time between delegation starts.
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
	// MaxParallel caps concurrently active units.
	MaxParallel int `mapstructure:"max_parallel"`
	// ContextThreshold is the usage fraction (0-1) that triggers delegation.
	ContextThreshold float64 `mapstructure:"context_threshold"`
	// MinCandidates is the minimum eligible sub-items needed to trigger.
	MinCandidates int `mapstructure:"min_candidates"`
	// PriorityFloor is the minimum rule priority to consider.
	PriorityFloor int `mapstructure:"priority_floor"`
	// ActiveTimeout auto-fails units active longer than this.
	// Zero disables the reaper.
	ActiveTimeout time.Duration `mapstructure:"active_timeout"`
}

// AgentConfig holds helper-agent execution settings.
type AgentConfig struct {
	// Model is the Claude model used to execute delegations.
	Model string `mapstructure:"model"`
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes requests through AWS Bedrock.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
	// MaxTokens caps the helper agent's response length.
	MaxTokens int `mapstructure:"max_tokens"`
}

// MeterConfig holds resource meter settings.
type MeterConfig struct {
	// WindowSize is the context window in tokens the usage ratio is
	// measured against.
	WindowSize int `mapstructure:"window_size"`
}

// Load loads configuration with the following precedence
// (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY)
//  2. Project config (.handoff.yaml in current directory or a parent)
//  3. User config (~/.config/handoff/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("agent.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Agent.APIKey = os.ExpandEnv(cfg.Agent.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Agent.APIKey = os.ExpandEnv(cfg.Agent.APIKey)
	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("orchestration.max_per_task", cfg.Orchestration.MaxPerTask)
	v.Set("orchestration.max_per_session", cfg.Orchestration.MaxPerSession)
	v.Set("orchestration.cooldown_seconds", cfg.Orchestration.CooldownSeconds)
	v.Set("orchestration.max_parallel", cfg.Orchestration.MaxParallel)
	v.Set("orchestration.context_threshold", cfg.Orchestration.ContextThreshold)
	v.Set("orchestration.min_candidates", cfg.Orchestration.MinCandidates)
	v.Set("orchestration.priority_floor", cfg.Orchestration.PriorityFloor)
	v.Set("orchestration.active_timeout", cfg.Orchestration.ActiveTimeout.String())
	v.Set("agent.model", cfg.Agent.Model)
	v.Set("agent.use_bedrock", cfg.Agent.UseBedrock)
	v.Set("agent.aws_region", cfg.Agent.AWSRegion)
	v.Set("agent.aws_profile", cfg.Agent.AWSProfile)
	v.Set("agent.max_tokens", cfg.Agent.MaxTokens)
	v.Set("meter.window_size", cfg.Meter.WindowSize)
	v.Set("debug_log", cfg.DebugLog)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the project config file path if one exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("orchestration.max_per_task", 5)
	v.SetDefault("orchestration.max_per_session", 20)
	v.SetDefault("orchestration.cooldown_seconds", 60)
	v.SetDefault("orchestration.max_parallel", 3)
	v.SetDefault("orchestration.context_threshold", 0.5)
	v.SetDefault("orchestration.min_candidates", 1)
	v.SetDefault("orchestration.priority_floor", 5)
	v.SetDefault("orchestration.active_timeout", "0s")

	v.SetDefault("agent.model", "")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.use_bedrock", false)
	v.SetDefault("agent.max_tokens", 4096)

	v.SetDefault("meter.window_size", 200000)
	v.SetDefault("debug_log", "")
}

// getUserConfigDir returns the XDG config directory for handoff.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "handoff")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "handoff")
	}
	return filepath.Join(home, ".config", "handoff")
}

// findProjectConfig searches for .handoff.yaml in the current directory
// and its parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".handoff.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Orchestration: OrchestrationConfig{
			MaxPerTask:       5,
			MaxPerSession:    20,
			CooldownSeconds:  60,
			MaxParallel:      3,
			ContextThreshold: 0.5,
			MinCandidates:    1,
			PriorityFloor:    5,
		},
		Agent: AgentConfig{
			MaxTokens: 4096,
		},
		Meter: MeterConfig{
			WindowSize: 200000,
		},
	}
}
