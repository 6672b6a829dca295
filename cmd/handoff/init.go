package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/rules"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a handoff project",
	Long: `Initialize a directory for use with handoff.

This command sets up everything needed:
  - Creates the .handoff state directory
  - Writes the default delegation rules to .handoff/rules.yaml
  - Creates the task store database
  - Writes an example .handoff.yaml project config

The directory argument is optional and defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
}

// exampleProjectConfig is written as .handoff.yaml on init.
const exampleProjectConfig = `# handoff project configuration
orchestration:
  max_per_task: 5
  max_per_session: 20
  cooldown_seconds: 60
  max_parallel: 3
  context_threshold: 0.5
  min_candidates: 1
  priority_floor: 5
  # active_timeout: 30m   # auto-fail units stuck active this long

agent:
  model: ""               # default model when empty
  use_bedrock: false
  max_tokens: 4096

meter:
  window_size: 200000
`

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}
	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", absPath, err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	dir := filepath.Join(absPath, stateDirName)
	if stateDirOverride != "" {
		if dir, err = filepath.Abs(stateDirOverride); err != nil {
			return fmt.Errorf("resolve state directory: %w", err)
		}
	}

	if _, err := os.Stat(dir); err == nil && !initForce {
		fmt.Printf("%s %s already exists (use --force to reinitialize)\n", yellow("!"), dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	fmt.Printf("%s created %s\n", green("✓"), dir)

	rulesPath := rules.FilePath(dir)
	if err := rules.Save(rulesPath, rules.DefaultSet()); err != nil {
		return fmt.Errorf("write default rules: %w", err)
	}
	fmt.Printf("%s wrote default rules to %s\n", green("✓"), rulesPath)

	db, err := openStore(dir)
	if err != nil {
		return err
	}
	db.Close()
	fmt.Printf("%s created task store\n", green("✓"))

	configPath := filepath.Join(absPath, ".handoff.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(exampleProjectConfig), 0644); err != nil {
			return fmt.Errorf("write project config: %w", err)
		}
		fmt.Printf("%s wrote example config to %s\n", green("✓"), configPath)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  handoff task add \"My task\" -i \"explore the codebase\" -i \"write tests\"")
	fmt.Println("  handoff rules enable   # delegation starts disabled")
	fmt.Println("  handoff evaluate")
	return nil
}
