package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/config"
	"github.com/handoffdev/handoff/internal/meter"
)

var trackWrite bool
var trackOutputChars int

// newMeter opens just the context meter. Track commands are meant to
// be called from editor/session hooks, so they skip the database and
// engine the other commands wire up.
func newMeter() (*meter.Meter, error) {
	dir, err := requireHandoffDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return meter.New(dir, cfg.Meter.WindowSize), nil
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Feed the context meter from session hooks",
	Long: `Record context consumption as it happens in the primary session.
Wire these into your harness hooks so the evaluate threshold reflects
real activity:

  handoff track file <path> <chars>          # file read
  handoff track file <path> <chars> --write  # file write
  handoff track command <command> -o <chars> # command + output size
  handoff track conversation <user> <asst>   # one exchange, in chars`,
}

var trackFileCmd = &cobra.Command{
	Use:   "file <path> <chars>",
	Short: "Record a file read or write",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chars, err := strconv.Atoi(args[1])
		if err != nil || chars < 0 {
			return fmt.Errorf("invalid character count %q", args[1])
		}
		m, err := newMeter()
		if err != nil {
			return err
		}
		if trackWrite {
			if err := m.TrackFileWrite(args[0], chars); err != nil {
				return fmt.Errorf("track file write: %w", err)
			}
			fmt.Printf("tracked file write: %s (%d chars)\n", args[0], chars)
		} else {
			if err := m.TrackFileRead(args[0], chars); err != nil {
				return fmt.Errorf("track file read: %w", err)
			}
			fmt.Printf("tracked file read: %s (%d chars)\n", args[0], chars)
		}
		printUsage(m)
		return nil
	},
}

var trackCommandCmd = &cobra.Command{
	Use:   "command <command>",
	Short: "Record a command execution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if trackOutputChars < 0 {
			return fmt.Errorf("invalid output size %d", trackOutputChars)
		}
		m, err := newMeter()
		if err != nil {
			return err
		}
		if err := m.TrackCommand(args[0], trackOutputChars); err != nil {
			return fmt.Errorf("track command: %w", err)
		}
		fmt.Printf("tracked command: %s\n", truncateCommand(args[0]))
		printUsage(m)
		return nil
	},
}

var trackConversationCmd = &cobra.Command{
	Use:   "conversation <user-chars> <assistant-chars>",
	Short: "Record one user/assistant exchange",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userChars, err := strconv.Atoi(args[0])
		if err != nil || userChars < 0 {
			return fmt.Errorf("invalid user character count %q", args[0])
		}
		asstChars, err := strconv.Atoi(args[1])
		if err != nil || asstChars < 0 {
			return fmt.Errorf("invalid assistant character count %q", args[1])
		}
		m, err := newMeter()
		if err != nil {
			return err
		}
		if err := m.TrackConversation(userChars, asstChars); err != nil {
			return fmt.Errorf("track conversation: %w", err)
		}
		fmt.Printf("tracked exchange (%d + %d chars)\n", userChars, asstChars)
		printUsage(m)
		return nil
	},
}

func printUsage(m *meter.Meter) {
	metrics := m.Load()
	fmt.Printf("context usage: %.1f%%\n", metrics.UsageRatio()*100)
}

func truncateCommand(command string) string {
	if len(command) > 50 {
		return command[:50] + "..."
	}
	return command
}

func init() {
	trackFileCmd.Flags().BoolVarP(&trackWrite, "write", "w", false,
		"Record as a write instead of a read")
	trackCommandCmd.Flags().IntVarP(&trackOutputChars, "output-chars", "o", 0,
		"Size of the command's output in characters")

	trackCmd.AddCommand(trackFileCmd)
	trackCmd.AddCommand(trackCommandCmd)
	trackCmd.AddCommand(trackConversationCmd)
}
