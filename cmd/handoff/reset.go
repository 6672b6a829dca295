package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetMeter bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the delegation session",
	Long: `Clear the session: counters return to zero and all queued, active,
and historical units are dropped. The task store is not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.engine.Reset(); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
		fmt.Println("session reset")

		if resetMeter {
			if err := env.meter.Reset(); err != nil {
				return fmt.Errorf("reset meter: %w", err)
			}
			fmt.Println("context meter reset")
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetMeter, "meter", false, "Also reset the context meter")
}
