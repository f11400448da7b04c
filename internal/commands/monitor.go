package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/monitor"
)

func NewMonitorCommand() *cobra.Command {
	var (
		dataPath string
		interval int
		noColor  bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Live dashboard of the current billing block",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(reportFlags{dataPath: dataPath})
			if err != nil {
				return err
			}
			if interval > 0 {
				settings.RefreshIntervalSeconds = interval
			}
			settings = settings.Clamped()

			mon := monitor.New(monitor.Options{
				Settings: settings,
				NoColor:  noColor,
			})
			if err := mon.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start monitor: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data-path", "", "Override log directory")
	cmd.Flags().IntVar(&interval, "interval", 0, "Refresh interval in seconds (1-30)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
