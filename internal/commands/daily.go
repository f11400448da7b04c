package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/calculator"
	"github.com/ccpulse/ccpulse/internal/output"
)

func NewDailyCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show token usage and cost per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}

			entries, err := loadEntries(settings, flags.debug)
			if err != nil {
				return err
			}
			entries, err = filterByDateRange(entries, flags.since, flags.until)
			if err != nil {
				return err
			}

			formatter := output.NewFormatter(output.Options{
				Format:    flags.format,
				NoColor:   flags.noColor,
				Precision: settings.CostPrecision,
			})
			report, err := formatter.FormatDailyReport(calculator.DailyRollup(entries))
			if err != nil {
				return fmt.Errorf("failed to format report: %w", err)
			}

			fmt.Print(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.dataPath, "data-path", "", "Override log directory")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Print skipped-line diagnostics to stderr")
	cmd.Flags().StringVar(&flags.since, "since", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.until, "until", "", "End date (YYYY-MM-DD)")

	return cmd
}
