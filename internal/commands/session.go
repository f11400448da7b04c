package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/calculator"
	"github.com/ccpulse/ccpulse/internal/output"
)

func NewSessionCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show token usage and cost per conversation session",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}

			entries, err := loadEntries(settings, flags.debug)
			if err != nil {
				return err
			}

			formatter := output.NewFormatter(output.Options{
				Format:    flags.format,
				NoColor:   flags.noColor,
				Precision: settings.CostPrecision,
			})
			report, err := formatter.FormatSessionReport(calculator.SessionRollup(entries))
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

	return cmd
}
