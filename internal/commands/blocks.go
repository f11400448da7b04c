package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/calculator"
	"github.com/ccpulse/ccpulse/internal/output"
)

func NewBlocksCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Show usage grouped into 5-hour billing blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}

			entries, err := loadEntries(settings, flags.debug)
			if err != nil {
				return err
			}

			now := time.Now()
			window := time.Duration(settings.SessionDurationHours) * time.Hour
			blocks := calculator.IdentifySessionBlocks(entries, window, now)

			formatter := output.NewFormatter(output.Options{
				Format:    flags.format,
				NoColor:   flags.noColor,
				Precision: settings.CostPrecision,
			})
			report, err := formatter.FormatBlocksReport(blocks, now)
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
