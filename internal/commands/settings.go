package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/config"
)

// NewSettingsCommand exposes the flat-JSON settings blob for export and
// import. Import is all-or-nothing: invalid data leaves the stored
// settings untouched.
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Export or import preferences",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Print all preferences as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			data, err := settings.Export()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace preferences from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if err := settings.Import(data); err != nil {
				return err
			}
			return config.Save(settings)
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}
