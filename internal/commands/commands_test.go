package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/ccpulse/ccpulse/internal/config"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return config.Default()
}

func TestCommandsRegisterExpectedFlags(t *testing.T) {
	testCases := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{NewDailyCommand(), []string{"data-path", "format", "no-color", "since", "until", "debug"}},
		{NewMonthlyCommand(), []string{"data-path", "format", "no-color", "since", "until", "debug"}},
		{NewSessionCommand(), []string{"data-path", "format", "no-color", "debug"}},
		{NewBlocksCommand(), []string{"data-path", "format", "no-color", "debug"}},
		{NewMonitorCommand(), []string{"data-path", "interval", "no-color"}},
	}

	for _, tc := range testCases {
		t.Run(tc.cmd.Name(), func(t *testing.T) {
			for _, name := range tc.flags {
				assert.NotNil(t, tc.cmd.Flags().Lookup(name), "missing flag %s", name)
			}
		})
	}
}

func TestSettingsCommandHasSubcommands(t *testing.T) {
	cmd := NewSettingsCommand()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["export"])
	assert.True(t, names["import"])
}
