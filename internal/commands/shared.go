package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/ccpulse/ccpulse/internal/calculator"
	"github.com/ccpulse/ccpulse/internal/config"
	"github.com/ccpulse/ccpulse/internal/discovery"
	"github.com/ccpulse/ccpulse/internal/parser"
	"github.com/ccpulse/ccpulse/internal/types"
)

// reportFlags is the flag surface shared by the one-shot report commands.
type reportFlags struct {
	dataPath string
	format   string
	noColor  bool
	since    string
	until    string
	debug    bool
}

// loadSettings merges the on-disk settings with command-line overrides.
func loadSettings(flags reportFlags) (config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return settings, err
	}
	if flags.dataPath != "" {
		settings.DataPath = flags.dataPath
	}
	return settings.Clamped(), nil
}

// loadEntries runs one discovery+parse+cost pass for a report command.
func loadEntries(settings config.Settings, debug bool) ([]types.UsageEntry, error) {
	opts := discovery.Options{OverrideRoot: settings.DataPath}

	roots := discovery.Roots(opts)
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w; looked in: %s",
			types.ErrNoLogRoots, strings.Join(discovery.CandidateRoots(opts), ", "))
	}

	files, err := discovery.FindLogFiles(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan log directories: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %s", types.ErrNoUsableEntries, strings.Join(roots, ", "))
	}

	p := parser.New()
	p.SetDebug(debug)
	entries, failed := p.ParseFiles(files)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w (%d of %d files unreadable)",
			types.ErrNoUsableEntries, failed, len(files))
	}

	return calculator.AssignCosts(entries, settings.CostMode), nil
}

// filterByDateRange keeps entries whose UTC calendar day falls inside the
// inclusive [since, until] range, each bound optional, format 2006-01-02.
func filterByDateRange(entries []types.UsageEntry, since, until string) ([]types.UsageEntry, error) {
	var from, to time.Time
	var err error
	if since != "" {
		from, err = time.ParseInLocation("2006-01-02", since, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid --since date %q: %w", since, err)
		}
	}
	if until != "" {
		to, err = time.ParseInLocation("2006-01-02", until, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid --until date %q: %w", until, err)
		}
		to = to.AddDate(0, 0, 1) // inclusive end of day
	}

	var filtered []types.UsageEntry
	for _, e := range entries {
		if !from.IsZero() && e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Timestamp.Before(to) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}
