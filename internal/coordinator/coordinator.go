// Package coordinator orchestrates the refresh pipeline: discovery,
// parsing, cost assignment, segmentation and aggregation run as one
// sequential pass per cycle, off the UI goroutine, and the result is
// published as an immutable snapshot for the presentation layer. Nothing
// downstream of the coordinator touches the parser or discovery directly.
package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ccpulse/ccpulse/internal/calculator"
	"github.com/ccpulse/ccpulse/internal/config"
	"github.com/ccpulse/ccpulse/internal/discovery"
	"github.com/ccpulse/ccpulse/internal/parser"
	"github.com/ccpulse/ccpulse/internal/types"
)

// State is the coordinator's lifecycle state.
type State int

const (
	// StateLoading is the first run only; steady-state refreshes never
	// fall back to it, so the UI does not flicker on polling.
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the published pipeline output. It is the entire contract
// the presentation layer needs.
type Snapshot struct {
	State       State
	Message     string // set for StateError and for empty Ready states
	GeneratedAt time.Time

	Blocks      []types.SessionBlock
	ActiveBlock *types.SessionBlock
	ModelUsage  []types.ModelUsage

	TodayCost   float64
	TodayTokens int
	MonthCost   float64
	MonthTokens int

	FailedFiles int
}

// Coordinator runs the refresh loop. At most one parse pass is in flight;
// triggers arriving mid-parse coalesce into a single pending cycle that
// starts immediately after the current one completes.
type Coordinator struct {
	settings config.Settings
	parser   *parser.Parser
	now      func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot

	refreshCh chan struct{}
	updates   chan Snapshot
}

// New builds a coordinator around the given settings. The settings value
// is read once; changing preferences means building a new coordinator.
func New(settings config.Settings) *Coordinator {
	return &Coordinator{
		settings:  settings.Clamped(),
		parser:    parser.New(),
		now:       time.Now,
		snapshot:  Snapshot{State: StateLoading},
		refreshCh: make(chan struct{}, 1),
		updates:   make(chan Snapshot, 1),
	}
}

// Snapshot returns the most recently published state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Updates delivers published snapshots. Slow consumers drop intermediate
// snapshots rather than blocking the refresh loop.
func (c *Coordinator) Updates() <-chan Snapshot {
	return c.updates
}

// Refresh requests a manual refresh. Requests arriving while a parse is
// running are coalesced.
func (c *Coordinator) Refresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Run executes the refresh loop until ctx is canceled. The first cycle
// starts immediately; subsequent cycles run on the interval timer, on
// log-file change notifications and on manual Refresh calls.
func (c *Coordinator) Run(ctx context.Context) error {
	interval := time.Duration(c.settings.RefreshIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	watcher := c.startWatcher(ctx)
	if watcher != nil {
		defer watcher.Close()
	}

	c.runCycle()
	c.syncWatchList(watcher)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-c.refreshCh:
		}
		c.runCycle()
		c.syncWatchList(watcher)
	}
}

// startWatcher wires file-system change notifications into the same
// trigger path as the timer. The watcher never runs the pipeline on its
// own delivery goroutine. A failed watcher setup is not fatal: the
// interval timer alone keeps the data fresh.
func (c *Coordinator) startWatcher(ctx context.Context) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if strings.HasSuffix(strings.ToLower(event.Name), ".jsonl") {
					c.Refresh()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watch errors degrade to timer-only refresh.
			}
		}
	}()

	return watcher
}

// syncWatchList points the watcher at the current log roots and at every
// directory that currently holds a log file (fsnotify does not recurse).
// Re-synced after each cycle so newly created session dirs get picked up.
func (c *Coordinator) syncWatchList(watcher *fsnotify.Watcher) {
	if watcher == nil {
		return
	}

	opts := c.discoveryOptions()
	want := make(map[string]struct{})
	for _, root := range discovery.Roots(opts) {
		want[root] = struct{}{}
	}
	files, _ := discovery.FindLogFiles(opts)
	for _, f := range files {
		want[filepath.Dir(f)] = struct{}{}
	}

	for _, dir := range watcher.WatchList() {
		if _, ok := want[dir]; !ok {
			_ = watcher.Remove(dir)
		}
	}
	for dir := range want {
		_ = watcher.Add(dir) // adding an existing watch is a no-op error
	}
}

func (c *Coordinator) discoveryOptions() discovery.Options {
	return discovery.Options{OverrideRoot: c.settings.DataPath}
}

// runCycle executes one full rebuild: discover, parse, cost, segment,
// aggregate, publish. Every failure mode resolves to a published state;
// nothing escapes as a panic or error to the caller.
func (c *Coordinator) runCycle() {
	now := c.now()
	opts := c.discoveryOptions()

	// Full rebuild: without this reset the retained dedup set would
	// swallow every entry of the rescan.
	c.parser.Reset()

	roots := discovery.Roots(opts)
	if len(roots) == 0 {
		c.publish(Snapshot{
			State:       StateError,
			GeneratedAt: now,
			Message: fmt.Sprintf("no log directory found; looked in: %s",
				strings.Join(discovery.CandidateRoots(opts), ", ")),
		})
		return
	}

	files, err := discovery.FindLogFiles(opts)
	if err != nil {
		c.publish(Snapshot{
			State:       StateError,
			GeneratedAt: now,
			Message:     fmt.Sprintf("failed to scan log directories: %v", err),
		})
		return
	}
	if len(files) == 0 {
		c.publish(Snapshot{
			State:       StateError,
			GeneratedAt: now,
			Message: fmt.Sprintf("no log files under %s; no conversations yet?",
				strings.Join(roots, ", ")),
		})
		return
	}

	entries, failed := c.parser.ParseFiles(files)
	if len(entries) == 0 {
		msg := "log files found but no usable usage records in them"
		if failed == len(files) {
			msg = fmt.Sprintf("all %d log files failed to read", failed)
		}
		c.publish(Snapshot{
			State:       StateError,
			GeneratedAt: now,
			Message:     msg,
			FailedFiles: failed,
		})
		return
	}

	entries = calculator.AssignCosts(entries, c.settings.CostMode)

	window := time.Duration(c.settings.SessionDurationHours) * time.Hour
	blocks := calculator.IdentifySessionBlocks(entries, window, now)

	today := dayStart(now)
	month := monthStart(now)

	snap := Snapshot{
		State:       StateReady,
		GeneratedAt: now,
		Blocks:      blocks,
		ActiveBlock: calculator.FindActiveBlock(blocks),
		ModelUsage:  calculator.ModelRollup(entries),
		TodayCost:   calculator.RangeCost(entries, today, today.AddDate(0, 0, 1)),
		MonthCost:   calculator.RangeCost(entries, month, month.AddDate(0, 1, 0)),
		FailedFiles: failed,
	}
	for _, e := range entries {
		if !e.Timestamp.Before(today) {
			snap.TodayTokens += e.TotalTokens()
		}
		if !e.Timestamp.Before(month) {
			snap.MonthTokens += e.TotalTokens()
		}
	}

	c.publish(snap)
}

func (c *Coordinator) publish(snap Snapshot) {
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	select {
	case c.updates <- snap:
	default:
		// drop: the consumer reads Snapshot() on its next repaint
	}
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
