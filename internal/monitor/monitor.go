// Package monitor renders the live dashboard. It is a pure consumer of
// coordinator snapshots: every value on screen comes out of the last
// published Snapshot, and user input only ever triggers a refresh or a
// quit.
package monitor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ccpulse/ccpulse/internal/calculator"
	"github.com/ccpulse/ccpulse/internal/config"
	"github.com/ccpulse/ccpulse/internal/coordinator"
	"github.com/ccpulse/ccpulse/internal/output"
	"github.com/ccpulse/ccpulse/internal/types"
)

// Burn rate thresholds in non-cache tokens per minute.
const (
	BurnRateHigh     = 1000
	BurnRateModerate = 500
)

// displayRefresh is how often the view repaints. Data refreshes run on
// the coordinator's own interval; the faster repaint only keeps clocks
// and gauges moving.
const displayRefresh = time.Second

type Options struct {
	Settings config.Settings
	NoColor  bool
}

// Monitor owns the coordinator and the terminal program.
type Monitor struct {
	options Options
	coord   *coordinator.Coordinator
}

func New(opts Options) *Monitor {
	return &Monitor{
		options: opts,
		coord:   coordinator.New(opts.Settings),
	}
}

// Start runs the dashboard until ctx is canceled or the user quits.
func (m *Monitor) Start(ctx context.Context) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("live monitoring requires an interactive terminal (TTY)")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go m.coord.Run(ctx)

	p := tea.NewProgram(
		initialModel(m.options, m.coord),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}

type model struct {
	options  Options
	coord    *coordinator.Coordinator
	snapshot coordinator.Snapshot
	width    int
	height   int
	quitting bool
}

type tickMsg time.Time

func initialModel(opts Options, coord *coordinator.Coordinator) model {
	return model{
		options:  opts,
		coord:    coord,
		snapshot: coord.Snapshot(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.WindowSize(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.coord.Refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.snapshot = m.coord.Snapshot()
		return m, tickCmd()
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	switch m.snapshot.State {
	case coordinator.StateLoading:
		return m.renderCenteredNotice("Scanning usage logs...")
	case coordinator.StateError:
		return m.renderCenteredNotice(m.snapshot.Message) +
			"\n\nPress 'r' to retry, 'q' to quit."
	}

	return m.renderDashboard()
}

func (m model) renderCenteredNotice(text string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	if m.options.NoColor {
		style = lipgloss.NewStyle()
	}
	return style.Render(text)
}

func (m model) renderDashboard() string {
	snap := m.snapshot
	now := snap.GeneratedAt

	var buf bytes.Buffer
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenRows: tw.On,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignCenter},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Footer: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignCenter},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	titleStyle := lipgloss.NewStyle().Bold(true)
	if m.options.NoColor {
		titleStyle = lipgloss.NewStyle()
	}
	table.Header([]string{titleStyle.Render("CCPULSE - LIVE TOKEN USAGE MONITOR")})

	if snap.ActiveBlock != nil {
		m.appendActiveBlockRows(table, snap.ActiveBlock, now)
	} else {
		table.Append([]string{"\nNo active session. Waiting for new activity...\n"})
	}

	table.Append([]string{fmt.Sprintf("\n%s\n%s\n",
		fmt.Sprintf("Today:      $%.2f  (%s tokens)",
			snap.TodayCost, output.FormatNumberWithCommas(snap.TodayTokens)),
		fmt.Sprintf("This month: $%.2f  (%s tokens)",
			snap.MonthCost, output.FormatNumberWithCommas(snap.MonthTokens)))})

	if len(snap.ModelUsage) > 0 {
		table.Append([]string{m.renderModelBreakdown(snap.ModelUsage)})
	}

	footer := fmt.Sprintf("Updated %s  •  refresh every %ds  •  'r' refresh now, 'q' quit",
		now.Local().Format("15:04:05"),
		m.options.Settings.RefreshIntervalSeconds)
	if snap.FailedFiles > 0 {
		footer = fmt.Sprintf("⚠ %d unreadable log file(s)  •  %s", snap.FailedFiles, footer)
	}
	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if m.options.NoColor {
		footerStyle = lipgloss.NewStyle()
	}
	table.Footer([]string{footerStyle.Render(footer)})

	table.Render()
	return m.centered(buf.String())
}

func (m model) appendActiveBlockRows(table *tablewriter.Table, block *types.SessionBlock, now time.Time) {
	totalTokens := block.TokenCounts.GetTotal()
	elapsed := now.Sub(block.StartTime)
	remaining := block.EndTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	sessionPercent := float64(elapsed) / float64(block.EndTime.Sub(block.StartTime)) * 100

	sessionLine := m.renderGaugeSection(
		"⏱", "SESSION",
		sessionPercent,
		fmt.Sprintf("Started: %s  Elapsed: %s  Remaining: %s (%s)",
			block.StartTime.Local().Format("15:04:05"),
			output.FormatDuration(elapsed),
			output.FormatDuration(remaining),
			block.EndTime.Local().Format("15:04:05")),
		fmt.Sprintf("%.1f%%", sessionPercent),
	)
	table.Append([]string{sessionLine})

	burnRate := calculator.CalculateBurnRate(*block, now)
	tokenLimit := m.options.Settings.TokenLimit

	usagePercent := 0.0
	if tokenLimit > 0 {
		usagePercent = float64(totalTokens) / float64(tokenLimit) * 100
	}

	burnInfo := "Burn Rate: n/a"
	if burnRate != nil {
		burnInfo = fmt.Sprintf("Burn Rate: %s tok/min%s  Cost: $%.2f/hr",
			output.FormatNumberWithCommas(int(burnRate.TokensPerMinute)),
			burnIndicator(burnRate.TokensPerMinuteForIndicator),
			burnRate.CostPerHour)
	}

	usageInfo := fmt.Sprintf("Tokens: %s  %s  Cost: $%.2f",
		output.FormatNumberWithCommas(totalTokens), burnInfo, block.CostUSD)

	usageRight := formatTokensShort(totalTokens)
	if tokenLimit > 0 {
		usageRight = fmt.Sprintf("%.1f%% (%s/%s)",
			usagePercent, formatTokensShort(totalTokens), formatTokensShort(tokenLimit))
	}

	usageLine := m.renderGaugeSection("🔥", "USAGE", usagePercent, usageInfo, usageRight)
	table.Append([]string{usageLine})

	if projection := calculator.ProjectBlockUsage(*block, now); projection != nil && tokenLimit > 0 {
		projPercent := float64(projection.TotalTokens) / float64(tokenLimit) * 100

		var status string
		switch {
		case projPercent > 100:
			status = "🚨 EXCEEDS LIMIT"
		case projPercent > 90:
			status = "⚠ APPROACHING LIMIT"
		default:
			status = "✅ WITHIN LIMIT"
		}

		projInfo := fmt.Sprintf("Status: %s  Tokens: %s  Cost: $%.2f",
			status, output.FormatNumberWithCommas(projection.TotalTokens), projection.TotalCost)
		projRight := fmt.Sprintf("%.1f%% (%s/%s)",
			projPercent, formatTokensShort(projection.TotalTokens), formatTokensShort(tokenLimit))

		projLine := m.renderGaugeSection("📈", "PROJECTION", projPercent, projInfo, projRight)
		table.Append([]string{projLine})
	}

	modelsText := "⚙  Models: none"
	if len(block.Models) > 0 {
		short := make([]string, 0, len(block.Models))
		for _, name := range block.Models {
			short = append(short, output.ShortenModelName(name))
		}
		modelsText = "⚙  Models: " + strings.Join(short, ", ")
	}
	table.Append([]string{modelsText})
}

func (m model) renderGaugeSection(icon, title string, percent float64, info, rightText string) string {
	leftPart := fmt.Sprintf("%s %-10s", icon, title)

	barWidth := 40
	if m.width >= 120 {
		barWidth = 50
	} else if m.width >= 100 {
		barWidth = 45
	}

	bar := m.renderGauge(percent, barWidth)
	topLine := fmt.Sprintf("%-13s %s %14s", leftPart, bar, rightText)

	return fmt.Sprintf("\n%s\n%s\n", topLine, info)
}

// Gauge ramp endpoints. The fill color slides from green through yellow
// to red as the gauge approaches 100%.
var (
	gaugeLow  = mustHex("#2ecc40")
	gaugeMid  = mustHex("#ffdc00")
	gaugeHigh = mustHex("#ff4136")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// gaugeColor blends the ramp at the given position in [0,100].
func gaugeColor(percent float64) lipgloss.Color {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	var c colorful.Color
	if percent <= 50 {
		c = gaugeLow.BlendLuv(gaugeMid, percent/50)
	} else {
		c = gaugeMid.BlendLuv(gaugeHigh, (percent-50)/50)
	}
	return lipgloss.Color(c.Hex())
}

func (m model) renderGauge(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent * float64(width) / 100)
	if filled > width {
		filled = width
	}

	if m.options.NoColor {
		return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
	}

	filledStyle := lipgloss.NewStyle().Foreground(gaugeColor(percent))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	return "[" +
		filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		"]"
}

func (m model) renderModelBreakdown(usage []types.ModelUsage) string {
	var b strings.Builder
	b.WriteString("\nBy model:\n")
	for _, mu := range usage {
		fmt.Fprintf(&b, "  %-14s %10s tokens  $%.2f  (%d requests)\n",
			output.ShortenModelName(mu.Model),
			output.FormatNumberWithCommas(mu.TokenCounts.GetTotal()),
			mu.TotalCost,
			mu.RequestCount)
	}
	return b.String()
}

// centered pads each line so a table narrower than the terminal sits in
// the middle of the screen.
func (m model) centered(rendered string) string {
	if m.width <= 120 {
		return rendered
	}

	leftPadding := (m.width - 120) / 2
	padding := strings.Repeat(" ", leftPadding)

	lines := strings.Split(rendered, "\n")
	var out strings.Builder
	for i, line := range lines {
		if line != "" {
			out.WriteString(padding + line)
		}
		if i < len(lines)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

func burnIndicator(tokensPerMinute float64) string {
	switch {
	case tokensPerMinute > BurnRateHigh:
		return " ⚡ HIGH"
	case tokensPerMinute > BurnRateModerate:
		return " ⚡ MODERATE"
	default:
		return " ✓ NORMAL"
	}
}

func formatTokensShort(n int) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

func tickCmd() tea.Cmd {
	return tea.Tick(displayRefresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
