// Package output renders reports as tables or JSON.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ccpulse/ccpulse/internal/calculator"
	"github.com/ccpulse/ccpulse/internal/types"
)

// Formatter renders aggregated usage for the report commands.
type Formatter struct {
	format    string // "table" or "json"
	noColor   bool
	precision int
}

type Options struct {
	Format    string
	NoColor   bool
	Precision int
}

func NewFormatter(opts Options) *Formatter {
	if opts.Format == "" {
		opts.Format = "table"
	}
	if opts.Precision <= 0 {
		opts.Precision = 2
	}
	noColor := opts.NoColor
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		noColor = true
	}
	return &Formatter{format: opts.Format, noColor: noColor, precision: opts.Precision}
}

func (f *Formatter) cost(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', f.precision, 64)
}

// newTable builds a table with the house rendition: row separators on,
// right-aligned numeric rows, no auto-uppercased headers.
func newTable(buf *bytes.Buffer) *tablewriter.Table {
	return tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignCenter},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
}

// FormatDailyReport renders per-day rollups.
func (f *Formatter) FormatDailyReport(days []types.DailyUsage) (string, error) {
	if f.format == "json" {
		return marshalJSON(days)
	}
	if len(days) == 0 {
		return "No usage data found.\n", nil
	}

	var buf bytes.Buffer
	table := newTable(&buf)
	table.Header([]string{"Date", "Models", "Input", "Output", "Cache\nCreate", "Cache\nRead", "Total\nTokens", "Cost\n(USD)"})

	var total types.TokenCounts
	var totalCost float64
	for _, day := range days {
		tc := day.TokenCounts
		table.Append([]string{
			day.Date.Format("2006-01-02"),
			joinShortModels(day.Models),
			FormatNumberWithCommas(tc.InputTokens),
			FormatNumberWithCommas(tc.OutputTokens),
			FormatNumberWithCommas(tc.CacheCreationTokens),
			FormatNumberWithCommas(tc.CacheReadTokens),
			FormatNumberWithCommas(tc.GetTotal()),
			f.cost(day.TotalCost),
		})
		total.InputTokens += tc.InputTokens
		total.OutputTokens += tc.OutputTokens
		total.CacheCreationTokens += tc.CacheCreationTokens
		total.CacheReadTokens += tc.CacheReadTokens
		totalCost += day.TotalCost
	}
	table.Footer([]string{
		"Total", "",
		FormatNumberWithCommas(total.InputTokens),
		FormatNumberWithCommas(total.OutputTokens),
		FormatNumberWithCommas(total.CacheCreationTokens),
		FormatNumberWithCommas(total.CacheReadTokens),
		FormatNumberWithCommas(total.GetTotal()),
		f.cost(totalCost),
	})
	table.Render()
	return buf.String(), nil
}

// FormatMonthlyReport renders per-month rollups.
func (f *Formatter) FormatMonthlyReport(months []types.MonthlyUsage) (string, error) {
	if f.format == "json" {
		return marshalJSON(months)
	}
	if len(months) == 0 {
		return "No usage data found.\n", nil
	}

	var buf bytes.Buffer
	table := newTable(&buf)
	table.Header([]string{"Month", "Models", "Input", "Output", "Total\nTokens", "Cost\n(USD)"})

	var totalCost float64
	var totalTokens int
	for _, month := range months {
		table.Append([]string{
			month.Month.Format("2006-01"),
			joinShortModels(month.Models),
			FormatNumberWithCommas(month.TokenCounts.InputTokens),
			FormatNumberWithCommas(month.TokenCounts.OutputTokens),
			FormatNumberWithCommas(month.TokenCounts.GetTotal()),
			f.cost(month.TotalCost),
		})
		totalCost += month.TotalCost
		totalTokens += month.TokenCounts.GetTotal()
	}
	table.Footer([]string{"Total", "", "", "", FormatNumberWithCommas(totalTokens), f.cost(totalCost)})
	table.Render()
	return buf.String(), nil
}

// FormatSessionReport renders per-session rollups.
func (f *Formatter) FormatSessionReport(sessions []types.SessionUsage) (string, error) {
	if f.format == "json" {
		return marshalJSON(sessions)
	}
	if len(sessions) == 0 {
		return "No sessions found.\n", nil
	}

	var buf bytes.Buffer
	table := newTable(&buf)
	table.Header([]string{"Session", "Start", "Duration", "Requests", "Tokens", "Cost\n(USD)"})

	for _, s := range sessions {
		table.Append([]string{
			shortenSessionID(s.SessionID),
			s.StartTime.Format("2006-01-02 15:04"),
			FormatDuration(s.Duration),
			strconv.Itoa(s.RequestCount),
			FormatNumberWithCommas(s.TokenCounts.GetTotal()),
			f.cost(s.TotalCost),
		})
	}
	table.Render()
	return buf.String(), nil
}

// FormatBlocksReport renders the session-block timeline, gaps included.
func (f *Formatter) FormatBlocksReport(blocks []types.SessionBlock, now time.Time) (string, error) {
	if f.format == "json" {
		return marshalJSON(blocks)
	}
	if len(blocks) == 0 {
		return "No session blocks found.\n", nil
	}

	var buf bytes.Buffer
	table := newTable(&buf)
	table.Header([]string{"Block Start", "Status", "Models", "Tokens", "Cost\n(USD)", "Burn Rate\n(tok/min)"})

	for _, block := range blocks {
		if block.IsGap {
			table.Append([]string{
				block.StartTime.Format("2006-01-02 15:04"),
				"gap",
				"-",
				"-",
				"-",
				"-",
			})
			continue
		}
		status := "closed"
		if block.IsActive {
			status = "ACTIVE"
		}
		rate := "-"
		if br := calculator.CalculateBurnRate(block, now); br != nil {
			rate = FormatNumberWithCommas(int(br.TokensPerMinute))
		}
		table.Append([]string{
			block.StartTime.Format("2006-01-02 15:04"),
			status,
			joinShortModels(block.Models),
			FormatNumberWithCommas(block.TokenCounts.GetTotal()),
			f.cost(block.CostUSD),
			rate,
		})
	}
	table.Render()
	return buf.String(), nil
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data) + "\n", nil
}

// FormatNumberWithCommas formats a number with thousand separators
func FormatNumberWithCommas(n int) string {
	if n < 0 {
		return "-" + FormatNumberWithCommas(-n)
	}
	if n < 1000 {
		return strconv.Itoa(n)
	}
	return FormatNumberWithCommas(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

// FormatDuration renders a duration as "2h 5m", rounded to the minute.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func joinShortModels(models []string) string {
	short := make([]string, 0, len(models))
	for _, m := range models {
		short = append(short, ShortenModelName(m))
	}
	return strings.Join(short, ", ")
}

func shortenSessionID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// ShortenModelName compresses model identifiers for narrow columns:
// "claude-sonnet-4-5-20250929" -> "Sonnet-4.5".
func ShortenModelName(model string) string {
	parts := strings.Split(model, "-")
	family := ""
	for _, p := range parts {
		switch strings.ToLower(p) {
		case "opus", "sonnet", "haiku":
			family = strings.ToLower(p)
		}
	}
	if family != "" {
		var version []string
		for _, p := range parts {
			// version segments are short digit runs; 8+ digits is a date
			if isAllDigits(p) && len(p) < 8 {
				version = append(version, p)
			}
		}
		name := strings.ToUpper(family[:1]) + family[1:]
		if len(version) > 0 {
			name += "-" + strings.Join(version, ".")
		}
		return name
	}
	if len(model) > 12 {
		return model[:12]
	}
	return model
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
