package leaderboard

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sdpower/ccpet-go/internal/types"
)

// offlineCostPlaceholder replaces cost figures when only local data is
// available; local records never carry cost.
const offlineCostPlaceholder = "N/A"

var animalEmoji = map[string]string{
	"cat":     "🐱",
	"dog":     "🐶",
	"rabbit":  "🐰",
	"hamster": "🐹",
	"fox":     "🦊",
	"panda":   "🐼",
	"frog":    "🐸",
	"penguin": "🐧",
}

// FormatOptions control leaderboard rendering.
type FormatOptions struct {
	Period      types.Period
	SortBy      types.SortBy
	Limit       int
	OfflineMode bool
	NoColor     bool
}

// Formatter renders ranked entries as a terminal table.
type Formatter struct {
	now func() time.Time
}

func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// SetNow replaces the clock used for countdown footers, for tests.
func (f *Formatter) SetNow(now func() time.Time) {
	f.now = now
}

// Format sorts, ranks, truncates and renders the entries. An empty input
// produces guidance text for the active mode rather than an error.
func (f *Formatter) Format(entries []types.LeaderboardEntry, opts FormatOptions) string {
	if len(entries) == 0 {
		return f.formatEmpty(opts)
	}

	ranked := Truncate(Rank(entries, opts.SortBy), opts.Limit)

	var out strings.Builder
	out.WriteString(f.title(opts))
	out.WriteString("\n\n")
	out.WriteString(f.table(ranked, opts))

	if opts.OfflineMode {
		out.WriteString("\n📡 Offline Mode: Showing local data only (cost data unavailable)\n")
	} else {
		out.WriteString("\n" + f.countdown(opts.Period) + "\n")
	}
	return out.String()
}

func (f *Formatter) title(opts FormatOptions) string {
	periodNames := map[types.Period]string{
		types.PeriodToday: "Today's",
		types.Period7d:    "7-Day",
		types.Period30d:   "30-Day",
		types.PeriodAll:   "All-Time",
	}
	sortNames := map[types.SortBy]string{
		types.SortTokens:   "Token Usage",
		types.SortCost:     "Cost Spending",
		types.SortSurvival: "Survival Time",
	}

	text := fmt.Sprintf("🏆 %s %s Leaderboard", periodNames[opts.Period], sortNames[opts.SortBy])
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	if opts.NoColor {
		style = lipgloss.NewStyle()
	}
	return style.Render(text)
}

func (f *Formatter) table(entries []types.LeaderboardEntry, opts FormatOptions) string {
	var buf bytes.Buffer

	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header([]string{"Rank", "Pet Name", "Type", "Tokens", "Cost", "Survival", "Status"})

	for _, entry := range entries {
		cost := offlineCostPlaceholder
		if !opts.OfflineMode {
			cost = fmt.Sprintf("$%.2f", entry.TotalCost)
		}
		status := "💀 Dead"
		if entry.IsAlive {
			status = "✅ Alive"
		}
		table.Append([]string{
			fmt.Sprintf("#%d", entry.Rank),
			entry.PetName,
			animalDisplay(entry.AnimalType),
			FormatTokens(entry.TotalTokens),
			cost,
			fmt.Sprintf("%dd", entry.SurvivalDays),
			status,
		})
	}

	table.Render()
	return buf.String()
}

func (f *Formatter) formatEmpty(opts FormatOptions) string {
	var out strings.Builder
	out.WriteString(f.title(opts))
	out.WriteString("\n\n📭 No data available for the selected time period.\n")
	out.WriteString("\n💡 Suggestions:\n")
	if opts.OfflineMode {
		out.WriteString("  • Check if you have any pets created\n")
		out.WriteString("  • Configure Supabase connection for full functionality\n")
		out.WriteString("  • Try running \"ccpet sync\" to upload data\n")
	} else {
		out.WriteString("  • Try a different time period (--period all)\n")
		out.WriteString("  • Check if data sync is working with \"ccpet sync\"\n")
		out.WriteString("  • Create some pets to see them in the leaderboard\n")
	}
	return out.String()
}

// countdown reports how long the current period's ranking still runs.
func (f *Formatter) countdown(period types.Period) string {
	now := f.now()

	var reset time.Time
	var label string
	switch period {
	case types.PeriodToday:
		reset = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		label = "daily rankings reset"
	case types.Period7d:
		daysUntilMonday := (8 - int(now.Weekday())) % 7
		if daysUntilMonday == 0 {
			daysUntilMonday = 7
		}
		reset = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, daysUntilMonday)
		label = "weekly rankings reset"
	case types.Period30d:
		reset = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		label = "monthly rankings reset"
	default:
		return "⏰ All-time rankings (no reset)"
	}

	remaining := reset.Sub(now)
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	switch {
	case hours > 24:
		return fmt.Sprintf("⏰ %dd %dh until %s", hours/24, hours%24, label)
	case hours > 0:
		return fmt.Sprintf("⏰ %dh %dm until %s", hours, minutes, label)
	default:
		return fmt.Sprintf("⏰ %dm until %s", minutes, label)
	}
}

func animalDisplay(animalType string) string {
	if emoji, ok := animalEmoji[strings.ToLower(animalType)]; ok {
		return emoji + " " + strings.ToUpper(animalType[:1]) + animalType[1:]
	}
	return animalType
}

// FormatTokens abbreviates a token count to K/M/B units.
func FormatTokens(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
