// Package monitor renders the auto-refreshing leaderboard view.
package monitor

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/sdpower/ccpet-go/internal/leaderboard"
	"github.com/sdpower/ccpet-go/internal/types"
)

// FetchFunc loads the current leaderboard, reporting whether the data came
// from the local fallback.
type FetchFunc func(ctx context.Context) ([]types.LeaderboardEntry, bool, error)

// Options configure the live view.
type Options struct {
	Fetch    FetchFunc
	Format   leaderboard.FormatOptions
	Interval time.Duration
}

type model struct {
	options    Options
	formatter  *leaderboard.Formatter
	lastUpdate time.Time
	entries    []types.LeaderboardEntry
	offline    bool
	err        error
}

type tickMsg time.Time

type updateDataMsg struct {
	entries []types.LeaderboardEntry
	offline bool
	err     error
}

// Start runs the live leaderboard until the user quits. It requires an
// interactive terminal.
func Start(opts Options) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("live leaderboard requires an interactive terminal (TTY)")
	}
	if opts.Interval == 0 {
		opts.Interval = 30 * time.Second
	}

	p := tea.NewProgram(
		model{options: opts, formatter: leaderboard.NewFormatter(), lastUpdate: time.Now()},
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.options.Interval),
		m.updateData(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.updateData()
		}

	case tickMsg:
		m.lastUpdate = time.Time(msg)
		return m, tea.Batch(
			tickCmd(m.options.Interval),
			m.updateData(),
		)

	case updateDataMsg:
		m.entries = msg.entries
		m.offline = msg.offline
		m.err = msg.err
	}

	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit, 'r' to retry", m.err)
	}

	opts := m.options.Format
	opts.OfflineMode = m.offline

	content := m.formatter.Format(m.entries, opts)

	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if opts.NoColor {
		footerStyle = lipgloss.NewStyle()
	}
	content += "\n" + footerStyle.Render(fmt.Sprintf(
		"Last update: %s - press 'q' to quit, 'r' to refresh",
		m.lastUpdate.Format("15:04:05"),
	))
	return content
}

func (m model) updateData() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries, offline, err := m.options.Fetch(ctx)
		return updateDataMsg{entries: entries, offline: offline, err: err}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
