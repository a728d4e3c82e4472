package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/swap-aggregator/pkg/ui/components"
)

// Quoter runs one quote round.
type Quoter func(ctx context.Context) ([]components.QuoteRow, error)

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

const maxErrors = 3

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx      context.Context
	quoter   Quoter
	interval time.Duration
	title    string

	quotes  *components.QuotesComponent
	stats   *components.StatsComponent
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	loading    bool
	paused     bool
	quitting   bool
	width      int
	lastUpdate time.Time
	errors     []ErrorEntry
}

// New creates the model. Every round gets its own context derived from ctx
// and bounded by interval.
func New(ctx context.Context, title string, interval time.Duration, quoter Quoter) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = LoadingStyle
	return Model{
		ctx:      ctx,
		quoter:   quoter,
		interval: interval,
		title:    title,
		quotes:   components.NewQuotesComponent(title),
		stats:    components.NewStatsComponent(),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		loading:  true,
		errors:   make([]ErrorEntry, 0, maxErrors),
	}
}

// Init starts the first round.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.interval)
		defer cancel()
		start := time.Now()
		rows, err := m.quoter(ctx)
		return QuotesMsg{Rows: rows, Took: time.Since(start), Err: err}
	}
}

func (m Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return refreshMsg{} })
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetch()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.quotes.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.quotes.ScrollDown()
		case key.Matches(msg, m.keys.Clear):
			m.errors = m.errors[:0]
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case QuotesMsg:
		m.loading = false
		m.lastUpdate = time.Now()
		if msg.Err != nil {
			m.addError(msg.Err)
		} else {
			m.quotes.Update(msg.Rows)
			quoted, failed := 0, 0
			for _, r := range msg.Rows {
				if r.Err != "" {
					failed++
				} else {
					quoted++
				}
			}
			m.stats.Record(msg.Took, quoted, failed)
		}
		return m, m.scheduleRefresh()

	case refreshMsg:
		if m.paused || m.loading {
			return m, m.scheduleRefresh()
		}
		m.loading = true
		return m, m.fetch()
	}

	return m, nil
}

func (m *Model) addError(err error) {
	m.errors = append(m.errors, ErrorEntry{Message: err.Error(), Timestamp: time.Now()})
	if len(m.errors) > maxErrors {
		m.errors = m.errors[len(m.errors)-maxErrors:]
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Swap Quotes "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	width := m.width - 4
	if width <= 0 {
		width = 100
	}
	b.WriteString(BoxStyle.Width(width).Render(m.quotes.View()))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Width(width).Render(m.stats.View()))
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorHeaderStyle.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.loading {
		parts = append(parts, m.spinner.View()+LoadingStyle.Render(" Quoting"))
	}
	parts = append(parts, fmt.Sprintf("Every %s", m.interval))

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, title string, interval time.Duration, quoter Quoter) error {
	p := tea.NewProgram(New(ctx, title, interval, quoter), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
