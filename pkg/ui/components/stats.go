package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats counts quote rounds.
type Stats struct {
	Rounds      int64
	Quoted      int64
	Failed      int64
	LastLatency time.Duration
	totalTime   time.Duration
}

// Record adds one finished round.
func (s *Stats) Record(took time.Duration, quoted, failed int) {
	s.Rounds++
	s.Quoted += int64(quoted)
	s.Failed += int64(failed)
	s.LastLatency = took
	s.totalTime += took
}

// AvgLatency is the mean round duration.
func (s Stats) AvgLatency() time.Duration {
	if s.Rounds == 0 {
		return 0
	}
	return s.totalTime / time.Duration(s.Rounds)
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Record adds one finished round.
func (s *StatsComponent) Record(took time.Duration, quoted, failed int) {
	s.stats.Record(took, quoted, failed)
}

// Stats returns the current counters.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	failed := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	if s.stats.Failed > 0 {
		failed = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Rounds: %s  │  Quotes: %s  │  Failures: %s  │  Last: %s  │  Avg: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Rounds)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Quoted)),
			failed,
			valueStyle.Render(s.stats.LastLatency.Round(time.Millisecond).String()),
			valueStyle.Render(s.AvgLatencyString()),
		)
}

// AvgLatencyString is the mean round duration rounded to milliseconds.
func (s *StatsComponent) AvgLatencyString() string {
	return s.stats.AvgLatency().Round(time.Millisecond).String()
}
