// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("#10B981")).Bold(true)
	errorStyle  = cellStyle.Foreground(lipgloss.Color("#EF4444"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	cursorStyle = cellStyle.Background(lipgloss.Color("#374151"))
)

// QuoteRow is one provider's answer, already formatted for display.
type QuoteRow struct {
	Provider string
	Kind     string
	Output   string
	// OutputUSD is zero when the output price is unknown.
	OutputUSD decimal.Decimal
	Gas       string
	Impact    string
	// DeviationBps compares the trade rate with the market rate; nil when
	// either price is unknown.
	DeviationBps *decimal.Decimal
	Best         bool
	Err          string
}

var quoteHeaders = []string{"#", "Provider", "Kind", "Output", "USD", "Gas", "Impact", "vs Market", "Status"}

func (r QuoteRow) cells(i int) []string {
	usd := "-"
	if r.OutputUSD.IsPositive() {
		usd = "$" + r.OutputUSD.StringFixed(2)
	}
	deviation := "-"
	if r.DeviationBps != nil {
		deviation = fmt.Sprintf("%+.1f bps", r.DeviationBps.InexactFloat64())
	}
	status := "ok"
	switch {
	case r.Err != "":
		status = r.Err
	case r.Best:
		status = "best"
	}
	return []string{fmt.Sprintf("%d", i+1), r.Provider, r.Kind, r.Output, usd, r.Gas, r.Impact, deviation, status}
}

// Table renders rows as a bordered table. cursor highlights one row; pass
// -1 for none.
func Table(rows []QuoteRow, cursor int) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.cells(i)
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))).
		Headers(quoteHeaders...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case row < 0 || row >= len(rows):
				return cellStyle
			case row == cursor:
				return cursorStyle
			case rows[row].Err != "":
				return errorStyle
			case rows[row].Best:
				return bestStyle
			}
			return cellStyle
		}).
		String()
}

// QuotesComponent renders the latest quote round with a movable cursor.
type QuotesComponent struct {
	title  string
	rows   []QuoteRow
	cursor int
}

// NewQuotesComponent creates a new quotes component.
func NewQuotesComponent(title string) *QuotesComponent {
	return &QuotesComponent{title: title}
}

// Update replaces the rows, keeping the cursor in range.
func (q *QuotesComponent) Update(rows []QuoteRow) {
	q.rows = rows
	if q.cursor >= len(rows) {
		q.cursor = max(len(rows)-1, 0)
	}
}

// ScrollUp moves the cursor up.
func (q *QuotesComponent) ScrollUp() {
	if q.cursor > 0 {
		q.cursor--
	}
}

// ScrollDown moves the cursor down.
func (q *QuotesComponent) ScrollDown() {
	if q.cursor < len(q.rows)-1 {
		q.cursor++
	}
}

// Selected returns the row under the cursor.
func (q *QuotesComponent) Selected() (QuoteRow, bool) {
	if len(q.rows) == 0 {
		return QuoteRow{}, false
	}
	return q.rows[q.cursor], true
}

// View renders the quotes component.
func (q *QuotesComponent) View() string {
	result := headerStyle.Render(q.title) + "\n\n"
	if len(q.rows) == 0 {
		return result + dimStyle.Render("Waiting for quotes...")
	}
	return result + Table(q.rows, q.cursor)
}
