package ui

import (
	"time"

	"github.com/fd1az/swap-aggregator/pkg/ui/components"
)

// QuotesMsg carries one finished quote round.
type QuotesMsg struct {
	Rows []components.QuoteRow
	Took time.Duration
	Err  error
}

// refreshMsg asks for the next round once the interval has elapsed.
type refreshMsg struct{}
