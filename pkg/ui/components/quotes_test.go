package components

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestQuoteRow_Cells(t *testing.T) {
	bps := decimal.RequireFromString("-12.34")
	tests := []struct {
		name string
		row  QuoteRow
		want []string
	}{
		{
			name: "best with prices",
			row: QuoteRow{
				Provider: "UNI_SWAP_V3", Kind: "direct_amm", Output: "998.1 USDC",
				OutputUSD: decimal.RequireFromString("998.1"), Gas: "0.001 ETH", Impact: "0.12%",
				DeviationBps: &bps, Best: true,
			},
			want: []string{"1", "UNI_SWAP_V3", "direct_amm", "998.1 USDC", "$998.10", "0.001 ETH", "0.12%", "-12.3 bps", "best"},
		},
		{
			name: "failure without prices",
			row:  QuoteRow{Provider: "MESON", Kind: "cross_chain", Output: "-", Gas: "-", Impact: "-", Err: "min amount 5 USDC"},
			want: []string{"1", "MESON", "cross_chain", "-", "-", "-", "-", "-", "min amount 5 USDC"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.row.cells(0)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("cells() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTable_RendersEveryRow(t *testing.T) {
	out := Table([]QuoteRow{
		{Provider: "DEBRIDGE", Output: "10 USDC", Best: true},
		{Provider: "CELER", Err: "too low"},
	}, -1)

	for _, want := range []string{"Provider", "DEBRIDGE", "CELER", "too low"} {
		if !strings.Contains(out, want) {
			t.Errorf("table is missing %q:\n%s", want, out)
		}
	}
}

func TestQuotesComponent_Cursor(t *testing.T) {
	q := NewQuotesComponent("ETH -> BASE")
	if _, ok := q.Selected(); ok {
		t.Fatal("empty component has no selection")
	}

	q.Update([]QuoteRow{{Provider: "A"}, {Provider: "B"}, {Provider: "C"}})
	q.ScrollDown()
	q.ScrollDown()
	q.ScrollDown()
	if r, _ := q.Selected(); r.Provider != "C" {
		t.Errorf("Selected() = %s, want C", r.Provider)
	}

	q.Update([]QuoteRow{{Provider: "A"}})
	if r, _ := q.Selected(); r.Provider != "A" {
		t.Errorf("cursor not clamped, got %s", r.Provider)
	}
	q.ScrollUp()
	if r, _ := q.Selected(); r.Provider != "A" {
		t.Errorf("ScrollUp() past top, got %s", r.Provider)
	}
}

func TestStats_Record(t *testing.T) {
	var s Stats
	s.Record(100*time.Millisecond, 3, 1)
	s.Record(300*time.Millisecond, 2, 2)

	if s.Rounds != 2 || s.Quoted != 5 || s.Failed != 3 {
		t.Errorf("counters = %+v", s)
	}
	if s.LastLatency != 300*time.Millisecond {
		t.Errorf("LastLatency = %s", s.LastLatency)
	}
	if s.AvgLatency() != 200*time.Millisecond {
		t.Errorf("AvgLatency() = %s", s.AvgLatency())
	}
}
