package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// Journal summarizes a set of closed positions.
type Journal struct {
	Positions []types.Position
}

// Summary aggregates the journal's closed trades.
type Summary struct {
	Trades      int
	Wins        int
	Losses      int
	TotalPnL    float64
	BestTrade   float64
	WorstTrade  float64
	WinRate     float64
	AvgHoldTime time.Duration
}

// Summarize computes aggregate statistics over the closed trades.
func (j *Journal) Summarize() Summary {
	var s Summary
	var totalHold time.Duration

	for _, p := range j.Positions {
		s.Trades++
		s.TotalPnL += p.RealizedPnL
		if p.RealizedPnL >= 0 {
			s.Wins++
		} else {
			s.Losses++
		}
		if p.RealizedPnL > s.BestTrade {
			s.BestTrade = p.RealizedPnL
		}
		if p.RealizedPnL < s.WorstTrade {
			s.WorstTrade = p.RealizedPnL
		}
		if p.ClosedAt != nil {
			totalHold += p.ClosedAt.Sub(p.OpenedAt)
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
		s.AvgHoldTime = totalHold / time.Duration(s.Trades)
	}
	return s
}

// RenderConsole prints the trade journal and summary as tables.
func (j *Journal) RenderConsole(out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("TRADE JOURNAL")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Opened", "Symbol", "Side", "Entry", "Exit", "Qty", "PnL", "PnL %"})
	for _, p := range j.Positions {
		t.AppendRow(table.Row{
			p.OpenedAt.Format("2006-01-02 15:04"),
			p.Symbol,
			string(p.Side),
			fmt.Sprintf("%.4f", p.EntryPrice),
			fmt.Sprintf("%.4f", p.ExitPrice),
			fmt.Sprintf("%.6f", p.Quantity),
			fmt.Sprintf("%.2f", p.RealizedPnL),
			fmt.Sprintf("%.2f%%", p.PnLPercent()),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(out)

	s := j.Summarize()
	st := table.NewWriter()
	st.SetOutputMirror(out)
	st.SetTitle("SUMMARY")
	st.SetStyle(table.StyleRounded)
	st.AppendRows([]table.Row{
		{"📊 Trades", s.Trades},
		{"✅ Wins", s.Wins},
		{"❌ Losses", s.Losses},
		{"🎯 Win Rate", fmt.Sprintf("%.1f%%", s.WinRate)},
		{"💰 Total PnL", fmt.Sprintf("%.2f", s.TotalPnL)},
		{"📈 Best Trade", fmt.Sprintf("%.2f", s.BestTrade)},
		{"📉 Worst Trade", fmt.Sprintf("%.2f", s.WorstTrade)},
		{"⏱ Avg Hold", s.AvgHoldTime.Round(time.Minute).String()},
	})
	st.Render()
}
