// Package notify renders run reports and strategy comparisons to the
// console.
package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/strikesim/strikesim/internal/domain"
	"github.com/strikesim/strikesim/internal/metrics"
)

// Console writes human-readable reports.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole writes to stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter writes to the given writer, for tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// PrintRunReport renders the full report for one run: headline numbers,
// trade statistics and, in verbose mode, the hour-by-hour table.
func (c *Console) PrintRunReport(res *domain.RunResult) {
	m := metrics.Calculate(res)

	fmt.Fprintf(c.out, "\n=== %s (run %s) ===\n", m.StrategyName, shortID(res.RunID))
	fmt.Fprintf(c.out, "  Hours traded:   %d\n", m.HoursTraded)
	fmt.Fprintf(c.out, "  Initial:        $%.2f\n", res.InitialBalance)
	fmt.Fprintf(c.out, "  Final:          $%.2f\n", m.FinalBalance)
	fmt.Fprintf(c.out, "  Total PnL:      $%.2f (%.2f%%)\n", m.TotalPnL, m.ReturnPct)
	fmt.Fprintf(c.out, "  Max drawdown:   %.2f%%\n", m.MaxDrawdownPct)

	if m.TotalTrades == 0 {
		fmt.Fprintln(c.out, "  No positions resolved.")
	} else {
		fmt.Fprintf(c.out, "  Trades:         %d (%d won, %d lost, win rate %.1f%%)\n",
			m.TotalTrades, m.Wins, m.Losses, m.WinRatePct)
		fmt.Fprintf(c.out, "  Avg trade PnL:  $%.2f (win $%.2f / loss $%.2f)\n",
			m.AvgTradePnL, m.AvgWin, m.AvgLoss)
		fmt.Fprintf(c.out, "  Avg hold:       %.0f min\n", m.AvgHoldMinutes)
	}

	if c.verbose && len(res.Hours) > 0 {
		c.printHours(res.Hours)
	}
}

// printHours renders the per-hour breakdown.
func (c *Console) printHours(hours []domain.HourSummary) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Hour", "Strike", "Spot", "Settle", "Outcome", "Trades", "PnL", "Cash")

	for _, h := range hours {
		outcome := "NO"
		if h.SettlementPrice >= h.Strike {
			outcome = "YES"
		}
		table.Append(
			h.HourStart.UTC().Format("01-02 15:04"),
			fmt.Sprintf("%.0f", h.Strike),
			fmt.Sprintf("%.0f", h.SpotAtStart),
			fmt.Sprintf("%.0f", h.SettlementPrice),
			outcome,
			fmt.Sprintf("%d", h.TradesExecuted),
			fmt.Sprintf("$%.2f", h.HourPnL),
			fmt.Sprintf("$%.2f", h.CashAfter),
		)
	}
	table.Render()
}

// PrintComparison ranks several runs side by side, best PnL first.
func (c *Console) PrintComparison(results []*domain.RunResult) {
	if len(results) == 0 {
		fmt.Fprintf(c.out, "[%s] no runs to compare\n", time.Now().Format("15:04:05"))
		return
	}

	ranked := metrics.Compare(results)

	fmt.Fprintf(c.out, "\n=== STRATEGY COMPARISON (%d runs) ===\n", len(ranked))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "PnL", "Return", "Trades", "Win rate", "Avg PnL", "Max DD", "Final")

	for i, m := range ranked {
		table.Append(
			fmt.Sprintf("%d", i+1),
			m.StrategyName,
			fmt.Sprintf("$%.2f", m.TotalPnL),
			fmt.Sprintf("%.2f%%", m.ReturnPct),
			fmt.Sprintf("%d", m.TotalTrades),
			fmt.Sprintf("%.1f%%", m.WinRatePct),
			fmt.Sprintf("$%.2f", m.AvgTradePnL),
			fmt.Sprintf("%.2f%%", m.MaxDrawdownPct),
			fmt.Sprintf("$%.2f", m.FinalBalance),
		)
	}
	table.Render()

	best := ranked[0]
	if best.TotalPnL > 0 {
		fmt.Fprintf(c.out, "  Best: %s ($%.2f over %d hours)\n",
			best.StrategyName, best.TotalPnL, best.HoursTraded)
	} else {
		fmt.Fprintln(c.out, "  No strategy finished in profit on this dataset.")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
