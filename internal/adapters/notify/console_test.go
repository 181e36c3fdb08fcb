package notify_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/strikesim/strikesim/internal/adapters/notify"
	"github.com/strikesim/strikesim/internal/domain"
)

func makeResult(strategy string, pnl float64) *domain.RunResult {
	hourStart := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	win := pnl > 0
	return &domain.RunResult{
		RunID:          "abcdef1234567890",
		StrategyName:   strategy,
		InitialBalance: 10000,
		FinalBalance:   10000 + pnl,
		TotalPnL:       pnl,
		Hours: []domain.HourSummary{
			{
				HourStart:       hourStart,
				HourEnd:         hourStart.Add(time.Hour),
				Strike:          50000,
				SpotAtStart:     50010,
				SettlementPrice: 50120,
				TradesExecuted:  1,
				HourPnL:         pnl,
				CashAfter:       10000 + pnl,
			},
		},
		Resolutions: []domain.PnLRecord{
			{
				EntryTime:  hourStart.Add(5 * time.Minute),
				ResolvedAt: hourStart.Add(time.Hour),
				PnL:        pnl,
				Win:        win,
			},
		},
	}
}

func TestConsole_PrintRunReport(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintRunReport(makeResult("momentum", 45))

	out := buf.String()
	assert.Contains(t, out, "momentum")
	assert.Contains(t, out, "run abcdef12")
	assert.Contains(t, out, "$45.00")
	assert.Contains(t, out, "win rate 100.0%")
	// Hour table only shows in verbose mode.
	assert.NotContains(t, out, "Settle")
}

func TestConsole_PrintRunReport_Verbose(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	c.PrintRunReport(makeResult("momentum", 45))

	out := buf.String()
	assert.Contains(t, out, "50000")
	assert.Contains(t, out, "YES")
}

func TestConsole_PrintRunReport_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintRunReport(&domain.RunResult{
		RunID:          "r",
		StrategyName:   "no_trade",
		InitialBalance: 10000,
		FinalBalance:   10000,
	})

	assert.Contains(t, buf.String(), "No positions resolved")
}

func TestConsole_PrintComparison_RanksByPnL(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintComparison([]*domain.RunResult{
		makeResult("always_yes", -30),
		makeResult("momentum", 45),
	})

	out := buf.String()
	assert.Contains(t, out, "STRATEGY COMPARISON (2 runs)")
	assert.Less(t, indexOf(out, "momentum"), indexOf(out, "always_yes"))
	assert.Contains(t, out, "Best: momentum")
}

func TestConsole_PrintComparison_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintComparison(nil)

	assert.Contains(t, buf.String(), "no runs to compare")
}

func indexOf(s, sub string) int {
	return bytes.Index([]byte(s), []byte(sub))
}
