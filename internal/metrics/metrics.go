// Package metrics computes performance statistics over completed runs.
package metrics

import (
	"math"
	"sort"

	"github.com/strikesim/strikesim/internal/domain"
)

// Metrics is the per-strategy performance summary.
type Metrics struct {
	StrategyName   string
	TotalPnL       float64
	ReturnPct      float64
	FinalBalance   float64
	HoursTraded    int
	TotalTrades    int
	Wins           int
	Losses         int
	WinRatePct     float64
	AvgTradePnL    float64
	AvgWin         float64
	AvgLoss        float64
	AvgHoldMinutes float64
	MaxDrawdownPct float64
}

// Calculate derives the metrics of one run.
func Calculate(res *domain.RunResult) Metrics {
	m := Metrics{
		StrategyName: res.StrategyName,
		TotalPnL:     res.TotalPnL,
		FinalBalance: res.FinalBalance,
		HoursTraded:  len(res.Hours),
	}
	if res.InitialBalance > 0 {
		m.ReturnPct = res.TotalPnL / res.InitialBalance * 100
	}

	m.TotalTrades = len(res.Resolutions)
	var winSum, lossSum, pnlSum, holdSum float64
	for _, r := range res.Resolutions {
		pnlSum += r.PnL
		holdSum += r.ResolvedAt.Sub(r.EntryTime).Minutes()
		if r.PnL > 0 {
			m.Wins++
			winSum += r.PnL
		} else if r.PnL < 0 {
			m.Losses++
			lossSum += r.PnL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRatePct = float64(m.Wins) / float64(m.TotalTrades) * 100
		m.AvgTradePnL = pnlSum / float64(m.TotalTrades)
		m.AvgHoldMinutes = holdSum / float64(m.TotalTrades)
	}
	if m.Wins > 0 {
		m.AvgWin = winSum / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = lossSum / float64(m.Losses)
	}

	m.MaxDrawdownPct = maxDrawdown(res)
	return m
}

// maxDrawdown walks the hourly equity curve and returns the deepest
// peak-to-trough decline as a positive percentage.
func maxDrawdown(res *domain.RunResult) float64 {
	if len(res.Hours) == 0 {
		return 0
	}

	peak := res.InitialBalance
	var worst float64
	for _, h := range res.Hours {
		if h.CashAfter > peak {
			peak = h.CashAfter
		}
		if peak > 0 {
			dd := (h.CashAfter - peak) / peak * 100
			worst = math.Min(worst, dd)
		}
	}
	return math.Abs(worst)
}

// Compare calculates metrics for several runs and sorts them by total PnL,
// best first.
func Compare(results []*domain.RunResult) []Metrics {
	out := make([]Metrics, 0, len(results))
	for _, res := range results {
		out = append(out, Calculate(res))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalPnL > out[j].TotalPnL })
	return out
}
