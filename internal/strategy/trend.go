package strategy

import (
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// TrendContinuation waits for a confirmed directional move over the
// confirmation window and enters in its direction. One position per hour.
type TrendContinuation struct {
	tape
	confirmationMinutes int
	minTrendStrength    float64
	maxPositionPct      float64
	hasTraded           bool
}

func NewTrendContinuation(confirmationMinutes int, minTrendStrength, maxPositionPct float64) *TrendContinuation {
	return &TrendContinuation{
		confirmationMinutes: confirmationMinutes,
		minTrendStrength:    minTrendStrength,
		maxPositionPct:      maxPositionPct,
	}
}

func (s *TrendContinuation) Name() string { return "TrendContinuation" }

func (s *TrendContinuation) Reset() {
	s.tape.reset()
	s.hasTraded = false
}

func (s *TrendContinuation) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *TrendContinuation) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() < s.confirmationMinutes {
		return Hold
	}

	lookback := s.window(s.confirmationMinutes)
	var yes, no []float64
	for _, m := range lookback {
		yes = append(yes, m.YesPrice)
		no = append(no, m.NoPrice)
	}

	yesTrend := trendStrength(yes)
	noTrend := trendStrength(no)
	current := s.last()

	if yesTrend >= s.minTrendStrength && yesTrend > noTrend {
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	}

	if noTrend >= s.minTrendStrength && noTrend > yesTrend {
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	}

	return Hold
}

// trendStrength is the net price change over the window. Positive values
// mean the series ended above where it started.
func trendStrength(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	return prices[len(prices)-1] - prices[0]
}
