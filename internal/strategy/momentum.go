package strategy

import (
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// Momentum buys the side whose price has risen for N consecutive minutes.
// One position per hour.
type Momentum struct {
	tape
	lookbackMinutes int
	maxPositionPct  float64
	hasTraded       bool
}

func NewMomentum(lookbackMinutes int, maxPositionPct float64) *Momentum {
	return &Momentum{
		lookbackMinutes: lookbackMinutes,
		maxPositionPct:  maxPositionPct,
	}
}

func (s *Momentum) Name() string { return "Momentum" }

func (s *Momentum) Reset() {
	s.tape.reset()
	s.hasTraded = false
}

func (s *Momentum) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *Momentum) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() <= s.lookbackMinutes {
		return Hold
	}

	current := s.last()

	if s.risingStreak(func(m Sample) float64 { return m.YesPrice }) {
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	}

	if s.risingStreak(func(m Sample) float64 { return m.NoPrice }) {
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	}

	return Hold
}

// risingStreak reports whether the price rose strictly on each of the last
// lookbackMinutes transitions.
func (s *Momentum) risingStreak(price func(Sample) float64) bool {
	recent := s.window(s.lookbackMinutes + 1)
	for i := 1; i < len(recent); i++ {
		if price(recent[i]) <= price(recent[i-1]) {
			return false
		}
	}
	return true
}
