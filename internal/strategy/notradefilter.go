package strategy

import (
	"math"
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// Momentum detection inside the filter: total change over the last five
// minutes, at least one cent.
const (
	filterMomentumWindow    = 5
	filterMomentumThreshold = 0.01
)

// NoTradeFilter trades a simple momentum signal but only when conditions
// warrant trading at all: it skips hours where BTC barely moves over the
// lookback and minutes where the YES/NO sum drifts too far from 1.0 (a wide
// effective spread). One position per hour.
type NoTradeFilter struct {
	tape
	minBTCVolatility float64
	maxSpread        float64
	lookbackMinutes  int
	maxPositionPct   float64
	hasTraded        bool
}

func NewNoTradeFilter(minBTCVolatility, maxSpread float64, lookbackMinutes int, maxPositionPct float64) *NoTradeFilter {
	return &NoTradeFilter{
		minBTCVolatility: minBTCVolatility,
		maxSpread:        maxSpread,
		lookbackMinutes:  lookbackMinutes,
		maxPositionPct:   maxPositionPct,
	}
}

func (s *NoTradeFilter) Name() string { return "NoTradeFilter" }

func (s *NoTradeFilter) Reset() {
	s.tape.reset()
	s.hasTraded = false
}

func (s *NoTradeFilter) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *NoTradeFilter) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() < s.lookbackMinutes {
		return Hold
	}
	if !s.passesFilters() {
		return Hold
	}

	recent := s.window(filterMomentumWindow)
	yesChange := recent[len(recent)-1].YesPrice - recent[0].YesPrice
	noChange := recent[len(recent)-1].NoPrice - recent[0].NoPrice

	current := s.last()

	if yesChange >= filterMomentumThreshold && yesChange > noChange {
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	}

	if noChange >= filterMomentumThreshold && noChange > yesChange {
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	}

	return Hold
}

// passesFilters checks both no-trade conditions: enough BTC movement over
// the lookback, and the current quote sum close enough to 1.0.
func (s *NoTradeFilter) passesFilters() bool {
	recent := s.window(s.lookbackMinutes)

	lo, hi := recent[0].BTCPrice, recent[0].BTCPrice
	for _, m := range recent[1:] {
		if m.BTCPrice < lo {
			lo = m.BTCPrice
		}
		if m.BTCPrice > hi {
			hi = m.BTCPrice
		}
	}
	if hi-lo < s.minBTCVolatility {
		return false
	}

	current := s.last()
	return math.Abs(current.YesPrice+current.NoPrice-1.0) <= s.maxSpread
}
