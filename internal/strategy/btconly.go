package strategy

import (
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// BtcOnly trades on the BTC trend alone and ignores contract prices
// entirely: a strict rise over the lookback buys YES, a strict fall buys
// NO. Counterfactual baseline for strategies that read the quotes. One
// position per hour.
type BtcOnly struct {
	tape
	lookbackMinutes int
	maxPositionPct  float64
	hasTraded       bool
}

func NewBtcOnly(lookbackMinutes int, maxPositionPct float64) *BtcOnly {
	return &BtcOnly{
		lookbackMinutes: lookbackMinutes,
		maxPositionPct:  maxPositionPct,
	}
}

func (s *BtcOnly) Name() string { return "BtcOnly" }

func (s *BtcOnly) Reset() {
	s.tape.reset()
	s.hasTraded = false
}

func (s *BtcOnly) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *BtcOnly) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() <= s.lookbackMinutes {
		return Hold
	}

	current := s.last()

	if s.btcStreak(func(prev, cur float64) bool { return cur > prev }) {
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	}

	if s.btcStreak(func(prev, cur float64) bool { return cur < prev }) {
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	}

	return Hold
}

// btcStreak reports whether cmp holds on each of the last lookbackMinutes
// BTC price transitions.
func (s *BtcOnly) btcStreak(cmp func(prev, cur float64) bool) bool {
	recent := s.window(s.lookbackMinutes + 1)
	for i := 1; i < len(recent); i++ {
		if !cmp(recent[i-1].BTCPrice, recent[i].BTCPrice) {
			return false
		}
	}
	return true
}
