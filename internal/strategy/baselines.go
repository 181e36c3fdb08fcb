package strategy

import (
	"math/rand"
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// NoTrade never trades. Baseline: total PnL must be exactly zero.
type NoTrade struct {
	tape
}

func NewNoTrade() *NoTrade { return &NoTrade{} }

func (s *NoTrade) Name() string { return "NoTrade" }
func (s *NoTrade) Reset()       { s.tape.reset() }

func (s *NoTrade) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *NoTrade) DecideTrade(PortfolioView) Decision { return Hold }

// AlwaysYes buys YES once per hour on the first observed minute.
type AlwaysYes struct {
	tape
	maxPositionPct float64
	hasTraded      bool
}

func NewAlwaysYes(maxPositionPct float64) *AlwaysYes {
	return &AlwaysYes{maxPositionPct: maxPositionPct}
}

func (s *AlwaysYes) Name() string { return "AlwaysYes" }

func (s *AlwaysYes) Reset() {
	s.tape.reset()
	s.hasTraded = false
}

func (s *AlwaysYes) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *AlwaysYes) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() == 0 {
		return Hold
	}
	qty := maxQuantity(view, s.last().YesPrice, s.maxPositionPct)
	if qty <= 0 {
		// Leave hasTraded unset so the buy can retry once cash frees up.
		return Hold
	}
	s.hasTraded = true
	return Decision{Action: domain.ActionBuyYes, Quantity: qty}
}

// AlwaysNo buys NO once per hour on the first observed minute.
type AlwaysNo struct {
	tape
	maxPositionPct float64
	hasTraded      bool
}

func NewAlwaysNo(maxPositionPct float64) *AlwaysNo {
	return &AlwaysNo{maxPositionPct: maxPositionPct}
}

func (s *AlwaysNo) Name() string { return "AlwaysNo" }

func (s *AlwaysNo) Reset() {
	s.tape.reset()
	s.hasTraded = false
}

func (s *AlwaysNo) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *AlwaysNo) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() == 0 {
		return Hold
	}
	qty := maxQuantity(view, s.last().NoPrice, s.maxPositionPct)
	if qty <= 0 {
		return Hold
	}
	s.hasTraded = true
	return Decision{Action: domain.ActionBuyNo, Quantity: qty}
}

// Random buys YES, NO or holds at random, once per hour. It owns its
// generator and reseeds it in Reset so every trading hour is reproducible
// independent of run order.
type Random struct {
	tape
	maxPositionPct float64
	seed           int64
	rng            *rand.Rand
	hasTraded      bool
}

func NewRandom(maxPositionPct float64, seed int64) *Random {
	return &Random{
		maxPositionPct: maxPositionPct,
		seed:           seed,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

func (s *Random) Name() string { return "Random" }

func (s *Random) Reset() {
	s.tape.reset()
	s.hasTraded = false
	s.rng = rand.New(rand.NewSource(s.seed))
}

func (s *Random) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *Random) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() == 0 {
		return Hold
	}

	current := s.last()
	switch s.rng.Intn(3) {
	case 0: // BUY_YES
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	case 1: // BUY_NO
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	default: // HOLD for the rest of the hour
		s.hasTraded = true
	}
	return Hold
}
