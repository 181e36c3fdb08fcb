package strategy

import (
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// OpeningAuction trades only during the first minutes of the hour, following
// early price momentum, then holds until resolution.
type OpeningAuction struct {
	tape
	openingWindowMinutes int
	minPriceIncrease     float64
	maxPositionPct       float64
	hasTraded            bool
	hourOpen             time.Time
}

func NewOpeningAuction(openingWindowMinutes int, minPriceIncrease, maxPositionPct float64) *OpeningAuction {
	return &OpeningAuction{
		openingWindowMinutes: openingWindowMinutes,
		minPriceIncrease:     minPriceIncrease,
		maxPositionPct:       maxPositionPct,
	}
}

func (s *OpeningAuction) Name() string { return "OpeningAuction" }

func (s *OpeningAuction) Reset() {
	s.tape.reset()
	s.hasTraded = false
	s.hourOpen = time.Time{}
}

func (s *OpeningAuction) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	// The first observed minute anchors the opening window.
	if s.hourOpen.IsZero() {
		s.hourOpen = timestamp
	}
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *OpeningAuction) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() < 2 {
		return Hold
	}

	current := s.last()
	if current.Timestamp.Sub(s.hourOpen) >= time.Duration(s.openingWindowMinutes)*time.Minute {
		return Hold
	}

	first := s.samples[0]

	if current.YesPrice-first.YesPrice >= s.minPriceIncrease {
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	}

	if current.NoPrice-first.NoPrice >= s.minPriceIncrease {
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	}

	return Hold
}
