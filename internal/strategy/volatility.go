package strategy

import (
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// VolatilityCompression fades breakouts that follow a period of price
// compression, on the assumption that moves out of stagnation tend to
// reverse. One position per hour.
type VolatilityCompression struct {
	tape
	compressionWindow    int
	compressionThreshold float64
	breakoutThreshold    float64
	maxPositionPct       float64
	hasTraded            bool
	wasCompressed        bool
}

func NewVolatilityCompression(compressionWindow int, compressionThreshold, breakoutThreshold, maxPositionPct float64) *VolatilityCompression {
	return &VolatilityCompression{
		compressionWindow:    compressionWindow,
		compressionThreshold: compressionThreshold,
		breakoutThreshold:    breakoutThreshold,
		maxPositionPct:       maxPositionPct,
	}
}

func (s *VolatilityCompression) Name() string { return "VolatilityCompression" }

func (s *VolatilityCompression) Reset() {
	s.tape.reset()
	s.hasTraded = false
	s.wasCompressed = false
}

func (s *VolatilityCompression) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *VolatilityCompression) DecideTrade(view PortfolioView) Decision {
	if s.hasTraded || s.size() < s.compressionWindow+2 {
		return Hold
	}

	// Check compression over the window excluding the current minute, so a
	// breakout on the current minute does not mask the stagnation before it.
	window := s.window(s.compressionWindow + 1)
	if s.isCompressed(window[:len(window)-1]) {
		s.wasCompressed = true
	}
	if !s.wasCompressed {
		return Hold
	}

	current := s.samples[len(s.samples)-1]
	previous := s.samples[len(s.samples)-2]

	// Fade a YES breakout by buying NO, and vice versa.
	if current.YesPrice-previous.YesPrice >= s.breakoutThreshold {
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	}

	if current.NoPrice-previous.NoPrice >= s.breakoutThreshold {
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			s.hasTraded = true
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	}

	return Hold
}

// isCompressed reports whether both sides stayed within the compression
// threshold over the window.
func (s *VolatilityCompression) isCompressed(window []Sample) bool {
	if len(window) == 0 {
		return false
	}
	return priceRange(window, func(m Sample) float64 { return m.YesPrice }) <= s.compressionThreshold &&
		priceRange(window, func(m Sample) float64 { return m.NoPrice }) <= s.compressionThreshold
}

func priceRange(window []Sample, price func(Sample) float64) float64 {
	lo, hi := price(window[0]), price(window[0])
	for _, m := range window[1:] {
		p := price(m)
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return hi - lo
}
