package strategy

import (
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// MeanReversion trades against price extremes: when one side trades well
// above its rolling mean, it buys the opposite side expecting reversion.
// Unlike the one-shot strategies it may trade repeatedly within an hour.
type MeanReversion struct {
	tape
	windowMinutes  int
	threshold      float64
	maxPositionPct float64
}

func NewMeanReversion(windowMinutes int, threshold, maxPositionPct float64) *MeanReversion {
	return &MeanReversion{
		windowMinutes:  windowMinutes,
		threshold:      threshold,
		maxPositionPct: maxPositionPct,
	}
}

func (s *MeanReversion) Name() string { return "MeanReversion" }

func (s *MeanReversion) Reset() { s.tape.reset() }

func (s *MeanReversion) OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	s.record(timestamp, btcPrice, yesPrice, noPrice)
}

func (s *MeanReversion) DecideTrade(view PortfolioView) Decision {
	if s.size() < s.windowMinutes {
		return Hold
	}

	recent := s.window(s.windowMinutes)
	var yes, no []float64
	for _, m := range recent {
		yes = append(yes, m.YesPrice)
		no = append(no, m.NoPrice)
	}

	current := s.last()

	// YES overextended: bet against it.
	if current.YesPrice > domain.Mean(yes)+s.threshold {
		if qty := maxQuantity(view, current.NoPrice, s.maxPositionPct); qty > 0 {
			return Decision{Action: domain.ActionBuyNo, Quantity: qty}
		}
	}

	// NO overextended: bet against it.
	if current.NoPrice > domain.Mean(no)+s.threshold {
		if qty := maxQuantity(view, current.YesPrice, s.maxPositionPct); qty > 0 {
			return Decision{Action: domain.ActionBuyYes, Quantity: qty}
		}
	}

	return Hold
}
