// Package strategy defines the capability contract every trading strategy
// satisfies and a set of built-in variants. Strategies observe minutes and
// emit buy/hold decisions; dispatch is via the interface, never type
// inspection.
package strategy

import (
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// PortfolioView is the read-only slice of portfolio state strategies may
// consult when sizing a trade.
type PortfolioView interface {
	Cash() float64
}

// Decision is the outcome of DecideTrade. Quantity is meaningful only for
// non-Hold actions.
type Decision struct {
	Action   domain.TradeAction
	Quantity int
}

// Hold is the no-op decision.
var Hold = Decision{Action: domain.ActionHold}

// Strategy is the fixed capability contract of every pluggable variant.
type Strategy interface {
	// Name identifies the strategy in results and reports.
	Name() string

	// Reset clears per-hour state. Called once before any minute of a new
	// trading hour is fed.
	Reset()

	// OnMinute observes one minute of market data. Pure observation.
	OnMinute(timestamp time.Time, btcPrice, yesPrice, noPrice float64)

	// DecideTrade returns the action for the current minute.
	DecideTrade(view PortfolioView) Decision
}

// Sample is one observed minute.
type Sample struct {
	Timestamp time.Time
	BTCPrice  float64
	YesPrice  float64
	NoPrice   float64
}

// tape is the per-hour minute history shared by the built-in strategies.
type tape struct {
	samples []Sample
}

func (t *tape) record(timestamp time.Time, btcPrice, yesPrice, noPrice float64) {
	t.samples = append(t.samples, Sample{
		Timestamp: timestamp,
		BTCPrice:  btcPrice,
		YesPrice:  yesPrice,
		NoPrice:   noPrice,
	})
}

func (t *tape) reset()       { t.samples = nil }
func (t *tape) size() int    { return len(t.samples) }
func (t *tape) last() Sample { return t.samples[len(t.samples)-1] }

// window returns the most recent n samples.
func (t *tape) window(n int) []Sample {
	if n >= len(t.samples) {
		return t.samples
	}
	return t.samples[len(t.samples)-n:]
}

// maxQuantity sizes a trade as the whole number of contracts that fits in
// maxPositionPct of current cash at the given price.
func maxQuantity(view PortfolioView, price, maxPositionPct float64) int {
	if price <= 0 {
		return 0
	}
	return int(view.Cash() * maxPositionPct / price)
}
