// Package pricing synthesizes YES/NO quotes from spot prices, for hours
// where the quote table has gaps or for generating test datasets.
package pricing

import (
	"math"
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

const hoursPerYear = 365.25 * 24

// Pricer converts spot/strike distance and time remaining into a YES
// probability using a reduced Black-Scholes form.
type Pricer struct {
	volatility float64
}

// NewPricer returns a pricer. A non-positive volatility falls back to 0.02.
func NewPricer(volatility float64) *Pricer {
	if volatility <= 0 {
		volatility = 0.02
	}
	return &Pricer{volatility: volatility}
}

// YesProbability estimates P(spot >= strike at expiry). At or past expiry
// the outcome is deterministic. The result is clamped to [0.01, 0.99] so a
// synthetic quote never prices a side at zero.
func (p *Pricer) YesProbability(spot, strike, hoursToExpiry float64) float64 {
	if hoursToExpiry <= 0 {
		if spot >= strike {
			return 1.0
		}
		return 0.0
	}
	if spot <= 0 || strike <= 0 {
		return 0.5
	}

	timeYears := hoursToExpiry / hoursPerYear
	d2 := math.Log(spot/strike) / (p.volatility * math.Sqrt(timeYears))
	return domain.Clamp(normCDF(d2), 0.01, 0.99)
}

// Quote returns a YES/NO pair that always sums to exactly 1.0.
func (p *Pricer) Quote(spot, strike, hoursToExpiry, spread float64) (yes, no float64) {
	prob := p.YesProbability(spot, strike, hoursToExpiry)
	yes = domain.Clamp(prob+spread/2, 0.01, 0.99)
	return yes, 1.0 - yes
}

// SimulateHour produces one synthetic quote per tick inside
// [hourStart, hourEnd), each priced off the time remaining to hourEnd.
func (p *Pricer) SimulateHour(ticks []domain.PriceTick, strike float64, hourStart, hourEnd time.Time) []domain.ContractQuote {
	var out []domain.ContractQuote
	for _, tick := range ticks {
		if tick.Timestamp.Before(hourStart) || !tick.Timestamp.Before(hourEnd) {
			continue
		}
		remaining := hourEnd.Sub(tick.Timestamp).Hours()
		yes, no := p.Quote(tick.Price, strike, remaining, 0)
		out = append(out, domain.ContractQuote{
			Timestamp: tick.Timestamp,
			Strike:    strike,
			YesPrice:  yes,
			NoPrice:   no,
		})
	}
	return out
}

// SynthesizeTable builds a complete quote table for a dataset that has
// ticks and markets but no quotes: one quote per tick inside each market's
// hour, in market table order.
func (p *Pricer) SynthesizeTable(ticks []domain.PriceTick, markets []domain.Market) []domain.ContractQuote {
	var out []domain.ContractQuote
	for _, m := range markets {
		out = append(out, p.SimulateHour(ticks, m.Strike, m.HourStart, m.HourEnd)...)
	}
	return out
}

// normCDF is the standard normal CDF.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
