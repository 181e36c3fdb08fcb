package domain

import (
	"sort"
	"time"
)

// PriceTick is one minute-level BTC price observation.
type PriceTick struct {
	Timestamp time.Time
	Price     float64
}

// Market is one hourly binary market: pays $1 per YES contract when BTC
// settles at or above Strike at HourEnd, $1 per NO contract otherwise.
type Market struct {
	HourStart time.Time
	HourEnd   time.Time
	Strike    float64
}

// ContractQuote is a minute-level YES/NO quote for one strike.
// YesPrice + NoPrice ≈ 1.0 within the loader's tolerance.
type ContractQuote struct {
	Timestamp time.Time
	Strike    float64
	YesPrice  float64
	NoPrice   float64
}

// ContractType is the side of a binary position.
type ContractType string

const (
	ContractYes ContractType = "YES"
	ContractNo  ContractType = "NO"
)

// Position is an open contract holding. It exists only within its hour and
// is converted into exactly one PnLRecord at settlement.
type Position struct {
	Contract   ContractType
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
	Strike     float64
	SpreadCost float64 // spread cost paid per contract
	Slippage   float64 // slippage incurred per contract
}

// TradeAction is a strategy decision.
type TradeAction string

const (
	ActionBuyYes TradeAction = "BUY_YES"
	ActionBuyNo  TradeAction = "BUY_NO"
	ActionHold   TradeAction = "HOLD"
)

// TradeRecord is an append-only entry for an executed buy.
type TradeRecord struct {
	ID         string
	Timestamp  time.Time
	Action     TradeAction
	Quantity   float64
	Price      float64
	Fees       float64
	Strike     float64
	SpreadCost float64
	Slippage   float64
}

// PnLRecord is an append-only entry for a settled position.
type PnLRecord struct {
	ResolvedAt time.Time
	EntryTime  time.Time
	Contract   ContractType
	Quantity   float64
	EntryPrice float64
	Payout     float64
	PnL        float64
	Strike     float64
	FinalPrice float64
	Win        bool
}

// HourSummary is the per-hour result appended by the simulator. Hours that
// were skipped (no market, no ticks) produce no summary at all.
type HourSummary struct {
	HourStart       time.Time
	HourEnd         time.Time
	Strike          float64
	SpotAtStart     float64
	SettlementPrice float64
	TradesExecuted  int
	HourPnL         float64
	CashAfter       float64
}

// RunResult aggregates one full simulation run for a single strategy.
// Trades and Resolutions are the portfolio's append-only histories, copied
// out so downstream analysis never shares mutable state with the run.
type RunResult struct {
	RunID          string
	StrategyName   string
	Hours          []HourSummary
	InitialBalance float64
	FinalBalance   float64
	TotalPnL       float64
	Trades         []TradeRecord
	Resolutions    []PnLRecord
	SelectionLog   string // reference to the audit sink destination
}

// SelectionMethod tags how a market was chosen for an hour.
type SelectionMethod string

const (
	MethodClosest     SelectionMethod = "closest"
	MethodIntelligent SelectionMethod = "intelligent"
	MethodFallback    SelectionMethod = "fallback_closest"
)

// SelectionRecord is one audit row emitted per market-selection decision.
type SelectionRecord struct {
	HourStart       time.Time
	BTCSpot         float64
	SelectedStrike  float64
	Method          SelectionMethod
	AvgSpread       float64
	VolumeProxy     float64
	PriceReaction   float64
	VolatilityEst   float64
	StrikesConsider int
	Reason          string
}

// Dataset bundles the three validated input tables for one or more runs.
// Runs treat it as read-only.
type Dataset struct {
	Prices  []PriceTick
	Markets []Market
	Quotes  []ContractQuote
}

// HourStarts returns the distinct hour_start values present in the market
// table, sorted ascending.
func (d *Dataset) HourStarts() []time.Time {
	seen := make(map[time.Time]bool, len(d.Markets))
	var hours []time.Time
	for _, m := range d.Markets {
		if !seen[m.HourStart] {
			seen[m.HourStart] = true
			hours = append(hours, m.HourStart)
		}
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })
	return hours
}

// StrikesForHour returns the candidate strikes listed for an hour, in table
// order. Order matters: selection ties resolve to the first candidate.
func (d *Dataset) StrikesForHour(hourStart time.Time) []float64 {
	var strikes []float64
	for _, m := range d.Markets {
		if m.HourStart.Equal(hourStart) {
			strikes = append(strikes, m.Strike)
		}
	}
	return strikes
}

// PriceAt returns the tick with exactly the given timestamp.
func (d *Dataset) PriceAt(ts time.Time) (float64, bool) {
	for _, t := range d.Prices {
		if t.Timestamp.Equal(ts) {
			return t.Price, true
		}
	}
	return 0, false
}

// PricesBetween returns ticks in [from, to). Input order is preserved; the
// loader guarantees it is ascending.
func (d *Dataset) PricesBetween(from, to time.Time) []PriceTick {
	var out []PriceTick
	for _, t := range d.Prices {
		if !t.Timestamp.Before(from) && t.Timestamp.Before(to) {
			out = append(out, t)
		}
	}
	return out
}

// QuotesBetween returns quotes for one strike in [from, to).
func (d *Dataset) QuotesBetween(strike float64, from, to time.Time) []ContractQuote {
	var out []ContractQuote
	for _, q := range d.Quotes {
		if q.Strike == strike && !q.Timestamp.Before(from) && q.Timestamp.Before(to) {
			out = append(out, q)
		}
	}
	return out
}
