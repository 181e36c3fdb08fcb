// Package micro models market microstructure for contract execution:
// bid/ask spread, size-dependent slippage and a per-minute liquidity cap.
// State is scoped to a single trading hour and reset by the simulator.
package micro

import (
	"fmt"
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// Side of a trade from the taker's perspective.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Config holds the microstructure parameters.
type Config struct {
	BidAskSpread        float64 // total spread in price units, e.g. 0.02
	SlippagePer100      float64 // price impact per 100 contracts
	MaxLiquidityPerMin  float64 // contracts fillable per minute timestamp
	MinTradePrice       float64 // lower execution price bound
	MaxTradePrice       float64 // upper execution price bound
}

// Fill is the outcome of routing an order through the model. A rejected
// order carries Executed=false and a Reason; it is not an error.
type Fill struct {
	Executed   bool
	Price      float64
	Quantity   float64
	Slippage   float64
	SpreadCost float64
	Reason     string
}

// Model applies execution costs and tracks per-minute liquidity consumption
// for the current hour.
type Model struct {
	cfg      Config
	consumed map[time.Time]float64
}

// New validates the configuration and returns a fresh model.
func New(cfg Config) (*Model, error) {
	if cfg.BidAskSpread < 0 {
		return nil, fmt.Errorf("micro.New: bid-ask spread %.4f: %w", cfg.BidAskSpread, domain.ErrConfiguration)
	}
	if cfg.SlippagePer100 < 0 {
		return nil, fmt.Errorf("micro.New: slippage per 100 contracts %.4f: %w", cfg.SlippagePer100, domain.ErrConfiguration)
	}
	if cfg.MaxLiquidityPerMin <= 0 {
		return nil, fmt.Errorf("micro.New: liquidity cap %.2f: %w", cfg.MaxLiquidityPerMin, domain.ErrConfiguration)
	}
	if !(0 < cfg.MinTradePrice && cfg.MinTradePrice < cfg.MaxTradePrice && cfg.MaxTradePrice < 1) {
		return nil, fmt.Errorf("micro.New: price bounds [%.2f, %.2f]: %w", cfg.MinTradePrice, cfg.MaxTradePrice, domain.ErrConfiguration)
	}
	return &Model{
		cfg:      cfg,
		consumed: make(map[time.Time]float64),
	}, nil
}

// ResetHour clears the liquidity ledger for a new trading hour.
func (m *Model) ResetHour() {
	clear(m.consumed)
}

// ExecutionPrice applies half the spread against the mid price, then
// slippage proportional to order size, worsening the price for the taker.
// The result is clamped to the configured bounds.
func (m *Model) ExecutionPrice(mid, quantity float64, side Side) (price, spreadCost, slippage float64) {
	halfSpread := m.cfg.BidAskSpread / 2
	slippage = (quantity / 100.0) * m.cfg.SlippagePer100

	if side == SideBuy {
		price = mid + halfSpread + slippage
	} else {
		price = mid - halfSpread - slippage
	}

	price = domain.Clamp(price, m.cfg.MinTradePrice, m.cfg.MaxTradePrice)
	return price, halfSpread, slippage
}

// CheckLiquidity reports how much of the requested quantity can fill at the
// given minute. A partial quantity is allowed and must be surfaced to the
// caller; the remainder is not retried here.
func (m *Model) CheckLiquidity(timestamp time.Time, quantity float64) (ok bool, available float64) {
	remaining := m.cfg.MaxLiquidityPerMin - m.consumed[timestamp]
	if remaining <= 0 {
		return false, 0
	}
	if quantity <= remaining {
		return true, quantity
	}
	return true, remaining
}

// Consumed returns the quantity already filled at a minute.
func (m *Model) Consumed(timestamp time.Time) float64 {
	return m.consumed[timestamp]
}

// RollbackLiquidity releases liquidity reserved for a trade that was
// ultimately rejected downstream (e.g. the portfolio could not afford the
// reduced fill).
func (m *Model) RollbackLiquidity(timestamp time.Time, quantity float64) {
	m.consumed[timestamp] -= quantity
	if m.consumed[timestamp] <= 0 {
		delete(m.consumed, timestamp)
	}
}

// ExecuteTrade runs the full execution pipeline: liquidity check (possibly
// reducing the quantity), execution pricing for the filled size, and ledger
// update.
func (m *Model) ExecuteTrade(timestamp time.Time, mid, quantity float64, side Side) Fill {
	ok, available := m.CheckLiquidity(timestamp, quantity)
	if !ok {
		return Fill{Reason: "insufficient liquidity"}
	}

	filled := min(quantity, available)
	price, spreadCost, slippage := m.ExecutionPrice(mid, filled, side)
	m.consumed[timestamp] += filled

	return Fill{
		Executed:   true,
		Price:      price,
		Quantity:   filled,
		Slippage:   slippage,
		SpreadCost: spreadCost,
		Reason:     "executed",
	}
}
