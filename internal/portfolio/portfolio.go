// Package portfolio tracks cash and open binary-contract positions for one
// simulation run, and settles them at hour end.
package portfolio

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/strikesim/strikesim/internal/domain"
	"github.com/strikesim/strikesim/internal/micro"
)

// Portfolio is the cash and position ledger. The microstructure model is an
// optional collaborator: when nil, buys execute at the quoted mid with no
// spread, slippage or liquidity cap.
type Portfolio struct {
	initialBalance float64
	cash           float64
	feePerContract float64
	micro          *micro.Model

	positions []domain.Position
	trades    []domain.TradeRecord
	pnls      []domain.PnLRecord
}

// New creates a portfolio with a starting balance. micro may be nil.
func New(startingBalance, feePerContract float64, m *micro.Model) *Portfolio {
	return &Portfolio{
		initialBalance: startingBalance,
		cash:           startingBalance,
		feePerContract: feePerContract,
		micro:          m,
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// InitialBalance returns the starting balance.
func (p *Portfolio) InitialBalance() float64 { return p.initialBalance }

// TotalPnL returns realized PnL: cash minus the initial balance. Open
// positions are not marked to market.
func (p *Portfolio) TotalPnL() float64 { return p.cash - p.initialBalance }

// OpenPositions returns a copy of the currently open positions.
func (p *Portfolio) OpenPositions() []domain.Position {
	out := make([]domain.Position, len(p.positions))
	copy(out, p.positions)
	return out
}

// TradeHistory returns a copy of the append-only trade records.
func (p *Portfolio) TradeHistory() []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(p.trades))
	copy(out, p.trades)
	return out
}

// PnLHistory returns a copy of the append-only settlement records.
func (p *Portfolio) PnLHistory() []domain.PnLRecord {
	out := make([]domain.PnLRecord, len(p.pnls))
	copy(out, p.pnls)
	return out
}

// LastTrade returns the most recent trade record, if any.
func (p *Portfolio) LastTrade() (domain.TradeRecord, bool) {
	if len(p.trades) == 0 {
		return domain.TradeRecord{}, false
	}
	return p.trades[len(p.trades)-1], true
}

// CanAfford reports whether quantity contracts at price, plus fees, fit in
// the current cash balance.
func (p *Portfolio) CanAfford(quantity, price float64) bool {
	return quantity*(price+p.feePerContract) <= p.cash
}

// BuyYes buys YES contracts at the given mid price. Returns false when the
// trade is rejected by liquidity or affordability; rejection is an outcome,
// not an error.
func (p *Portfolio) BuyYes(quantity, price float64, timestamp time.Time, strike float64) bool {
	return p.buy(domain.ContractYes, domain.ActionBuyYes, quantity, price, timestamp, strike)
}

// BuyNo buys NO contracts at the given mid price.
func (p *Portfolio) BuyNo(quantity, price float64, timestamp time.Time, strike float64) bool {
	return p.buy(domain.ContractNo, domain.ActionBuyNo, quantity, price, timestamp, strike)
}

func (p *Portfolio) buy(contract domain.ContractType, action domain.TradeAction, quantity, price float64, timestamp time.Time, strike float64) bool {
	actualQty := quantity
	actualPrice := price
	var spreadCost, slippage float64

	if p.micro != nil {
		fill := p.micro.ExecuteTrade(timestamp, price, quantity, micro.SideBuy)
		if !fill.Executed {
			slog.Debug("portfolio: trade rejected by microstructure",
				"action", string(action),
				"quantity", quantity,
				"reason", fill.Reason,
			)
			return false
		}
		actualQty = fill.Quantity
		actualPrice = fill.Price
		spreadCost = fill.SpreadCost
		slippage = fill.Slippage
	}

	// Affordability is re-checked against the actual fill, which may be
	// smaller and priced worse than requested. On rejection the liquidity
	// reserved for the fill must be released.
	if !p.CanAfford(actualQty, actualPrice) {
		if p.micro != nil {
			p.micro.RollbackLiquidity(timestamp, actualQty)
		}
		slog.Debug("portfolio: trade rejected, insufficient cash",
			"action", string(action),
			"quantity", actualQty,
			"price", actualPrice,
			"cash", p.cash,
		)
		return false
	}

	fees := actualQty * p.feePerContract
	p.cash -= actualQty*actualPrice + fees

	p.positions = append(p.positions, domain.Position{
		Contract:   contract,
		Quantity:   actualQty,
		EntryPrice: actualPrice,
		EntryTime:  timestamp,
		Strike:     strike,
		SpreadCost: spreadCost,
		Slippage:   slippage,
	})

	p.trades = append(p.trades, domain.TradeRecord{
		ID:         uuid.New().String(),
		Timestamp:  timestamp,
		Action:     action,
		Quantity:   actualQty,
		Price:      actualPrice,
		Fees:       fees,
		Strike:     strike,
		SpreadCost: spreadCost,
		Slippage:   slippage,
	})

	return true
}

// ResolvePositions settles every open position against the settlement price:
// YES wins iff settlement >= strike, NO wins iff settlement < strike.
// Winners pay $1 per contract, losers pay $0. Settlement is atomic and
// total; all positions are cleared. Returns the hour's aggregate PnL.
func (p *Portfolio) ResolvePositions(settlementPrice float64, resolutionTime time.Time) float64 {
	var totalPnL float64

	for _, pos := range p.positions {
		var wins bool
		if pos.Contract == domain.ContractYes {
			wins = settlementPrice >= pos.Strike
		} else {
			wins = settlementPrice < pos.Strike
		}

		var payout float64
		if wins {
			payout = pos.Quantity * 1.0
		}

		cost := pos.Quantity * pos.EntryPrice
		pnl := payout - cost

		p.cash += payout
		totalPnL += pnl

		p.pnls = append(p.pnls, domain.PnLRecord{
			ResolvedAt: resolutionTime,
			EntryTime:  pos.EntryTime,
			Contract:   pos.Contract,
			Quantity:   pos.Quantity,
			EntryPrice: pos.EntryPrice,
			Payout:     payout,
			PnL:        pnl,
			Strike:     pos.Strike,
			FinalPrice: settlementPrice,
			Win:        wins,
		})
	}

	p.positions = nil
	return totalPnL
}
