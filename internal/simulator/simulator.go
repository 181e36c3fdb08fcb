// Package simulator replays historical minute prices and hourly contract
// quotes against a strategy, modelling decision latency, execution costs and
// hour-end settlement.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/strikesim/strikesim/internal/domain"
	"github.com/strikesim/strikesim/internal/micro"
	"github.com/strikesim/strikesim/internal/portfolio"
	"github.com/strikesim/strikesim/internal/selector"
	"github.com/strikesim/strikesim/internal/strategy"
)

// Config holds the per-run simulation parameters. Microstructure may be nil
// to trade frictionless at the quoted mid.
type Config struct {
	StartingBalance float64
	FeePerContract  float64
	LatencyMinutes  int
	Microstructure  *micro.Config
}

func (c Config) validate() error {
	if c.StartingBalance <= 0 {
		return fmt.Errorf("simulator: starting balance %.2f: %w", c.StartingBalance, domain.ErrConfiguration)
	}
	if c.FeePerContract < 0 {
		return fmt.Errorf("simulator: fee per contract %.4f: %w", c.FeePerContract, domain.ErrConfiguration)
	}
	if c.LatencyMinutes < 0 {
		return fmt.Errorf("simulator: latency %d minutes: %w", c.LatencyMinutes, domain.ErrConfiguration)
	}
	return nil
}

// pendingOrder is a decision waiting out the latency window. The quote at
// decision time is kept for the audit trail only; execution always prices
// against the quote of the minute the order becomes eligible.
type pendingOrder struct {
	decisionTime time.Time
	action       domain.TradeAction
	quantity     float64
	yesAtDec     float64
	noAtDec      float64
}

// Simulator orchestrates the hour/minute replay. The dataset is read-only;
// each Run builds its own portfolio and microstructure state, so separate
// runs share nothing mutable.
type Simulator struct {
	cfg  Config
	data *domain.Dataset
	sel  *selector.Selector
}

// New validates the configuration eagerly and returns a simulator.
func New(cfg Config, data *domain.Dataset, sel *selector.Selector) (*Simulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Microstructure != nil {
		// Surface microstructure configuration errors now, not at Run.
		if _, err := micro.New(*cfg.Microstructure); err != nil {
			return nil, err
		}
	}
	return &Simulator{cfg: cfg, data: data, sel: sel}, nil
}

// Run replays every hour present in the market table against the strategy.
// Missing data soft-skips hours and minutes; strategy and configuration
// failures abort the run.
func (s *Simulator) Run(ctx context.Context, strat strategy.Strategy) (*domain.RunResult, error) {
	var model *micro.Model
	if s.cfg.Microstructure != nil {
		var err error
		if model, err = micro.New(*s.cfg.Microstructure); err != nil {
			return nil, err
		}
	}
	book := portfolio.New(s.cfg.StartingBalance, s.cfg.FeePerContract, model)

	result := &domain.RunResult{
		RunID:          uuid.New().String(),
		StrategyName:   strat.Name(),
		InitialBalance: s.cfg.StartingBalance,
	}

	hours := s.data.HourStarts()
	slog.Info("simulator: run starting",
		"run_id", result.RunID,
		"strategy", strat.Name(),
		"hours", len(hours),
		"balance", s.cfg.StartingBalance,
	)

	for _, hourStart := range hours {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulator.Run: %w", err)
		}

		summary, ok, err := s.simulateHour(hourStart, strat, book, model)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Hours = append(result.Hours, summary)
		}
	}

	result.FinalBalance = book.Cash()
	result.TotalPnL = book.TotalPnL()
	result.Trades = book.TradeHistory()
	result.Resolutions = book.PnLHistory()

	slog.Info("simulator: run finished",
		"run_id", result.RunID,
		"strategy", strat.Name(),
		"hours_traded", len(result.Hours),
		"final_balance", result.FinalBalance,
		"total_pnl", result.TotalPnL,
	)
	return result, nil
}

// simulateHour replays one trading hour. ok=false means the hour was
// skipped and no summary is produced.
func (s *Simulator) simulateHour(
	hourStart time.Time,
	strat strategy.Strategy,
	book *portfolio.Portfolio,
	model *micro.Model,
) (domain.HourSummary, bool, error) {
	strat.Reset()
	if model != nil {
		model.ResetHour()
	}

	hourEnd := hourStart.Add(time.Hour)

	spot, ok := s.data.PriceAt(hourStart)
	if !ok {
		slog.Debug("simulator: skipping hour, no spot price at start", "hour", hourStart)
		return domain.HourSummary{}, false, nil
	}

	candidates := s.data.StrikesForHour(hourStart)
	if len(candidates) == 0 {
		slog.Debug("simulator: skipping hour, no markets listed", "hour", hourStart)
		return domain.HourSummary{}, false, nil
	}

	hourTicks := s.data.PricesBetween(hourStart, hourEnd)
	if len(hourTicks) == 0 {
		slog.Debug("simulator: skipping hour, no price ticks", "hour", hourStart)
		return domain.HourSummary{}, false, nil
	}

	allQuotes := s.hourQuotes(hourStart, hourEnd)
	strike, err := s.sel.Select(hourStart, spot, candidates, allQuotes, hourTicks)
	if err != nil {
		return domain.HourSummary{}, false, err
	}

	quoteAt := make(map[time.Time]domain.ContractQuote)
	for _, q := range allQuotes {
		if q.Strike == strike {
			quoteAt[q.Timestamp] = q
		}
	}

	var pending []pendingOrder
	tradesExecuted := 0

	for _, tick := range hourTicks {
		quote, ok := quoteAt[tick.Timestamp]
		if !ok {
			// No quote this minute: no strategy call, no trade.
			continue
		}

		strat.OnMinute(tick.Timestamp, tick.Price, quote.YesPrice, quote.NoPrice)

		decision := strat.DecideTrade(book)
		if decision.Action != domain.ActionHold && decision.Quantity > 0 {
			pending = append(pending, pendingOrder{
				decisionTime: tick.Timestamp,
				action:       decision.Action,
				quantity:     float64(decision.Quantity),
				yesAtDec:     quote.YesPrice,
				noAtDec:      quote.NoPrice,
			})
		}

		// Split the queue by elapsed latency, preserving decision order.
		// Eligible orders fill at THIS minute's quote, never the one seen
		// at decision time: the price moved during the latency window and
		// the strategy bears that risk.
		var ready, waiting []pendingOrder
		for _, o := range pending {
			if tick.Timestamp.Sub(o.decisionTime) >= time.Duration(s.cfg.LatencyMinutes)*time.Minute {
				ready = append(ready, o)
			} else {
				waiting = append(waiting, o)
			}
		}
		pending = waiting

		for _, o := range ready {
			var executed bool
			switch o.action {
			case domain.ActionBuyYes:
				executed = book.BuyYes(o.quantity, quote.YesPrice, tick.Timestamp, strike)
			case domain.ActionBuyNo:
				executed = book.BuyNo(o.quantity, quote.NoPrice, tick.Timestamp, strike)
			}
			if executed {
				tradesExecuted++
			}
		}
	}
	// Orders still waiting here die with the hour: the queue is scoped to
	// the hour and nothing carries across the boundary.

	settlement := s.settlementPrice(hourEnd, hourTicks)
	hourPnL := book.ResolvePositions(settlement, hourEnd)

	return domain.HourSummary{
		HourStart:       hourStart,
		HourEnd:         hourEnd,
		Strike:          strike,
		SpotAtStart:     spot,
		SettlementPrice: settlement,
		TradesExecuted:  tradesExecuted,
		HourPnL:         hourPnL,
		CashAfter:       book.Cash(),
	}, true, nil
}

// hourQuotes returns all quotes (every strike) inside [hourStart, hourEnd);
// the selector needs the full cross-section to score candidates.
func (s *Simulator) hourQuotes(hourStart, hourEnd time.Time) []domain.ContractQuote {
	var out []domain.ContractQuote
	for _, q := range s.data.Quotes {
		if !q.Timestamp.Before(hourStart) && q.Timestamp.Before(hourEnd) {
			out = append(out, q)
		}
	}
	return out
}

// settlementPrice is the tick exactly at hourEnd when present, otherwise
// the last tick observed inside the hour.
func (s *Simulator) settlementPrice(hourEnd time.Time, hourTicks []domain.PriceTick) float64 {
	if p, ok := s.data.PriceAt(hourEnd); ok {
		return p
	}
	return hourTicks[len(hourTicks)-1].Price
}
