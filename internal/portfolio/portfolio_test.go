package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikesim/strikesim/internal/domain"
	"github.com/strikesim/strikesim/internal/micro"
)

var hourStart = time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)

func newMicro(t *testing.T, maxLiquidity float64) *micro.Model {
	t.Helper()
	m, err := micro.New(micro.Config{
		BidAskSpread:       0.02,
		SlippagePer100:     0.01,
		MaxLiquidityPerMin: maxLiquidity,
		MinTradePrice:      0.01,
		MaxTradePrice:      0.99,
	})
	require.NoError(t, err)
	return m
}

func TestCanAfford_IncludesFees(t *testing.T) {
	p := New(100, 0.05, nil)

	// 100 × (0.95 + 0.05) = 100 → exactly affordable
	assert.True(t, p.CanAfford(100, 0.95))
	assert.False(t, p.CanAfford(100, 0.96))
}

func TestBuyYes_NoMicrostructure_UsesMidPrice(t *testing.T) {
	p := New(1000, 0, nil)

	ok := p.BuyYes(10, 0.40, hourStart, 62000)
	require.True(t, ok)
	assert.InDelta(t, 996.0, p.Cash(), 1e-9)

	positions := p.OpenPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, domain.ContractYes, positions[0].Contract)
	assert.Equal(t, 10.0, positions[0].Quantity)
	assert.Equal(t, 0.40, positions[0].EntryPrice)
	assert.Equal(t, 0.0, positions[0].SpreadCost)
}

func TestBuyNo_RejectedWhenUnaffordable(t *testing.T) {
	p := New(1, 0, nil)

	ok := p.BuyNo(100, 0.50, hourStart, 62000)
	assert.False(t, ok)
	assert.Equal(t, 1.0, p.Cash())
	assert.Empty(t, p.OpenPositions())
	assert.Empty(t, p.TradeHistory())
}

func TestBuy_WithMicrostructure_AppliesSpreadAndSlippage(t *testing.T) {
	m := newMicro(t, 500)
	p := New(1000, 0, m)

	ok := p.BuyYes(100, 0.50, hourStart, 62000)
	require.True(t, ok)

	trade, found := p.LastTrade()
	require.True(t, found)
	// 0.50 + 0.01 half spread + 0.01 slippage for 100 contracts
	assert.InDelta(t, 0.52, trade.Price, 1e-9)
	assert.InDelta(t, 0.01, trade.SpreadCost, 1e-9)
	assert.InDelta(t, 0.01, trade.Slippage, 1e-9)
	assert.InDelta(t, 1000-52.0, p.Cash(), 1e-9)
}

func TestBuy_PartialFillRecordsReducedQuantity(t *testing.T) {
	m := newMicro(t, 100)
	p := New(10000, 0, m)

	// Scenario C: request 150, only 100 fill.
	ok := p.BuyYes(150, 0.40, hourStart, 62000)
	require.True(t, ok)

	trade, _ := p.LastTrade()
	assert.Equal(t, 100.0, trade.Quantity)
	assert.Equal(t, 100.0, m.Consumed(hourStart))
}

func TestBuy_UnaffordableFillRollsBackLiquidity(t *testing.T) {
	m := newMicro(t, 100)
	p := New(5, 0, m) // can afford ~9 contracts, fill wants 100

	ok := p.BuyYes(100, 0.50, hourStart, 62000)
	assert.False(t, ok)
	assert.Equal(t, 5.0, p.Cash())

	// The reserved liquidity must be released for later minutes' trades.
	assert.Equal(t, 0.0, m.Consumed(hourStart))
}

// --- settlement ---

func TestResolvePositions_YesWinsAtOrAboveStrike(t *testing.T) {
	p := New(1000, 0, nil)
	require.True(t, p.BuyYes(10, 0.40, hourStart, 62000))

	pnl := p.ResolvePositions(62000, hourStart.Add(time.Hour)) // settle exactly at strike
	assert.InDelta(t, 6.0, pnl, 1e-9)                          // 10×1.0 − 10×0.40
	assert.InDelta(t, 1006.0, p.Cash(), 1e-9)
	assert.Empty(t, p.OpenPositions())

	records := p.PnLHistory()
	require.Len(t, records, 1)
	assert.True(t, records[0].Win)
	assert.Equal(t, 10.0, records[0].Payout)
}

func TestResolvePositions_NoWinsBelowStrike(t *testing.T) {
	p := New(1000, 0, nil)
	require.True(t, p.BuyNo(10, 0.60, hourStart, 62000))

	pnl := p.ResolvePositions(61999.99, hourStart.Add(time.Hour))
	assert.InDelta(t, 4.0, pnl, 1e-9) // 10×1.0 − 10×0.60
}

func TestResolvePositions_LoserPaysZero(t *testing.T) {
	p := New(1000, 0, nil)
	require.True(t, p.BuyYes(10, 0.40, hourStart, 62000))

	pnl := p.ResolvePositions(61000, hourStart.Add(time.Hour))
	assert.InDelta(t, -4.0, pnl, 1e-9)
	assert.InDelta(t, 996.0, p.Cash(), 1e-9)

	records := p.PnLHistory()
	require.Len(t, records, 1)
	assert.False(t, records[0].Win)
	assert.Equal(t, 0.0, records[0].Payout)
}

func TestResolvePositions_AggregatePnLMatchesRecords(t *testing.T) {
	p := New(10000, 0, nil)
	require.True(t, p.BuyYes(10, 0.40, hourStart, 62000))
	require.True(t, p.BuyNo(20, 0.55, hourStart.Add(time.Minute), 62000))
	require.True(t, p.BuyYes(5, 0.45, hourStart.Add(2*time.Minute), 62000))

	hourPnL := p.ResolvePositions(62100, hourStart.Add(time.Hour))

	var sum float64
	for _, r := range p.PnLHistory() {
		sum += r.PnL
	}
	assert.InDelta(t, sum, hourPnL, 1e-9)
}

func TestResolvePositions_Idempotent(t *testing.T) {
	p := New(1000, 0, nil)
	require.True(t, p.BuyYes(10, 0.40, hourStart, 62000))

	p.ResolvePositions(63000, hourStart.Add(time.Hour))
	again := p.ResolvePositions(63000, hourStart.Add(time.Hour))
	assert.Equal(t, 0.0, again)
	assert.Len(t, p.PnLHistory(), 1)
}

func TestTotalPnL_TracksCashDelta(t *testing.T) {
	p := New(1000, 0, nil)
	require.True(t, p.BuyYes(10, 0.40, hourStart, 62000))
	p.ResolvePositions(63000, hourStart.Add(time.Hour))

	assert.InDelta(t, 6.0, p.TotalPnL(), 1e-9)
}
