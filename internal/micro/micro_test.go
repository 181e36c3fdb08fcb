package micro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikesim/strikesim/internal/domain"
)

func testConfig() Config {
	return Config{
		BidAskSpread:       0.02,
		SlippagePer100:     0.01,
		MaxLiquidityPerMin: 500,
		MinTradePrice:      0.01,
		MaxTradePrice:      0.99,
	}
}

func newModel(t *testing.T, cfg Config) *Model {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

func minuteTS(minute int) time.Time {
	return time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
}

// --- construction ---

func TestNew_RejectsNegativeSpread(t *testing.T) {
	cfg := testConfig()
	cfg.BidAskSpread = -0.01
	_, err := New(cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew_RejectsNonPositiveLiquidityCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLiquidityPerMin = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew_RejectsInvertedPriceBounds(t *testing.T) {
	cfg := testConfig()
	cfg.MinTradePrice, cfg.MaxTradePrice = 0.99, 0.01
	_, err := New(cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

// --- pricing ---

func TestExecutionPrice_BuyPaysSpreadAndSlippage(t *testing.T) {
	m := newModel(t, testConfig())

	// mid 0.50 + half spread 0.01 + slippage (200/100)*0.01 = 0.53
	price, spreadCost, slippage := m.ExecutionPrice(0.50, 200, SideBuy)
	assert.InDelta(t, 0.53, price, 1e-9)
	assert.InDelta(t, 0.01, spreadCost, 1e-9)
	assert.InDelta(t, 0.02, slippage, 1e-9)
}

func TestExecutionPrice_SellReceivesLess(t *testing.T) {
	m := newModel(t, testConfig())

	price, _, _ := m.ExecutionPrice(0.50, 100, SideSell)
	assert.InDelta(t, 0.48, price, 1e-9)
}

func TestExecutionPrice_ClampedToBounds(t *testing.T) {
	m := newModel(t, testConfig())

	high, _, _ := m.ExecutionPrice(0.99, 500, SideBuy)
	assert.Equal(t, 0.99, high)

	low, _, _ := m.ExecutionPrice(0.01, 500, SideSell)
	assert.Equal(t, 0.01, low)
}

// --- liquidity ---

func TestCheckLiquidity_FullFill(t *testing.T) {
	m := newModel(t, testConfig())

	ok, avail := m.CheckLiquidity(minuteTS(0), 200)
	assert.True(t, ok)
	assert.Equal(t, 200.0, avail)
}

func TestCheckLiquidity_PartialWhenOversized(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLiquidityPerMin = 100
	m := newModel(t, cfg)

	ok, avail := m.CheckLiquidity(minuteTS(0), 150)
	assert.True(t, ok)
	assert.Equal(t, 100.0, avail)
}

func TestCheckLiquidity_ExhaustedMinuteRejects(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLiquidityPerMin = 100
	m := newModel(t, cfg)

	m.ExecuteTrade(minuteTS(0), 0.50, 100, SideBuy)
	ok, avail := m.CheckLiquidity(minuteTS(0), 1)
	assert.False(t, ok)
	assert.Equal(t, 0.0, avail)
}

func TestExecuteTrade_LedgerNeverExceedsCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLiquidityPerMin = 100
	m := newModel(t, cfg)

	// Scenario C: request 150, exactly 100 fills, remainder is not retried.
	fill := m.ExecuteTrade(minuteTS(5), 0.40, 150, SideBuy)
	assert.True(t, fill.Executed)
	assert.Equal(t, 100.0, fill.Quantity)
	assert.Equal(t, 100.0, m.Consumed(minuteTS(5)))

	next := m.ExecuteTrade(minuteTS(5), 0.40, 50, SideBuy)
	assert.False(t, next.Executed)
	assert.Equal(t, "insufficient liquidity", next.Reason)
	assert.LessOrEqual(t, m.Consumed(minuteTS(5)), cfg.MaxLiquidityPerMin)
}

func TestExecuteTrade_SeparateMinutesIndependent(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLiquidityPerMin = 100
	m := newModel(t, cfg)

	m.ExecuteTrade(minuteTS(0), 0.50, 100, SideBuy)
	fill := m.ExecuteTrade(minuteTS(1), 0.50, 100, SideBuy)
	assert.True(t, fill.Executed)
	assert.Equal(t, 100.0, fill.Quantity)
}

func TestRollbackLiquidity_ReleasesReservation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLiquidityPerMin = 100
	m := newModel(t, cfg)

	m.ExecuteTrade(minuteTS(0), 0.50, 80, SideBuy)
	m.RollbackLiquidity(minuteTS(0), 80)

	ok, avail := m.CheckLiquidity(minuteTS(0), 100)
	assert.True(t, ok)
	assert.Equal(t, 100.0, avail)
}

func TestResetHour_ClearsLedger(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLiquidityPerMin = 100
	m := newModel(t, cfg)

	m.ExecuteTrade(minuteTS(0), 0.50, 100, SideBuy)
	m.ResetHour()

	ok, avail := m.CheckLiquidity(minuteTS(0), 100)
	assert.True(t, ok)
	assert.Equal(t, 100.0, avail)
}

func TestExecuteTrade_PriceAlwaysInBounds(t *testing.T) {
	m := newModel(t, testConfig())

	for _, mid := range []float64{0.01, 0.05, 0.50, 0.95, 0.99} {
		fill := m.ExecuteTrade(minuteTS(0), mid, 100, SideBuy)
		assert.GreaterOrEqual(t, fill.Price, 0.01)
		assert.LessOrEqual(t, fill.Price, 0.99)
	}
}
