package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(minute int) time.Time {
	return time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
}

func TestDataset_HourStarts_SortedDistinct(t *testing.T) {
	h0 := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	h1 := h0.Add(time.Hour)
	d := &Dataset{Markets: []Market{
		{HourStart: h1, HourEnd: h1.Add(time.Hour), Strike: 62000},
		{HourStart: h0, HourEnd: h1, Strike: 62250},
		{HourStart: h1, HourEnd: h1.Add(time.Hour), Strike: 62500},
		{HourStart: h0, HourEnd: h1, Strike: 62000},
	}}

	hours := d.HourStarts()
	assert.Equal(t, []time.Time{h0, h1}, hours)
}

func TestDataset_StrikesForHour_PreservesTableOrder(t *testing.T) {
	h0 := ts(0)
	d := &Dataset{Markets: []Market{
		{HourStart: h0, Strike: 62500},
		{HourStart: h0, Strike: 62000},
		{HourStart: h0.Add(time.Hour), Strike: 61000},
	}}

	assert.Equal(t, []float64{62500, 62000}, d.StrikesForHour(h0))
}

func TestDataset_PriceAt_ExactMatchOnly(t *testing.T) {
	d := &Dataset{Prices: []PriceTick{{Timestamp: ts(0), Price: 62100}}}

	p, ok := d.PriceAt(ts(0))
	assert.True(t, ok)
	assert.Equal(t, 62100.0, p)

	_, ok = d.PriceAt(ts(1))
	assert.False(t, ok)
}

func TestDataset_PricesBetween_HalfOpen(t *testing.T) {
	d := &Dataset{Prices: []PriceTick{
		{Timestamp: ts(-1), Price: 1},
		{Timestamp: ts(0), Price: 2},
		{Timestamp: ts(59), Price: 3},
		{Timestamp: ts(60), Price: 4},
	}}

	got := d.PricesBetween(ts(0), ts(60))
	assert.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Price)
	assert.Equal(t, 3.0, got[1].Price)
}

func TestDataset_QuotesBetween_FiltersStrike(t *testing.T) {
	d := &Dataset{Quotes: []ContractQuote{
		{Timestamp: ts(0), Strike: 62000, YesPrice: 0.5, NoPrice: 0.5},
		{Timestamp: ts(0), Strike: 62250, YesPrice: 0.4, NoPrice: 0.6},
		{Timestamp: ts(61), Strike: 62000, YesPrice: 0.6, NoPrice: 0.4},
	}}

	got := d.QuotesBetween(62000, ts(0), ts(60))
	assert.Len(t, got, 1)
	assert.Equal(t, 0.5, got[0].YesPrice)
}
