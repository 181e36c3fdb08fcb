package strategy

import (
	"fmt"
	"sort"
)

// Params carries the knobs shared by the built-in strategies.
type Params struct {
	MaxPositionPct float64
	RandomSeed     int64
}

// Registry holds the available strategies indexed by name.
type Registry map[string]Strategy

// NewRegistry creates a registry with every built-in strategy at its
// default tuning.
func NewRegistry(p Params) Registry {
	r := make(Registry)
	for _, s := range []Strategy{
		NewNoTrade(),
		NewAlwaysYes(p.MaxPositionPct),
		NewAlwaysNo(p.MaxPositionPct),
		NewRandom(p.MaxPositionPct, p.RandomSeed),
		NewMomentum(3, p.MaxPositionPct),
		NewMeanReversion(10, 0.05, p.MaxPositionPct),
		NewTrendContinuation(15, 0.05, p.MaxPositionPct),
		NewVolatilityCompression(20, 0.02, 0.03, p.MaxPositionPct),
		NewOpeningAuction(10, 0.02, p.MaxPositionPct),
		NewBtcOnly(3, p.MaxPositionPct),
		NewNoTradeFilter(50, 0.10, 30, p.MaxPositionPct),
	} {
		r[s.Name()] = s
	}
	return r
}

// Get returns the named strategy.
func (r Registry) Get(name string) (Strategy, error) {
	s, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("strategy.Get: unknown strategy %q", name)
	}
	return s, nil
}

// Names lists the registered strategy names.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
