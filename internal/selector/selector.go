// Package selector chooses which strike-price market to trade for a given
// hour, either by naive distance to spot or by a multi-factor
// liquidity/quality score over that hour's quote history.
package selector

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/strikesim/strikesim/internal/domain"
	"github.com/strikesim/strikesim/internal/ports"
)

// Score component weights. Spread dominates: paying less to cross matters
// more than activity or informational efficiency.
const (
	weightSpread   = 0.4
	weightVolume   = 0.3
	weightReaction = 0.3
)

// Config controls selection behavior.
type Config struct {
	// Intelligent enables the scoring mode when quote history is
	// available; otherwise every hour uses closest-distance.
	Intelligent bool

	// MinVolumeProxy filters out candidates whose quote activity is below
	// this threshold. When no candidate survives, selection falls back to
	// closest-distance.
	MinVolumeProxy float64
}

// Selector picks a strike per hour and logs every decision to the audit
// sink.
type Selector struct {
	cfg Config
	log ports.SelectionLog
}

// New creates a selector writing audit rows to sink.
func New(cfg Config, sink ports.SelectionLog) *Selector {
	return &Selector{cfg: cfg, log: sink}
}

// candidateMetrics holds the per-strike quality metrics of one hour.
type candidateMetrics struct {
	strike        float64
	avgSpread     float64
	volumeProxy   float64
	priceReaction float64
}

// Select returns the strike to trade for the hour. quoteHistory and
// priceHistory are that hour's slices; an empty candidate list is a hard
// error.
func (s *Selector) Select(
	hourStart time.Time,
	spot float64,
	candidates []float64,
	quoteHistory []domain.ContractQuote,
	priceHistory []domain.PriceTick,
) (float64, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("selector.Select: hour %s: %w", hourStart.Format(time.RFC3339), domain.ErrNoCandidateStrikes)
	}

	if !s.cfg.Intelligent || len(quoteHistory) == 0 {
		strike := ClosestStrike(spot, candidates)
		s.audit(domain.SelectionRecord{
			HourStart:       hourStart,
			BTCSpot:         spot,
			SelectedStrike:  strike,
			Method:          domain.MethodClosest,
			VolatilityEst:   volatilityEstimate(priceHistory),
			StrikesConsider: len(candidates),
			Reason:          "closest distance to spot",
		})
		return strike, nil
	}

	metrics := s.scoreCandidates(candidates, quoteHistory, priceHistory)

	survivors := metrics[:0]
	for _, m := range metrics {
		if m.volumeProxy >= s.cfg.MinVolumeProxy {
			survivors = append(survivors, m)
		}
	}

	if len(survivors) == 0 {
		strike := ClosestStrike(spot, candidates)
		s.audit(domain.SelectionRecord{
			HourStart:       hourStart,
			BTCSpot:         spot,
			SelectedStrike:  strike,
			Method:          domain.MethodFallback,
			VolatilityEst:   volatilityEstimate(priceHistory),
			StrikesConsider: len(candidates),
			Reason:          fmt.Sprintf("no candidate met volume proxy threshold %.4f", s.cfg.MinVolumeProxy),
		})
		return strike, nil
	}

	best := pickBest(survivors)
	s.audit(domain.SelectionRecord{
		HourStart:       hourStart,
		BTCSpot:         spot,
		SelectedStrike:  best.strike,
		Method:          domain.MethodIntelligent,
		AvgSpread:       best.avgSpread,
		VolumeProxy:     best.volumeProxy,
		PriceReaction:   best.priceReaction,
		VolatilityEst:   volatilityEstimate(priceHistory),
		StrikesConsider: len(candidates),
		Reason:          "max combined liquidity/quality score",
	})
	return best.strike, nil
}

// ClosestStrike returns the candidate minimizing |strike − spot|. Ties
// resolve to the first candidate in input order.
func ClosestStrike(spot float64, candidates []float64) float64 {
	best := candidates[0]
	bestDist := math.Abs(best - spot)
	for _, c := range candidates[1:] {
		if d := math.Abs(c - spot); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func (s *Selector) scoreCandidates(
	candidates []float64,
	quoteHistory []domain.ContractQuote,
	priceHistory []domain.PriceTick,
) []candidateMetrics {
	priceAt := make(map[time.Time]float64, len(priceHistory))
	for _, t := range priceHistory {
		priceAt[t.Timestamp] = t.Price
	}

	out := make([]candidateMetrics, 0, len(candidates))
	for _, strike := range candidates {
		var spreads, yes, no []float64
		var alignedBTC, alignedYes []float64

		for _, q := range quoteHistory {
			if q.Strike != strike {
				continue
			}
			spreads = append(spreads, math.Abs(q.YesPrice+q.NoPrice-1))
			yes = append(yes, q.YesPrice)
			no = append(no, q.NoPrice)
			if p, ok := priceAt[q.Timestamp]; ok {
				alignedBTC = append(alignedBTC, p)
				alignedYes = append(alignedYes, q.YesPrice)
			}
		}

		out = append(out, candidateMetrics{
			strike:        strike,
			avgSpread:     domain.Mean(spreads),
			volumeProxy:   domain.SumAbsDelta(yes) + domain.SumAbsDelta(no),
			priceReaction: math.Abs(domain.Correlation(domain.Deltas(alignedBTC), domain.Deltas(alignedYes))),
		})
	}
	return out
}

// pickBest normalizes each metric to [0,1] across the surviving candidates
// and combines them with the configured weights. Ties resolve to encounter
// order.
func pickBest(survivors []candidateMetrics) candidateMetrics {
	var maxSpread, maxVolume, maxReaction float64
	for _, m := range survivors {
		maxSpread = math.Max(maxSpread, m.avgSpread)
		maxVolume = math.Max(maxVolume, m.volumeProxy)
		maxReaction = math.Max(maxReaction, m.priceReaction)
	}

	best := survivors[0]
	bestScore := math.Inf(-1)
	for _, m := range survivors {
		spreadScore := normalize(maxSpread, 1-m.avgSpread/nonZero(maxSpread))
		volumeScore := normalize(maxVolume, m.volumeProxy/nonZero(maxVolume))
		reactionScore := normalize(maxReaction, m.priceReaction/nonZero(maxReaction))

		score := weightSpread*spreadScore + weightVolume*volumeScore + weightReaction*reactionScore
		if score > bestScore {
			bestScore = score
			best = m
		}
	}
	return best
}

// normalize returns the candidate's normalized score, defaulting to 0.5
// when the metric's max across candidates is 0 (nothing to discriminate on).
func normalize(max, scored float64) float64 {
	if max == 0 {
		return 0.5
	}
	return scored
}

func nonZero(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x
}

// volatilityEstimate is the standard deviation of minute-to-minute BTC
// price changes over the hour, recorded on the audit row.
func volatilityEstimate(priceHistory []domain.PriceTick) float64 {
	prices := make([]float64, 0, len(priceHistory))
	for _, t := range priceHistory {
		prices = append(prices, t.Price)
	}
	return domain.StdDev(domain.Deltas(prices))
}

func (s *Selector) audit(rec domain.SelectionRecord) {
	if s.log == nil {
		return
	}
	if err := s.log.Append(rec); err != nil {
		slog.Warn("selector: failed to append audit row",
			"hour", rec.HourStart,
			"err", err,
		)
	}
}
