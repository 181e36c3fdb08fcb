// Package ports declares the interfaces the core depends on; adapters
// provide the implementations.
package ports

import (
	"context"

	"github.com/strikesim/strikesim/internal/domain"
)

// SelectionLog is the append-only audit sink for market-selection decisions.
// One sink is opened per run; concurrent runs must not share a destination.
type SelectionLog interface {
	// Append writes one selection audit row.
	Append(rec domain.SelectionRecord) error

	// Destination identifies where rows are written (file path, DSN),
	// recorded on the run result for downstream analysis.
	Destination() string
}

// RunStore persists completed simulation runs.
type RunStore interface {
	// SaveRun persists a run result with its hour summaries.
	SaveRun(ctx context.Context, res *domain.RunResult) error

	// Close releases the underlying resources.
	Close() error
}
