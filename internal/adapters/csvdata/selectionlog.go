package csvdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

var selectionHeader = []string{
	"hour_start", "btc_spot", "selected_strike", "method",
	"avg_spread", "volume_proxy", "price_reaction", "volatility_est",
	"strikes_considered", "reason",
}

// SelectionLog appends market-selection audit rows to a CSV file. Safe for
// concurrent use.
type SelectionLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

// NewSelectionLog creates (or truncates) the audit file and writes the
// header row.
func NewSelectionLog(path string) (*SelectionLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csvdata.NewSelectionLog: create %q: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(selectionHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("csvdata.NewSelectionLog: write header: %w", err)
	}
	return &SelectionLog{path: path, f: f, w: w}, nil
}

// Append writes one audit row and flushes it.
func (l *SelectionLog) Append(rec domain.SelectionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := []string{
		rec.HourStart.UTC().Format(time.RFC3339),
		strconv.FormatFloat(rec.BTCSpot, 'f', 2, 64),
		strconv.FormatFloat(rec.SelectedStrike, 'f', 2, 64),
		string(rec.Method),
		strconv.FormatFloat(rec.AvgSpread, 'f', 6, 64),
		strconv.FormatFloat(rec.VolumeProxy, 'f', 6, 64),
		strconv.FormatFloat(rec.PriceReaction, 'f', 6, 64),
		strconv.FormatFloat(rec.VolatilityEst, 'f', 6, 64),
		strconv.Itoa(rec.StrikesConsider),
		rec.Reason,
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("csvdata.SelectionLog: write row: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("csvdata.SelectionLog: flush: %w", err)
	}
	return nil
}

// Destination returns the audit file path.
func (l *SelectionLog) Destination() string { return l.path }

// Close flushes and closes the underlying file.
func (l *SelectionLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	return l.f.Close()
}
