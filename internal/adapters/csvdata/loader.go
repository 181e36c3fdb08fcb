// Package csvdata loads and validates the three CSV input tables: minute
// BTC prices, hourly strike markets, and minute YES/NO contract quotes.
package csvdata

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/strikesim/strikesim/internal/domain"
)

// Loader reads the input tables from disk. All validation happens at load
// time so a run never sees a malformed row.
type Loader struct {
	PricesPath  string
	MarketsPath string
	QuotesPath  string
}

// New returns a loader over the three CSV paths.
func New(pricesPath, marketsPath, quotesPath string) *Loader {
	return &Loader{PricesPath: pricesPath, MarketsPath: marketsPath, QuotesPath: quotesPath}
}

// LoadDataset loads and validates all three tables. start and end are
// optional YYYY-MM-DD bounds applied to the price table; empty strings
// disable the filter.
func (l *Loader) LoadDataset(start, end string) (*domain.Dataset, error) {
	prices, err := l.LoadPrices(start, end)
	if err != nil {
		return nil, err
	}
	markets, err := l.LoadMarkets()
	if err != nil {
		return nil, err
	}
	quotes, err := l.LoadQuotes()
	if err != nil {
		return nil, err
	}

	slog.Info("csvdata: dataset loaded",
		"price_ticks", len(prices),
		"markets", len(markets),
		"quotes", len(quotes),
	)
	return &domain.Dataset{Prices: prices, Markets: markets, Quotes: quotes}, nil
}

// LoadPrices reads the minute BTC price table. Columns: timestamp, price.
// Prices must be positive and timestamps unique; rows come back sorted
// ascending regardless of file order.
func (l *Loader) LoadPrices(start, end string) ([]domain.PriceTick, error) {
	rows, idx, err := readTable(l.PricesPath, "timestamp", "price")
	if err != nil {
		return nil, fmt.Errorf("csvdata.LoadPrices: %w", err)
	}

	from, to, err := parseDateRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("csvdata.LoadPrices: %w", err)
	}

	seen := make(map[time.Time]bool, len(rows))
	ticks := make([]domain.PriceTick, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTimestamp(row[idx["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadPrices: row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(row[idx["price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadPrices: row %d: parse price %q: %w", i+2, row[idx["price"]], err)
		}
		if price <= 0 {
			return nil, fmt.Errorf("csvdata.LoadPrices: row %d: price %.2f must be positive", i+2, price)
		}
		if seen[ts] {
			return nil, fmt.Errorf("csvdata.LoadPrices: duplicate timestamp %s", ts.Format(time.RFC3339))
		}
		seen[ts] = true

		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && !ts.Before(to) {
			continue
		}
		ticks = append(ticks, domain.PriceTick{Timestamp: ts, Price: price})
	}

	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Timestamp.Before(ticks[j].Timestamp) })
	return ticks, nil
}

// LoadMarkets reads the hourly strike table. Columns: hour_start,
// strike_price. hour_end is derived as hour_start plus one hour.
func (l *Loader) LoadMarkets() ([]domain.Market, error) {
	rows, idx, err := readTable(l.MarketsPath, "hour_start", "strike_price")
	if err != nil {
		return nil, fmt.Errorf("csvdata.LoadMarkets: %w", err)
	}

	markets := make([]domain.Market, 0, len(rows))
	for i, row := range rows {
		hourStart, err := parseTimestamp(row[idx["hour_start"]])
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadMarkets: row %d: %w", i+2, err)
		}
		strike, err := strconv.ParseFloat(row[idx["strike_price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadMarkets: row %d: parse strike %q: %w", i+2, row[idx["strike_price"]], err)
		}
		if strike <= 0 {
			return nil, fmt.Errorf("csvdata.LoadMarkets: row %d: strike %.2f must be positive", i+2, strike)
		}
		markets = append(markets, domain.Market{
			HourStart: hourStart,
			HourEnd:   hourStart.Add(time.Hour),
			Strike:    strike,
		})
	}
	return markets, nil
}

// LoadQuotes reads the minute contract quote table. Columns: timestamp,
// strike_price, yes_price, no_price. Both sides must sit in [0, 1] and sum
// to 1.0 within one cent.
func (l *Loader) LoadQuotes() ([]domain.ContractQuote, error) {
	rows, idx, err := readTable(l.QuotesPath, "timestamp", "strike_price", "yes_price", "no_price")
	if err != nil {
		return nil, fmt.Errorf("csvdata.LoadQuotes: %w", err)
	}

	quotes := make([]domain.ContractQuote, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTimestamp(row[idx["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadQuotes: row %d: %w", i+2, err)
		}
		strike, err := strconv.ParseFloat(row[idx["strike_price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadQuotes: row %d: parse strike %q: %w", i+2, row[idx["strike_price"]], err)
		}
		yes, err := strconv.ParseFloat(row[idx["yes_price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadQuotes: row %d: parse yes_price %q: %w", i+2, row[idx["yes_price"]], err)
		}
		no, err := strconv.ParseFloat(row[idx["no_price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata.LoadQuotes: row %d: parse no_price %q: %w", i+2, row[idx["no_price"]], err)
		}

		if yes < 0 || yes > 1 {
			return nil, fmt.Errorf("csvdata.LoadQuotes: row %d: yes_price %.4f outside [0,1]", i+2, yes)
		}
		if no < 0 || no > 1 {
			return nil, fmt.Errorf("csvdata.LoadQuotes: row %d: no_price %.4f outside [0,1]", i+2, no)
		}
		if sum := yes + no; sum < 0.99 || sum > 1.01 {
			return nil, fmt.Errorf("csvdata.LoadQuotes: row %d: yes %.4f + no %.4f = %.4f, must be 1.00 within 0.01",
				i+2, yes, no, sum)
		}

		quotes = append(quotes, domain.ContractQuote{
			Timestamp: ts,
			Strike:    strike,
			YesPrice:  yes,
			NoPrice:   no,
		})
	}
	return quotes, nil
}

// readTable opens a CSV, checks the header for the required columns, and
// returns the data rows plus a column name to index mapping.
func readTable(path string, required ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%q is empty", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("%q missing required column %q", path, col)
		}
	}
	return records[1:], idx, nil
}

// parseTimestamp accepts either RFC3339 or the common "2006-01-02 15:04:05"
// export format, always in UTC.
func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}

// parseDateRange turns optional YYYY-MM-DD bounds into [from, to) instants,
// where to covers the whole end day.
func parseDateRange(start, end string) (from, to time.Time, err error) {
	if start != "" {
		from, err = time.Parse("2006-01-02", start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse start date %q: %w", start, err)
		}
	}
	if end != "" {
		to, err = time.Parse("2006-01-02", end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse end date %q: %w", end, err)
		}
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}
