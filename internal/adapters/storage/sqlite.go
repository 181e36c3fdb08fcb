// Package storage persists run results and selection audit rows in SQLite
// (pure Go driver, no CGo).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/strikesim/strikesim/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id          TEXT PRIMARY KEY,
    strategy        TEXT     NOT NULL,
    created_at      DATETIME NOT NULL,
    hours_traded    INTEGER  NOT NULL DEFAULT 0,
    initial_balance REAL     NOT NULL,
    final_balance   REAL     NOT NULL,
    total_pnl       REAL     NOT NULL DEFAULT 0,
    total_trades    INTEGER  NOT NULL DEFAULT 0,
    selection_log   TEXT
);

CREATE TABLE IF NOT EXISTS hour_summaries (
    run_id           TEXT     NOT NULL REFERENCES runs(run_id),
    hour_start       DATETIME NOT NULL,
    hour_end         DATETIME NOT NULL,
    strike           REAL     NOT NULL,
    spot_at_start    REAL     NOT NULL,
    settlement_price REAL     NOT NULL,
    trades_executed  INTEGER  NOT NULL DEFAULT 0,
    hour_pnl         REAL     NOT NULL DEFAULT 0,
    cash_after       REAL     NOT NULL,
    PRIMARY KEY (run_id, hour_start)
);

CREATE TABLE IF NOT EXISTS trades (
    trade_id    TEXT PRIMARY KEY,
    run_id      TEXT     NOT NULL REFERENCES runs(run_id),
    executed_at DATETIME NOT NULL,
    action      TEXT     NOT NULL,
    quantity    REAL     NOT NULL,
    price       REAL     NOT NULL,
    fees        REAL     NOT NULL DEFAULT 0,
    strike      REAL     NOT NULL,
    spread_cost REAL     NOT NULL DEFAULT 0,
    slippage    REAL     NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS selections (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    hour_start      DATETIME NOT NULL,
    btc_spot        REAL     NOT NULL,
    selected_strike REAL     NOT NULL,
    method          TEXT     NOT NULL,
    avg_spread      REAL     NOT NULL DEFAULT 0,
    volume_proxy    REAL     NOT NULL DEFAULT 0,
    price_reaction  REAL     NOT NULL DEFAULT 0,
    volatility_est  REAL     NOT NULL DEFAULT 0,
    strikes_considered INTEGER NOT NULL DEFAULT 0,
    reason          TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_strategy   ON runs(strategy);
CREATE INDEX IF NOT EXISTS idx_hours_run       ON hour_summaries(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_run      ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_selections_hour ON selections(hour_start);
`

// SQLiteStore implements ports.RunStore and ports.SelectionLog over one
// database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// SaveRun persists a run with its hour summaries and trades in one
// transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, res *domain.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(run_id, strategy, created_at, hours_traded, initial_balance,
			 final_balance, total_pnl, total_trades, selection_log)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.StrategyName,
		time.Now().UTC(),
		len(res.Hours),
		res.InitialBalance,
		res.FinalBalance,
		res.TotalPnL,
		len(res.Trades),
		res.SelectionLog,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", res.RunID, err)
	}

	hourStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hour_summaries
			(run_id, hour_start, hour_end, strike, spot_at_start,
			 settlement_price, trades_executed, hour_pnl, cash_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare hours: %w", err)
	}
	defer hourStmt.Close()

	for _, h := range res.Hours {
		if _, err := hourStmt.ExecContext(ctx,
			res.RunID, h.HourStart.UTC(), h.HourEnd.UTC(), h.Strike,
			h.SpotAtStart, h.SettlementPrice, h.TradesExecuted, h.HourPnL, h.CashAfter,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert hour %s: %w", h.HourStart.Format(time.RFC3339), err)
		}
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(trade_id, run_id, executed_at, action, quantity, price,
			 fees, strike, spread_cost, slippage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare trades: %w", err)
	}
	defer tradeStmt.Close()

	for _, t := range res.Trades {
		if _, err := tradeStmt.ExecContext(ctx,
			t.ID, res.RunID, t.Timestamp.UTC(), string(t.Action), t.Quantity,
			t.Price, t.Fees, t.Strike, t.SpreadCost, t.Slippage,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert trade %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// Append writes one selection audit row. Implements ports.SelectionLog.
func (s *SQLiteStore) Append(rec domain.SelectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`
		INSERT INTO selections
			(hour_start, btc_spot, selected_strike, method, avg_spread,
			 volume_proxy, price_reaction, volatility_est, strikes_considered, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.HourStart.UTC(), rec.BTCSpot, rec.SelectedStrike, string(rec.Method),
		rec.AvgSpread, rec.VolumeProxy, rec.PriceReaction, rec.VolatilityEst,
		rec.StrikesConsider, rec.Reason,
	); err != nil {
		return fmt.Errorf("storage.Append: insert selection: %w", err)
	}
	return nil
}

// Destination identifies the audit sink for run records.
func (s *SQLiteStore) Destination() string { return "sqlite:" + s.path }

// ListRuns returns saved runs for a strategy, newest first. An empty
// strategy matches all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, strategy string) ([]domain.RunResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, strategy, hours_traded, initial_balance,
		       final_balance, total_pnl, selection_log
		FROM runs
		WHERE (? = '' OR strategy = ?)
		ORDER BY created_at DESC`,
		strategy, strategy)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RunResult
	for rows.Next() {
		var res domain.RunResult
		var hoursTraded int
		if err := rows.Scan(
			&res.RunID, &res.StrategyName, &hoursTraded, &res.InitialBalance,
			&res.FinalBalance, &res.TotalPnL, &res.SelectionLog,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
