package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/strikesim/strikesim/config"
	"github.com/strikesim/strikesim/internal/adapters/csvdata"
	"github.com/strikesim/strikesim/internal/adapters/notify"
	"github.com/strikesim/strikesim/internal/adapters/storage"
	"github.com/strikesim/strikesim/internal/domain"
	"github.com/strikesim/strikesim/internal/micro"
	"github.com/strikesim/strikesim/internal/ports"
	"github.com/strikesim/strikesim/internal/pricing"
	"github.com/strikesim/strikesim/internal/selector"
	"github.com/strikesim/strikesim/internal/simulator"
	"github.com/strikesim/strikesim/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	strategies := flag.String("strategies", "", "comma-separated strategy names (default: all)")
	selectionCSV := flag.String("selection-csv", "", "write selection audit rows to this CSV instead of SQLite")
	noStore := flag.Bool("no-store", false, "skip persisting runs to SQLite")
	synthQuotes := flag.Bool("synth-quotes", false, "price the quote table from the BTC ticks instead of loading it")
	verbose := flag.Bool("verbose", false, "set log level to debug and print per-hour tables")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loader := csvdata.New(cfg.Data.BTCPricesPath, cfg.Data.MarketsPath, cfg.Data.ContractQuotesPath)
	data, err := loadDataset(loader, cfg.Data, *synthQuotes)
	if err != nil {
		slog.Error("failed to load dataset", "err", err)
		os.Exit(1)
	}

	var store *storage.SQLiteStore
	if !*noStore {
		store, err = storage.NewSQLiteStore(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	selectionLog, closeSink, err := selectionSink(*selectionCSV, store)
	if err != nil {
		slog.Error("failed to open selection log", "err", err)
		os.Exit(1)
	}
	defer closeSink()

	sel := selector.New(selector.Config{
		Intelligent:    cfg.Selector.Intelligent,
		MinVolumeProxy: cfg.Selector.MinVolumeProxy,
	}, selectionLog)

	simCfg := simulator.Config{
		StartingBalance: cfg.Simulation.StartingBalance,
		FeePerContract:  cfg.Simulation.FeePerContract,
		LatencyMinutes:  cfg.Simulation.LatencyMinutes,
	}
	if cfg.Simulation.Microstructure {
		simCfg.Microstructure = &micro.Config{
			BidAskSpread:       cfg.Simulation.BidAskSpread,
			SlippagePer100:     cfg.Simulation.SlippagePer100,
			MaxLiquidityPerMin: cfg.Simulation.MaxLiquidityPerMin,
			MinTradePrice:      cfg.Simulation.MinTradePrice,
			MaxTradePrice:      cfg.Simulation.MaxTradePrice,
		}
	}

	sim, err := simulator.New(simCfg, data, sel)
	if err != nil {
		slog.Error("failed to build simulator", "err", err)
		os.Exit(1)
	}

	registry := strategy.NewRegistry(strategy.Params{
		MaxPositionPct: cfg.Simulation.MaxPositionPct,
		RandomSeed:     cfg.Simulation.RandomSeed,
	})

	names := registry.Names()
	if *strategies != "" {
		names = strings.Split(*strategies, ",")
	}

	console := notify.NewConsole(*verbose)

	var results []*domain.RunResult
	for _, name := range names {
		strat, err := registry.Get(strings.TrimSpace(name))
		if err != nil {
			slog.Error("unknown strategy", "err", err, "name", name)
			os.Exit(1)
		}

		res, err := sim.Run(ctx, strat)
		if err != nil {
			slog.Error("run failed", "err", err, "strategy", strat.Name())
			os.Exit(1)
		}
		res.SelectionLog = selectionLog.Destination()

		if store != nil {
			if err := store.SaveRun(ctx, res); err != nil {
				slog.Error("failed to persist run", "err", err, "run_id", res.RunID)
				os.Exit(1)
			}
		}

		console.PrintRunReport(res)
		results = append(results, res)
	}

	if len(results) > 1 {
		console.PrintComparison(results)
	}
}

// defaultSelectionCSV receives the audit rows when neither an explicit CSV
// path nor the SQLite store is available.
const defaultSelectionCSV = "selections.csv"

// loadDataset loads the three tables, synthesizing the quote table from the
// ticks when requested.
func loadDataset(loader *csvdata.Loader, cfg config.DataConfig, synth bool) (*domain.Dataset, error) {
	if !synth && !cfg.SynthesizeQuotes {
		return loader.LoadDataset(cfg.StartDate, cfg.EndDate)
	}

	prices, err := loader.LoadPrices(cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, err
	}
	markets, err := loader.LoadMarkets()
	if err != nil {
		return nil, err
	}

	pricer := pricing.NewPricer(cfg.PricingVolatility)
	quotes := pricer.SynthesizeTable(prices, markets)
	slog.Info("synthesized contract quotes",
		"quotes", len(quotes),
		"markets", len(markets),
		"volatility", cfg.PricingVolatility,
	)
	return &domain.Dataset{Prices: prices, Markets: markets, Quotes: quotes}, nil
}

// selectionSink picks the audit destination: an explicit CSV path wins,
// then the SQLite store when runs are persisted, then a default CSV so that
// -no-store never creates a database file.
func selectionSink(csvPath string, store *storage.SQLiteStore) (ports.SelectionLog, func() error, error) {
	if csvPath == "" && store != nil {
		return store, func() error { return nil }, nil
	}
	if csvPath == "" {
		csvPath = defaultSelectionCSV
	}
	log, err := csvdata.NewSelectionLog(csvPath)
	if err != nil {
		return nil, nil, err
	}
	return log, log.Close, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
