package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/strikesim/strikesim/internal/adapters/binance"
)

func main() {
	symbol := flag.String("symbol", "BTCUSDT", "trading pair to collect")
	start := flag.String("start", "", "start date YYYY-MM-DD (required)")
	end := flag.String("end", "", "end date YYYY-MM-DD, exclusive (required)")
	out := flag.String("out", "data/btc_prices_minute.csv", "output CSV path")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *start == "" || *end == "" {
		slog.Error("both -start and -end are required")
		flag.Usage()
		os.Exit(2)
	}
	from, err := time.Parse("2006-01-02", *start)
	if err != nil {
		slog.Error("invalid start date", "err", err, "start", *start)
		os.Exit(2)
	}
	to, err := time.Parse("2006-01-02", *end)
	if err != nil {
		slog.Error("invalid end date", "err", err, "end", *end)
		os.Exit(2)
	}
	if !from.Before(to) {
		slog.Error("start must be before end", "start", *start, "end", *end)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("collecting minute klines",
		"symbol", *symbol,
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
		"out", *out,
	)

	client := binance.NewClient("")
	ticks, err := client.MinuteKlines(ctx, *symbol, from, to)
	if err != nil {
		slog.Error("collection failed", "err", err)
		os.Exit(1)
	}
	if len(ticks) == 0 {
		slog.Warn("no klines returned for the requested range")
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		slog.Error("failed to create output file", "err", err, "path", *out)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "price"}); err != nil {
		slog.Error("failed to write header", "err", err)
		os.Exit(1)
	}
	for _, tick := range ticks {
		row := []string{
			tick.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(tick.Price, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			slog.Error("failed to write row", "err", err)
			os.Exit(1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		slog.Error("failed to flush output", "err", err)
		os.Exit(1)
	}

	slog.Info("collection complete", "rows", len(ticks), "path", *out)
}
