// Package binance fetches minute klines from the Binance public API to
// build BTC price datasets.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/strikesim/strikesim/internal/domain"
)

const (
	defaultBase = "https://api.binance.com"

	// Binance allows 6000 request weight/min; klines weigh 2. Stay well
	// under it.
	requestsPerSec = 10
	maxPerRequest  = 1000

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is a rate-limited Binance REST client.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient creates a client. An empty base uses the production API.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(requestsPerSec, 5),
	}
}

// MinuteKlines fetches 1m klines for symbol over [from, to), paginating in
// chunks of 1000. Each kline's open price becomes one tick.
func (c *Client) MinuteKlines(ctx context.Context, symbol string, from, to time.Time) ([]domain.PriceTick, error) {
	var ticks []domain.PriceTick

	cursor := from
	for cursor.Before(to) {
		batch, err := c.klinesPage(ctx, symbol, cursor, to)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		ticks = append(ticks, batch...)
		cursor = batch[len(batch)-1].Timestamp.Add(time.Minute)

		slog.Debug("binance: fetched klines page",
			"symbol", symbol,
			"rows", len(batch),
			"cursor", cursor,
		)
	}
	return ticks, nil
}

// klinesPage fetches one page of at most 1000 klines starting at from.
func (c *Client) klinesPage(ctx context.Context, symbol string, from, to time.Time) ([]domain.PriceTick, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1m")
	q.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(to.UnixMilli()-1, 10))
	q.Set("limit", strconv.Itoa(maxPerRequest))

	var raw [][]any
	if err := c.get(ctx, c.base+"/api/v3/klines?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("binance.klinesPage: %w", err)
	}

	ticks := make([]domain.PriceTick, 0, len(raw))
	for _, k := range raw {
		if len(k) < 2 {
			return nil, fmt.Errorf("binance.klinesPage: malformed kline with %d fields", len(k))
		}
		openMillis, ok := k[0].(float64)
		if !ok {
			return nil, fmt.Errorf("binance.klinesPage: open time %v is not a number", k[0])
		}
		openStr, ok := k[1].(string)
		if !ok {
			return nil, fmt.Errorf("binance.klinesPage: open price %v is not a string", k[1])
		}
		price, err := strconv.ParseFloat(openStr, 64)
		if err != nil {
			return nil, fmt.Errorf("binance.klinesPage: parse open price %q: %w", openStr, err)
		}
		ticks = append(ticks, domain.PriceTick{
			Timestamp: time.UnixMilli(int64(openMillis)).UTC(),
			Price:     price,
		})
	}
	return ticks, nil
}

// get performs a rate-limited GET with retries and exponential backoff.
func (c *Client) get(ctx context.Context, fullURL string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("binance: retrying request", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep backs off exponentially, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
