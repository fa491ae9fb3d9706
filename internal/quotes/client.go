// Package quotes is the C3 market-data client: spot prices and global
// market metrics for BTC/ETH, rate-limited and retried the way
// original_source/backend/app/rate_limiter.py paces calls to the
// upstream quotes provider.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
)

type Config struct {
	APIKey         string
	BaseURL        string
	RateLimitRate  int
	RateLimitPer   time.Duration
	RateLimitBurst int
	MaxConsecutive int
	PauseDuration  time.Duration
	MaxRetries     int
	RequestTimeout time.Duration
}

// Quote is a single asset's latest spot price and market cap.
type Quote struct {
	Symbol     string
	Price      float64
	MarketCap  float64
	UpdatedAt  time.Time
}

// GlobalMetrics is the aggregate market snapshot input.
type GlobalMetrics struct {
	BTCDominance   float64
	TotalMarketCap float64
}

type Client struct {
	cfg     Config
	http    *retryablehttp.Client
	limiter *tokenBucket
	log     *logging.Logger
}

func NewClient(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.RequestTimeout

	return &Client{
		cfg:     cfg,
		http:    rc,
		limiter: newTokenBucket(cfg.RateLimitRate, cfg.RateLimitPer, cfg.RateLimitBurst, cfg.MaxConsecutive, cfg.PauseDuration),
		log:     logging.WithComponent("quotes"),
	}
}

// LatestQuotes fetches the latest price/market-cap for each symbol.
func (c *Client) LatestQuotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	if !c.limiter.Allow() {
		return nil, apperr.New(apperr.Transient, "RATE_LIMITED", "quotes rate limit exceeded, try again shortly")
	}

	url := fmt.Sprintf("%s/v1/cryptocurrency/quotes/latest", c.cfg.BaseURL)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.cfg.APIKey)
	q := req.URL.Query()
	for i, s := range symbols {
		if i > 0 {
			q.Add("symbol", s)
		} else {
			q.Set("symbol", s)
		}
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.Transient, "PROVIDER_UNREACHABLE", "quotes provider request failed", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data map[string]struct {
			Quote map[string]struct {
				Price     float64 `json:"price"`
				MarketCap float64 `json:"market_cap"`
			} `json:"quote"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.ParseError, "PROVIDER_BAD_DATA", "could not decode quotes response", err)
	}

	out := make(map[string]Quote, len(payload.Data))
	now := time.Now()
	for symbol, d := range payload.Data {
		usd, ok := d.Quote["USD"]
		if !ok || usd.Price <= 0 || usd.MarketCap <= 0 {
			c.limiter.RecordFailure()
			return nil, apperr.New(apperr.ParseError, "PROVIDER_BAD_DATA", fmt.Sprintf("non-positive price or market cap for %s", symbol))
		}
		out[symbol] = Quote{Symbol: symbol, Price: usd.Price, MarketCap: usd.MarketCap, UpdatedAt: now}
	}

	c.limiter.RecordSuccess()
	return out, nil
}

// GlobalMarketMetrics fetches BTC dominance and total market cap.
func (c *Client) GlobalMarketMetrics(ctx context.Context) (*GlobalMetrics, error) {
	if !c.limiter.Allow() {
		return nil, apperr.New(apperr.Transient, "RATE_LIMITED", "quotes rate limit exceeded, try again shortly")
	}

	url := fmt.Sprintf("%s/v1/global-metrics/quotes/latest", c.cfg.BaseURL)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.Transient, "PROVIDER_UNREACHABLE", "global metrics request failed", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			BTCDominance float64 `json:"btc_dominance"`
			Quote        map[string]struct {
				TotalMarketCap float64 `json:"total_market_cap"`
			} `json:"quote"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.ParseError, "PROVIDER_BAD_DATA", "could not decode global metrics response", err)
	}

	usd, ok := payload.Data.Quote["USD"]
	if !ok || usd.TotalMarketCap <= 0 || payload.Data.BTCDominance <= 0 {
		c.limiter.RecordFailure()
		return nil, apperr.New(apperr.ParseError, "PROVIDER_BAD_DATA", "non-positive total market cap or dominance")
	}

	c.limiter.RecordSuccess()
	return &GlobalMetrics{BTCDominance: payload.Data.BTCDominance, TotalMarketCap: usd.TotalMarketCap}, nil
}

// Candle is one OHLC bar for a ticker/timeframe pair, used by the
// trade lifecycle engine's trigger and exit detection.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Candles fetches OHLC bars for symbol at the given timeframe since
// the given time, oldest first. Used exclusively by the trade
// lifecycle engine to evaluate trigger/exit conditions against a
// trade's price history; never used for the sentiment engine's
// snapshot ingest, which uses LatestQuotes and GlobalMarketMetrics.
func (c *Client) Candles(ctx context.Context, symbol, timeframe string, since time.Time) ([]Candle, error) {
	if !c.limiter.Allow() {
		return nil, apperr.New(apperr.Transient, "RATE_LIMITED", "quotes rate limit exceeded, try again shortly")
	}

	url := fmt.Sprintf("%s/v2/cryptocurrency/ohlcv/historical", c.cfg.BaseURL)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.cfg.APIKey)
	q := req.URL.Query()
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	q.Set("time_start", fmt.Sprintf("%d", since.Unix()))
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.Transient, "PROVIDER_UNREACHABLE", "candles request failed", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			Quotes []struct {
				TimeOpen time.Time `json:"time_open"`
				Quote    map[string]struct {
					Open  float64 `json:"open"`
					High  float64 `json:"high"`
					Low   float64 `json:"low"`
					Close float64 `json:"close"`
				} `json:"quote"`
			} `json:"quotes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.ParseError, "PROVIDER_BAD_DATA", "could not decode candles response", err)
	}

	out := make([]Candle, 0, len(payload.Data.Quotes))
	for _, bar := range payload.Data.Quotes {
		usd, ok := bar.Quote["USD"]
		if !ok || usd.High <= 0 || usd.Low <= 0 || usd.Low > usd.High {
			continue
		}
		out = append(out, Candle{Time: bar.TimeOpen, Open: usd.Open, High: usd.High, Low: usd.Low, Close: usd.Close})
	}

	c.limiter.RecordSuccess()
	return out, nil
}

// HistoricalQuotes fetches daily OHLC-equivalent close prices for
// symbol over the given day count, oldest first, used by the
// sentiment engine's 90-day bootstrap.
func (c *Client) HistoricalQuotes(ctx context.Context, symbol string, days int) ([]Quote, error) {
	if !c.limiter.Allow() {
		return nil, apperr.New(apperr.Transient, "RATE_LIMITED", "quotes rate limit exceeded, try again shortly")
	}

	url := fmt.Sprintf("%s/v1/cryptocurrency/quotes/historical", c.cfg.BaseURL)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.cfg.APIKey)
	q := req.URL.Query()
	q.Set("symbol", symbol)
	q.Set("count", fmt.Sprintf("%d", days))
	q.Set("interval", "daily")
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.Transient, "PROVIDER_UNREACHABLE", "historical quotes request failed", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			Quotes []struct {
				Timestamp time.Time `json:"timestamp"`
				Quote     map[string]struct {
					Price     float64 `json:"price"`
					MarketCap float64 `json:"market_cap"`
				} `json:"quote"`
			} `json:"quotes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.limiter.RecordFailure()
		return nil, apperr.Wrap(apperr.ParseError, "PROVIDER_BAD_DATA", "could not decode historical quotes response", err)
	}

	out := make([]Quote, 0, len(payload.Data.Quotes))
	for _, pt := range payload.Data.Quotes {
		usd, ok := pt.Quote["USD"]
		if !ok || usd.Price <= 0 {
			continue
		}
		out = append(out, Quote{Symbol: symbol, Price: usd.Price, MarketCap: usd.MarketCap, UpdatedAt: pt.Timestamp})
	}

	c.limiter.RecordSuccess()
	return out, nil
}
