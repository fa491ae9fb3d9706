// Package exchange is the C4 client for the perpetuals exchange: the
// one operation the fill-sync engine needs is user_fills, a
// time-windowed, paginated fetch of an account's trade fills.
package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
)

type Config struct {
	BaseURL        string
	APIWallet      string
	APISecret      string
	RequestTimeout time.Duration
	MaxRetries     int
	PageSize       int
}

// Client calls the exchange's info endpoint for fill history.
type Client struct {
	cfg  Config
	http *retryablehttp.Client
	log  *logging.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.PageSize == 0 {
		cfg.PageSize = 2000
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.RequestTimeout

	return &Client{cfg: cfg, http: rc, log: logging.WithComponent("exchange")}
}

type userFillsRequest struct {
	Type          string `json:"type"`
	User          string `json:"user"`
	StartTime     int64  `json:"startTime"`
	AggregateFill bool   `json:"aggregateByTime"`
}

type rawFill struct {
	Coin string `json:"coin"`
	Side string `json:"side"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Time int64  `json:"time"`
	Hash string `json:"hash"`
	TID  int64  `json:"tid"`
}

// sign produces the HMAC-SHA256 signature of body under the
// configured API secret, following the same hex-encoded
// hmac.New(sha256.New, secret) pattern the exchange's signed
// endpoints expect.
func (c *Client) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// UserFills returns every fill for wallet newer than startTimeMs,
// paginating by re-requesting from max(time)+1 whenever a page comes
// back at the provider's page-size cap. Fills are returned oldest
// first regardless of the exchange's own per-page ordering, since
// the fill-sync engine treats the result as a set, not a stream.
func (c *Client) UserFills(ctx context.Context, wallet string, startTimeMs int64) ([]database.Fill, error) {
	var all []database.Fill
	cursor := startTimeMs

	for {
		page, err := c.fetchPage(ctx, wallet, cursor)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		if len(page) < c.cfg.PageSize {
			break
		}

		maxTime := page[0].TimeMs
		for _, f := range page {
			if f.TimeMs > maxTime {
				maxTime = f.TimeMs
			}
		}
		if maxTime+1 <= cursor {
			// no forward progress, avoid an infinite loop on a
			// provider that ignores startTime
			break
		}
		cursor = maxTime + 1
	}

	sort.Slice(all, func(i, j int) bool { return all[i].TimeMs < all[j].TimeMs })
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, wallet string, startTimeMs int64) ([]database.Fill, error) {
	reqBody := userFillsRequest{Type: "userFills", User: wallet, StartTime: startTimeMs}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/info", c.cfg.BaseURL)
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APISecret != "" {
		httpReq.Header.Set("X-API-Wallet", c.cfg.APIWallet)
		httpReq.Header.Set("X-API-Signature", c.sign(body))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.Transient, "EXCHANGE_UNREACHABLE", "user_fills request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apperr.New(apperr.Transient, "EXCHANGE_UNREACHABLE", fmt.Sprintf("exchange returned status %d", resp.StatusCode))
	}

	var raw []rawFill
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.ParseError, "EXCHANGE_BAD_DATA", "could not decode user_fills response", err)
	}

	out := make([]database.Fill, 0, len(raw))
	for _, f := range raw {
		price, err1 := parsePositiveFloat(f.Px)
		size, err2 := parsePositiveFloat(f.Sz)
		if err1 != nil || err2 != nil || f.Hash == "" {
			return nil, apperr.New(apperr.ParseError, "EXCHANGE_BAD_DATA", fmt.Sprintf("malformed fill for %s", f.Coin))
		}
		out = append(out, database.Fill{
			Hash:   f.Hash,
			TID:    f.TID,
			TimeMs: f.Time,
			Coin:   f.Coin,
			Side:   f.Side,
			Size:   size,
			Price:  price,
			Wallet: wallet,
		})
	}
	return out, nil
}

func parsePositiveFloat(s string) (float64, error) {
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("non-positive value: %s", s)
	}
	return v, nil
}
