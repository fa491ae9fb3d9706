// Package tradelifecycle is the C8 Active-Trade Lifecycle Engine: it
// creates trades from AI recommendations, watches candle data for
// entry triggers and profit/stop exits, applies AI-driven
// maintain/modify/close/replace decisions, and reconciles orphaned
// trades whose parent analysis disappeared.
//
// Every mutation for a given (ticker, timeframe) is serialized through
// a keyed lock; different keys proceed fully in parallel (§4.8).
package tradelifecycle

import (
	"context"
	"regexp"
	"time"

	"binance-trading-bot/internal/clock"
	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/events"
	"binance-trading-bot/internal/logging"
	"binance-trading-bot/internal/quotes"
)

const (
	// gracePeriod is how long after creation a trade is exempt from
	// exit evaluation, so a stale/late candle can't close it the
	// moment it opens.
	gracePeriod = 5 * time.Minute

	// maxHistoricalAnalysisAge is the age past which a waiting trade's
	// parent analysis is considered too stale for trigger checking.
	// Active trades bypass this entirely (§4.8 "Active-trade bypass").
	maxHistoricalAnalysisAge = 48 * time.Hour
)

var breakoutPattern = regexp.MustCompile(`(?i)breakout|break above|break below|breaks? through`)

// Config configures the periodic open-trade sweep.
type Config struct {
	ScanInterval time.Duration
	OrphanPolicy string // "close" or "recreate"
}

// Engine drives the C8 lifecycle: create, trigger, exit, AI actions,
// user actions and orphan reconciliation.
type Engine struct {
	cfg    Config
	repo   *database.Repository
	quotes *quotes.Client
	bus    *events.EventBus
	locks  *clock.KeyedLock
	log    *logging.Logger
}

func NewEngine(cfg Config, repo *database.Repository, quotesClient *quotes.Client, bus *events.EventBus) *Engine {
	return &Engine{
		cfg:    cfg,
		repo:   repo,
		quotes: quotesClient,
		bus:    bus,
		locks:  clock.NewKeyedLock(),
		log:    logging.WithComponent("tradelifecycle"),
	}
}

// Start registers the periodic sweep that checks every open trade for
// a trigger or exit condition.
func (e *Engine) Start(ctx context.Context, scheduler *clock.Scheduler) error {
	scheduler.Every(ctx, "tradelifecycle-sweep", e.cfg.ScanInterval, e.sweep)
	return nil
}

// sweep evaluates every open trade once. Each trade's own key lock
// keeps it from racing an API-triggered mutation on the same key.
func (e *Engine) sweep(ctx context.Context) {
	trades, err := e.repo.ListOpenTrades(ctx)
	if err != nil {
		e.log.Error("failed to list open trades", "error", err)
		return
	}
	for _, t := range trades {
		e.withLock(t.Ticker, t.Timeframe, func() {
			if err := e.evaluate(ctx, t); err != nil {
				e.log.Error("trade evaluation failed", "ticker", t.Ticker, "timeframe", t.Timeframe, "error", err)
			}
		})
	}
}

func (e *Engine) withLock(ticker, timeframe string, fn func()) {
	unlock := e.locks.Lock(lockKey(ticker, timeframe))
	defer unlock()
	fn()
}

func lockKey(ticker, timeframe string) string {
	return ticker + ":" + timeframe
}

// evaluate runs the trigger check for a waiting trade or the exit
// check for an active one.
func (e *Engine) evaluate(ctx context.Context, t *database.Trade) error {
	switch t.Status {
	case database.TradeWaiting:
		return e.checkTrigger(ctx, t)
	case database.TradeActive:
		return e.checkExit(ctx, t)
	default:
		return nil
	}
}

func isBreakout(entryCondition string) bool {
	return breakoutPattern.MatchString(entryCondition)
}
