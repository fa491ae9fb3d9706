// Package sentiment is the C7 Macro Sentiment Engine: bootstraps a
// historical window, then runs a periodic scanner that ingests a
// market snapshot every tick and triggers a debounced AI analysis,
// driving the SystemState machine described in spec §4.7.
package sentiment

import (
	"context"
	"time"

	"binance-trading-bot/internal/ai"
	"binance-trading-bot/internal/chart"
	"binance-trading-bot/internal/clock"
	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/events"
	"binance-trading-bot/internal/logging"
	"binance-trading-bot/internal/quotes"
)

const maxConsecutiveFailuresBeforeDegraded = 3

type Config struct {
	ScanInterval    time.Duration
	DebounceWindow  time.Duration
	BootstrapOnInit bool
	ModelName       string
}

// Engine drives the bootstrap-then-scan lifecycle described in §4.7.
type Engine struct {
	cfg    Config
	repo   *database.Repository
	quotes *quotes.Client
	ai     *ai.Client
	charts *chart.Renderer
	bus    *events.EventBus
	debounce *clock.Debouncer
	log    *logging.Logger
}

func NewEngine(cfg Config, repo *database.Repository, quotesClient *quotes.Client, aiClient *ai.Client, charts *chart.Renderer, bus *events.EventBus) *Engine {
	return &Engine{
		cfg:      cfg,
		repo:     repo,
		quotes:   quotesClient,
		ai:       aiClient,
		charts:   charts,
		bus:      bus,
		debounce: clock.NewDebouncer(),
		log:      logging.WithComponent("sentiment"),
	}
}

// Start registers the scanner loop with scheduler and, if configured,
// runs the one-shot bootstrap first.
func (e *Engine) Start(ctx context.Context, scheduler *clock.Scheduler) error {
	if e.cfg.BootstrapOnInit {
		if err := e.Bootstrap(ctx); err != nil {
			e.log.Error("bootstrap failed, scanner will still start", "error", err)
		}
	}
	scheduler.Every(ctx, "sentiment-scanner", e.cfg.ScanInterval, e.scan)
	return nil
}

// scan is the periodic handler: ingest always runs; analysis runs at
// most once per debounce window.
func (e *Engine) scan(ctx context.Context) {
	snap, err := e.ingestSnapshot(ctx)
	if err != nil {
		e.log.Error("snapshot ingest failed", "error", err)
		_ = e.repo.MarkScanFailed(ctx)
		e.afterFailure(ctx)
		e.bus.PublishError("sentiment", "snapshot ingest failed", err)
		return
	}
	_ = e.repo.MarkScanSucceeded(ctx)
	e.afterSuccess(ctx)

	if !e.debounce.Allow("sentiment-analysis", e.cfg.DebounceWindow) {
		return
	}

	if err := e.runAnalysis(ctx, snap); err != nil {
		e.log.Error("analysis failed", "error", err)
		_ = e.repo.MarkAnalysisFailed(ctx)
		e.bus.PublishError("sentiment", "analysis failed", err)
		return
	}
	_ = e.repo.MarkAnalysisCompleted(ctx)
}

// ingestSnapshot collects the current market state using the
// latest_quotes + global_metrics pair (never historical_quotes, per
// §4.3's "wonky last point" rule), making up to 3 attempts if BTC or
// ETH data fails validation.
func (e *Engine) ingestSnapshot(ctx context.Context) (*database.MarketSnapshot, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		quotesMap, err := e.quotes.LatestQuotes(ctx, []string{"BTC", "ETH"})
		if err != nil {
			lastErr = err
			continue
		}
		globals, err := e.quotes.GlobalMarketMetrics(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		btc, ok := quotesMap["BTC"]
		if !ok {
			lastErr = err
			continue
		}
		eth, ok := quotesMap["ETH"]
		if !ok {
			lastErr = err
			continue
		}

		altRatio := 0.0
		if btc.Price > 0 {
			altRatio = (globals.TotalMarketCap - btc.MarketCap) / btc.Price
		}
		snap := &database.MarketSnapshot{
			SnapshotTimestamp: time.Now(),
			BTCPrice:          btc.Price,
			ETHPrice:          eth.Price,
			BTCMarketCap:      btc.MarketCap,
			ETHMarketCap:      eth.MarketCap,
			TotalMarketCap:    globals.TotalMarketCap,
			BTCDominance:      globals.BTCDominance,
			AltStrengthRatio:  altRatio,
			DataSource:        "live_scan",
			DataQualityScore:  1.0,
		}
		if err := snap.Validate(); err != nil {
			lastErr = err
			continue
		}
		if err := e.repo.InsertSnapshot(ctx, snap); err != nil {
			return nil, err
		}
		return snap, nil
	}
	return nil, lastErr
}

func (e *Engine) afterSuccess(ctx context.Context) {
	state, err := e.repo.GetSystemState(ctx)
	if err != nil || state.SystemStatus != database.StatusDegraded {
		return
	}
	active := database.StatusActive
	_ = e.repo.UpdateSystemState(ctx, database.StatePatch{SystemStatus: &active})
	e.bus.PublishSystemStatus(string(active))
}

func (e *Engine) afterFailure(ctx context.Context) {
	state, err := e.repo.GetSystemState(ctx)
	if err != nil {
		return
	}
	if state.ConsecutiveFailures >= maxConsecutiveFailuresBeforeDegraded && state.SystemStatus != database.StatusDegraded {
		degraded := database.StatusDegraded
		_ = e.repo.UpdateSystemState(ctx, database.StatePatch{SystemStatus: &degraded})
		e.bus.PublishSystemStatus(string(degraded))
	}
}
