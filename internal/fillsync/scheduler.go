// Package fillsync is the C9 Exchange Fill-Sync Scheduler: a periodic
// per-account job that pulls new fills from the exchange and inserts
// them idempotently, grounded on the scheduler shape in
// hyperliquid_scheduler.py (initial sync on start, then a
// ticker-driven interval, stopEvent-style graceful shutdown).
package fillsync

import (
	"context"
	"time"

	"binance-trading-bot/internal/cache"
	"binance-trading-bot/internal/clock"
	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/events"
	"binance-trading-bot/internal/exchange"
	"binance-trading-bot/internal/logging"
)

// defaultAccountType mirrors the python scheduler's simplification:
// only the personal wallet (never the trading agent address) is
// synced, since agent trades are recorded under the main wallet.
const defaultAccountType = "personal_wallet"

// overlapMargin re-requests a small window behind the last known
// success to absorb any fill the previous sync's cursor might have
// missed at the boundary.
const overlapMargin = 5 * time.Minute

// fullHistoryWindow is used as the start time when an account has
// never been synced before.
const fullHistoryWindow = 365 * 24 * time.Hour

type Config struct {
	Accounts     []string
	SyncInterval time.Duration
}

// Scheduler drives the per-account sync loop.
type Scheduler struct {
	cfg      Config
	repo     *database.Repository
	exchange *exchange.Client
	cache    *cache.CacheService
	bus      *events.EventBus
	log      *logging.Logger
}

func NewScheduler(cfg Config, repo *database.Repository, exchangeClient *exchange.Client, cacheService *cache.CacheService, bus *events.EventBus) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		repo:     repo,
		exchange: exchangeClient,
		cache:    cacheService,
		bus:      bus,
		log:      logging.WithComponent("fillsync"),
	}
}

// Start runs one sync pass immediately, then registers the periodic
// tick — matching the teacher's "initial sync, then interval" shape.
func (e *Scheduler) Start(ctx context.Context, scheduler *clock.Scheduler) error {
	e.syncAll(ctx)
	scheduler.Every(ctx, "fillsync", e.cfg.SyncInterval, e.syncAll)
	return nil
}

func (e *Scheduler) syncAll(ctx context.Context) {
	for _, wallet := range e.cfg.Accounts {
		if err := e.syncAccount(ctx, wallet); err != nil {
			e.log.Error("account sync failed", "wallet", wallet, "error", err)
			e.bus.PublishError("fillsync", "account sync failed", err)
		}
	}
}

// syncAccount is guarded by a per-account cache lock so an overlapping
// tick (a previous sync still running past the interval) can't sync
// the same account twice concurrently.
func (e *Scheduler) syncAccount(ctx context.Context, wallet string) error {
	lockKey := cache.FillSyncLockKey(wallet)
	acquired, err := e.cache.SetNX(ctx, lockKey, "1", e.cfg.SyncInterval)
	if err != nil {
		e.log.Warn("sync lock unavailable, proceeding without it", "wallet", wallet, "error", err)
	} else if !acquired {
		e.log.Debug("sync already in progress, skipping tick", "wallet", wallet)
		return nil
	}
	if acquired {
		defer e.cache.Delete(ctx, lockKey)
	}

	log := logging.FillSyncContext(defaultAccountType, wallet)
	status, err := e.repo.GetSyncStatus(ctx, defaultAccountType, wallet)
	if err != nil {
		return err
	}

	start := e.startTime(status)

	running := database.SyncRunning
	_ = e.repo.SetSyncStatus(ctx, &database.SyncStatus{AccountType: defaultAccountType, Wallet: wallet, Status: running})
	e.bus.PublishSyncStatus(defaultAccountType, wallet, string(running))

	fills, err := e.exchange.UserFills(ctx, wallet, start.UnixMilli())
	if err != nil {
		failed := database.SyncFailed
		_ = e.repo.SetSyncStatus(ctx, &database.SyncStatus{AccountType: defaultAccountType, Wallet: wallet, Status: failed, LastSuccessTime: status.LastSuccessTime})
		e.bus.PublishSyncStatus(defaultAccountType, wallet, string(failed))
		return err
	}

	var maxTime int64
	inserted := 0
	for _, f := range fills {
		f.AccountType = defaultAccountType
		f.Wallet = wallet
		if err := e.repo.InsertFill(ctx, &f); err != nil {
			log.Error("fill insert failed", "hash", f.Hash, "error", err)
			continue
		}
		inserted++
		if f.TimeMs > maxTime {
			maxTime = f.TimeMs
		}
	}

	lastSuccess := time.Now()
	if maxTime > 0 {
		lastSuccess = time.UnixMilli(maxTime)
	} else if status.LastSuccessTime != nil {
		lastSuccess = *status.LastSuccessTime
	}

	completed := database.SyncCompleted
	if err := e.repo.SetSyncStatus(ctx, &database.SyncStatus{
		AccountType: defaultAccountType, Wallet: wallet, Status: completed, LastSuccessTime: &lastSuccess,
	}); err != nil {
		return err
	}
	_ = e.cache.Set(ctx, cache.FillSyncHighWaterKey(wallet), lastSuccess.UnixMilli(), 0)
	e.bus.PublishSyncStatus(defaultAccountType, wallet, string(completed))

	log.Info("sync completed", "fills_fetched", len(fills), "fills_inserted", inserted)
	return nil
}

func (e *Scheduler) startTime(status *database.SyncStatus) time.Time {
	if status.LastSuccessTime != nil {
		return status.LastSuccessTime.Add(-overlapMargin)
	}
	return time.Now().Add(-fullHistoryWindow)
}
