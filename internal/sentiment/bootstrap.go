package sentiment

import (
	"context"
	"fmt"

	"binance-trading-bot/internal/database"
)

const (
	bootstrapWindowDays = 90
	bootstrapTargetMin  = 80
)

// Bootstrap performs the one-shot 90-day historical ingest, guarded by
// SystemState.bootstrap_completed. It is safe to call on every process
// start; a completed bootstrap is a no-op.
func (e *Engine) Bootstrap(ctx context.Context) error {
	state, err := e.repo.GetSystemState(ctx)
	if err != nil {
		return err
	}
	if state.BootstrapCompleted {
		return nil
	}

	btc, err := e.quotes.HistoricalQuotes(ctx, "BTC", bootstrapWindowDays)
	if err != nil {
		e.log.Error("bootstrap BTC historical fetch failed", "error", err)
		return err
	}
	eth, err := e.quotes.HistoricalQuotes(ctx, "ETH", bootstrapWindowDays)
	if err != nil {
		e.log.Error("bootstrap ETH historical fetch failed", "error", err)
		return err
	}

	// historical_quotes has no per-day global_metrics equivalent, so
	// total_market_cap is approximated from the current alt-weight
	// ratio held constant across the window. This is a bootstrap-only
	// approximation; the scanner's live snapshots always use the
	// latest_quotes + global_metrics pair per the §4.3 critical rule,
	// never this approximation.
	altRatio := 0.0
	if globals, err := e.quotes.GlobalMarketMetrics(ctx); err == nil {
		latest, lerr := e.quotes.LatestQuotes(ctx, []string{"BTC"})
		if lerr == nil {
			if btcNow, ok := latest["BTC"]; ok && btcNow.Price > 0 {
				altRatio = (globals.TotalMarketCap - btcNow.MarketCap) / btcNow.Price
			}
		}
	}
	if altRatio < 0 {
		altRatio = 0
	}

	n := len(btc)
	if len(eth) < n {
		n = len(eth)
	}

	inserted := 0
	for i := 0; i < n; i++ {
		bq, eq := btc[i], eth[i]
		totalMC := (bq.MarketCap + eq.MarketCap) * (1 + altRatio)
		dominance := bq.MarketCap / totalMC * 100
		snap := &database.MarketSnapshot{
			SnapshotTimestamp: bq.UpdatedAt,
			BTCPrice:          bq.Price,
			ETHPrice:          eq.Price,
			BTCMarketCap:      bq.MarketCap,
			ETHMarketCap:      eq.MarketCap,
			TotalMarketCap:    totalMC,
			BTCDominance:      dominance,
			AltStrengthRatio:  altRatio,
			DataSource:        "bootstrap_historical",
			DataQualityScore:  0.8,
		}
		if err := snap.Validate(); err != nil {
			e.log.Warn("bootstrap point failed validation, skipping", "error", err)
			continue
		}
		if err := e.repo.InsertSnapshot(ctx, snap); err != nil {
			e.log.Warn("bootstrap point insert failed, skipping", "error", err)
			continue
		}
		inserted++
	}

	complete := inserted >= bootstrapTargetMin
	if !complete {
		e.log.Warn("bootstrap incomplete", "points", inserted, "target", bootstrapTargetMin,
			"reason", fmt.Sprintf("only %d/%d days produced a valid snapshot", inserted, bootstrapWindowDays))
	}

	return e.repo.UpdateSystemState(ctx, database.StatePatch{
		BootstrapCompleted:  &complete,
		BootstrapDataPoints: &inserted,
	})
}
