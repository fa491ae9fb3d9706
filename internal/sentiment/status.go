package sentiment

import (
	"context"
	"time"

	"binance-trading-bot/internal/database"
)

// Status returns the current SystemState snapshot for the status endpoint.
func (e *Engine) Status(ctx context.Context) (*database.SystemState, error) {
	return e.repo.GetSystemState(ctx)
}

// LatestVerdict returns the most recent sentiment verdict, if any.
func (e *Engine) LatestVerdict(ctx context.Context) (*database.SentimentVerdict, error) {
	return e.repo.LatestVerdict(ctx)
}

// ConfidenceHistory returns the confidence series since the given time.
func (e *Engine) ConfidenceHistory(ctx context.Context, since time.Time) ([]database.ConfidencePoint, error) {
	return e.repo.ConfidenceHistory(ctx, since)
}

// TriggerScan runs one scan cycle on demand, bypassing the scheduler
// tick (used by the manual /macro-sentiment/scan endpoint).
func (e *Engine) TriggerScan(ctx context.Context) {
	e.scan(ctx)
}

// TriggerAnalysis forces an immediate analysis against the latest
// snapshot, resetting the debounce window first so a manual request
// is never silently dropped by the debouncer.
func (e *Engine) TriggerAnalysis(ctx context.Context) error {
	snap, err := e.repo.LatestSnapshot(ctx)
	if err != nil {
		return err
	}
	e.debounce.Reset("sentiment-analysis")
	e.debounce.Allow("sentiment-analysis", e.cfg.DebounceWindow)
	return e.runAnalysis(ctx, snap)
}
