package tradelifecycle

import (
	"context"
	"encoding/json"

	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/database"
)

// OrphanMode selects how ReconcileOrphans handles a trade whose
// parent analysis has disappeared.
type OrphanMode string

const (
	OrphanClose   OrphanMode = "close"
	OrphanRecreate OrphanMode = "recreate"
)

// ReconcileOrphans scans every open trade for a missing parent
// analysis and applies mode to each one found. It is a maintenance
// operation (cmd/maint), grounded on fix_orphaned_trades.py, not part
// of the regular sweep — a missing analysis can only happen from
// manual database intervention, since DeleteAnalysis always refuses
// to remove a row a trade still references.
func (e *Engine) ReconcileOrphans(ctx context.Context, mode OrphanMode) (fixed int, err error) {
	trades, err := e.repo.ListOpenTrades(ctx)
	if err != nil {
		return 0, err
	}

	for _, t := range trades {
		_, aerr := e.repo.GetAnalysis(ctx, t.AnalysisID)
		if aerr == nil {
			continue
		}
		if !apperr.Is(aerr, apperr.NotFound) {
			return fixed, aerr
		}

		if rerr := e.reconcileOne(ctx, t, mode); rerr != nil {
			e.log.Error("orphan reconciliation failed", "trade_id", t.ID, "error", rerr)
			continue
		}
		fixed++
	}
	return fixed, nil
}

func (e *Engine) reconcileOne(ctx context.Context, t *database.Trade, mode OrphanMode) error {
	var outerErr error
	e.withLock(t.Ticker, t.Timeframe, func() {
		switch mode {
		case OrphanRecreate:
			outerErr = e.recreateOrphanAnalysis(ctx, t)
		default:
			outerErr = e.closeOrphan(ctx, t)
		}
	})
	return outerErr
}

func (e *Engine) closeOrphan(ctx context.Context, t *database.Trade) error {
	price := t.EntryPrice
	if t.CurrentPrice != nil {
		price = *t.CurrentPrice
	}
	details, _ := json.Marshal(map[string]interface{}{"missing_analysis_id": t.AnalysisID})

	realizedPnL := price - t.EntryPrice
	if t.Action == database.ActionSell {
		realizedPnL = t.EntryPrice - price
	}

	if err := e.repo.CloseTrade(ctx, t.ID, price, realizedPnL, "orphaned parent analysis", database.TradeAIClosed, database.UpdateOrphanCleanup, details); err != nil {
		return err
	}

	e.bus.PublishTradeClosed(t.ID, price, realizedPnL, "orphan_cleanup")
	return nil
}

// recreateOrphanAnalysis materializes a replacement analyses row from
// the trade's own original_analysis_snapshot and repoints the trade
// at it, restoring referential integrity without closing the trade.
func (e *Engine) recreateOrphanAnalysis(ctx context.Context, t *database.Trade) error {
	a := &database.Analysis{
		Ticker:            t.Ticker,
		Timeframe:         t.Timeframe,
		Action:            t.Action,
		EntryPrice:        &t.EntryPrice,
		TargetPrice:       &t.TargetPrice,
		StopLoss:          &t.StopLoss,
		Reasoning:         "recreated from trade snapshot during orphan reconciliation",
		DetailedAnalysis:  t.OriginalAnalysisSnapshot,
		ContextAssessment: t.OriginalContextSnapshot,
		ModelUsed:         "orphan-recovery",
	}
	if err := e.repo.InsertAnalysis(ctx, a); err != nil {
		return err
	}
	return e.repo.RepointTradeAnalysis(ctx, t.ID, a.ID)
}

// RestoreTrade reopens a previously closed trade (maintenance-only,
// grounded on scripts/restore_trade.py). It clears the close fields
// and sets status back to waiting, requiring the caller to re-run
// trigger detection from scratch.
func (e *Engine) RestoreTrade(ctx context.Context, tradeID int64) error {
	t, err := e.repo.GetTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	if !t.Status.IsClosed() {
		return apperr.New(apperr.Conflict, "TRADE_NOT_CLOSED", "trade is not closed")
	}

	var outerErr error
	e.withLock(t.Ticker, t.Timeframe, func() {
		outerErr = e.repo.RestoreTrade(ctx, tradeID)
	})
	return outerErr
}
