package database

import (
	"context"
	"errors"
	"time"

	"binance-trading-bot/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// InsertTrade creates a trade from an analysis. It fails with a
// Conflict error if a non-closed trade already exists for the same
// (ticker, timeframe) — the same invariant idx_trades_one_open_per_key
// enforces at the schema level, so a unique-violation from the pool is
// translated into the same error rather than leaking the driver code.
func (r *Repository) InsertTrade(ctx context.Context, t *Trade) error {
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM trades
			WHERE ticker = $1 AND timeframe = $2 AND status IN ('waiting', 'active')
		)
	`, t.Ticker, t.Timeframe).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return apperr.New(apperr.Conflict, "TRADE_ALREADY_OPEN", "an open trade already exists for this ticker and timeframe")
	}

	query := `
		INSERT INTO trades (
			analysis_id, ticker, timeframe, action, entry_price, target_price, stop_loss,
			entry_condition, entry_strategy, status,
			original_analysis_snapshot, original_context_snapshot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	if t.Status == "" {
		t.Status = TradeWaiting
	}
	err := r.db.Pool.QueryRow(
		ctx, query,
		t.AnalysisID, t.Ticker, t.Timeframe, t.Action, t.EntryPrice, t.TargetPrice, t.StopLoss,
		t.EntryCondition, t.EntryStrategy, t.Status,
		t.OriginalAnalysisSnapshot, t.OriginalContextSnapshot,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Conflict, "TRADE_ALREADY_OPEN", "an open trade already exists for this ticker and timeframe")
	}
	return err
}

// GetTrade retrieves a single trade by id.
func (r *Repository) GetTrade(ctx context.Context, id int64) (*Trade, error) {
	query := `
		SELECT id, analysis_id, ticker, timeframe, action, entry_price, target_price, stop_loss,
		       entry_condition, entry_strategy, status, trigger_hit_time, trigger_hit_price,
		       current_price, unrealized_pnl, realized_pnl, close_time, close_price, close_reason,
		       close_details, original_analysis_snapshot, original_context_snapshot,
		       created_at, updated_at
		FROM trades
		WHERE id = $1
	`
	t := &Trade{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.AnalysisID, &t.Ticker, &t.Timeframe, &t.Action, &t.EntryPrice, &t.TargetPrice, &t.StopLoss,
		&t.EntryCondition, &t.EntryStrategy, &t.Status, &t.TriggerHitTime, &t.TriggerHitPrice,
		&t.CurrentPrice, &t.UnrealizedPnL, &t.RealizedPnL, &t.CloseTime, &t.ClosePrice, &t.CloseReason,
		&t.CloseDetails, &t.OriginalAnalysisSnapshot, &t.OriginalContextSnapshot,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "TRADE_NOT_FOUND", "trade not found")
	}
	return t, err
}

// GetOpenTrade returns the single open trade for (ticker, timeframe),
// if any.
func (r *Repository) GetOpenTrade(ctx context.Context, ticker, timeframe string) (*Trade, error) {
	query := `
		SELECT id, analysis_id, ticker, timeframe, action, entry_price, target_price, stop_loss,
		       entry_condition, entry_strategy, status, trigger_hit_time, trigger_hit_price,
		       current_price, unrealized_pnl, realized_pnl, close_time, close_price, close_reason,
		       close_details, original_analysis_snapshot, original_context_snapshot,
		       created_at, updated_at
		FROM trades
		WHERE ticker = $1 AND timeframe = $2 AND status IN ('waiting', 'active')
	`
	t := &Trade{}
	err := r.db.Pool.QueryRow(ctx, query, ticker, timeframe).Scan(
		&t.ID, &t.AnalysisID, &t.Ticker, &t.Timeframe, &t.Action, &t.EntryPrice, &t.TargetPrice, &t.StopLoss,
		&t.EntryCondition, &t.EntryStrategy, &t.Status, &t.TriggerHitTime, &t.TriggerHitPrice,
		&t.CurrentPrice, &t.UnrealizedPnL, &t.RealizedPnL, &t.CloseTime, &t.ClosePrice, &t.CloseReason,
		&t.CloseDetails, &t.OriginalAnalysisSnapshot, &t.OriginalContextSnapshot,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListOpenTrades returns every trade currently waiting or active.
func (r *Repository) ListOpenTrades(ctx context.Context) ([]*Trade, error) {
	return r.queryTrades(ctx, `
		SELECT id, analysis_id, ticker, timeframe, action, entry_price, target_price, stop_loss,
		       entry_condition, entry_strategy, status, trigger_hit_time, trigger_hit_price,
		       current_price, unrealized_pnl, realized_pnl, close_time, close_price, close_reason,
		       close_details, original_analysis_snapshot, original_context_snapshot,
		       created_at, updated_at
		FROM trades
		WHERE status IN ('waiting', 'active')
		ORDER BY created_at DESC
	`)
}

// ListAllTradeHistory returns trades of every status, most recent
// first (by close time, or creation time for trades still open).
func (r *Repository) ListAllTradeHistory(ctx context.Context, limit int) ([]*Trade, error) {
	return r.queryTrades(ctx, `
		SELECT id, analysis_id, ticker, timeframe, action, entry_price, target_price, stop_loss,
		       entry_condition, entry_strategy, status, trigger_hit_time, trigger_hit_price,
		       current_price, unrealized_pnl, realized_pnl, close_time, close_price, close_reason,
		       close_details, original_analysis_snapshot, original_context_snapshot,
		       created_at, updated_at
		FROM trades
		ORDER BY COALESCE(close_time, created_at) DESC
		LIMIT $1
	`, limit)
}

func (r *Repository) queryTrades(ctx context.Context, query string, args ...interface{}) ([]*Trade, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Trade
	for rows.Next() {
		t := &Trade{}
		if err := rows.Scan(
			&t.ID, &t.AnalysisID, &t.Ticker, &t.Timeframe, &t.Action, &t.EntryPrice, &t.TargetPrice, &t.StopLoss,
			&t.EntryCondition, &t.EntryStrategy, &t.Status, &t.TriggerHitTime, &t.TriggerHitPrice,
			&t.CurrentPrice, &t.UnrealizedPnL, &t.RealizedPnL, &t.CloseTime, &t.ClosePrice, &t.CloseReason,
			&t.CloseDetails, &t.OriginalAnalysisSnapshot, &t.OriginalContextSnapshot,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TradePatch carries the optional fields UpdateTradeFields may mutate.
// Nil fields are left untouched.
type TradePatch struct {
	Status          *TradeStatus
	TriggerHitTime  *time.Time
	TriggerHitPrice *float64
	CurrentPrice    *float64
	UnrealizedPnL   *float64
	RealizedPnL     *float64
	EntryCondition  *string
	TargetPrice     *float64
	StopLoss        *float64
}

// UpdateTradeFields applies patch to trade id using optimistic
// concurrency control keyed on the row's current updated_at. Callers
// must hold the (ticker, timeframe) keyed lock before calling this —
// the CAS only guards against a concurrent writer outside that lock.
func (r *Repository) UpdateTradeFields(ctx context.Context, id int64, expectedUpdatedAt time.Time, patch TradePatch) error {
	query := `
		UPDATE trades
		SET status = COALESCE($3, status),
		    trigger_hit_time = COALESCE($4, trigger_hit_time),
		    trigger_hit_price = COALESCE($5, trigger_hit_price),
		    current_price = COALESCE($6, current_price),
		    unrealized_pnl = COALESCE($7, unrealized_pnl),
		    realized_pnl = COALESCE($8, realized_pnl),
		    entry_condition = COALESCE($9, entry_condition),
		    target_price = COALESCE($10, target_price),
		    stop_loss = COALESCE($11, stop_loss),
		    updated_at = now()
		WHERE id = $1 AND updated_at = $2
	`
	tag, err := r.db.Pool.Exec(ctx, query, id, expectedUpdatedAt,
		patch.Status, patch.TriggerHitTime, patch.TriggerHitPrice,
		patch.CurrentPrice, patch.UnrealizedPnL, patch.RealizedPnL, patch.EntryCondition,
		patch.TargetPrice, patch.StopLoss,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.Conflict, "TRADE_STALE_WRITE", "trade was modified concurrently")
	}
	return nil
}

// CloseTrade atomically marks a trade closed and appends the audit
// TradeUpdate row in the same transaction. updateType lets callers
// record why the close happened (trigger hit, AI decision, user
// action or orphan cleanup) in the audit trail. realizedPnL is
// persisted alongside the close so the column is never left null for
// a closed trade (§3).
func (r *Repository) CloseTrade(ctx context.Context, id int64, closePrice float64, realizedPnL float64, reason string, status TradeStatus, updateType UpdateType, details []byte) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE trades
		SET current_price = $2, close_price = $2, realized_pnl = $6, close_time = now(),
		    close_reason = $3, close_details = $4, status = $5, updated_at = now()
		WHERE id = $1 AND status IN ('waiting', 'active')
	`, id, closePrice, reason, details, status, realizedPnL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.Conflict, "TRADE_ALREADY_CLOSED", "trade is not open")
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO trade_updates (trade_id, price, update_type, payload, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, id, closePrice, updateType, details, reason); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RepointTradeAnalysis repoints a trade at a newly recreated analysis
// row, used by orphan reconciliation's recreate mode.
func (r *Repository) RepointTradeAnalysis(ctx context.Context, tradeID, analysisID int64) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE trades SET analysis_id = $2, updated_at = now() WHERE id = $1`, tradeID, analysisID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "TRADE_NOT_FOUND", "trade not found")
	}
	return nil
}

// RestoreTrade reopens a closed trade, clearing its close fields and
// returning it to waiting. Maintenance-only operation.
func (r *Repository) RestoreTrade(ctx context.Context, tradeID int64) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE trades
		SET status = $2, close_time = NULL, close_price = NULL, close_reason = '',
		    close_details = NULL, trigger_hit_time = NULL, trigger_hit_price = NULL,
		    updated_at = now()
		WHERE id = $1
	`, tradeID, TradeWaiting)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "TRADE_NOT_FOUND", "trade not found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
