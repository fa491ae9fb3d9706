package database

import (
	"context"
	"time"

	"binance-trading-bot/internal/apperr"

	"github.com/jackc/pgx/v5"
)

// InsertAnalysis stores a new chart analysis verdict.
func (r *Repository) InsertAnalysis(ctx context.Context, a *Analysis) error {
	query := `
		INSERT INTO analyses (
			ticker, timeframe, analysis_timestamp, confidence, action,
			entry_price, target_price, stop_loss, reasoning,
			detailed_analysis, context_assessment, image_hash, model_used
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`
	if a.AnalysisTimestamp.IsZero() {
		a.AnalysisTimestamp = time.Now()
	}
	return r.db.Pool.QueryRow(
		ctx, query,
		a.Ticker, a.Timeframe, a.AnalysisTimestamp, a.Confidence, a.Action,
		a.EntryPrice, a.TargetPrice, a.StopLoss, a.Reasoning,
		a.DetailedAnalysis, a.ContextAssessment, a.ImageHash, a.ModelUsed,
	).Scan(&a.ID, &a.CreatedAt)
}

// GetAnalysis retrieves a single analysis by id, excluding soft-deleted rows.
func (r *Repository) GetAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	query := `
		SELECT id, ticker, timeframe, analysis_timestamp, confidence, action,
		       entry_price, target_price, stop_loss, reasoning,
		       detailed_analysis, context_assessment, image_hash, model_used,
		       deleted_at, created_at
		FROM analyses
		WHERE id = $1 AND deleted_at IS NULL
	`
	a := &Analysis{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Ticker, &a.Timeframe, &a.AnalysisTimestamp, &a.Confidence, &a.Action,
		&a.EntryPrice, &a.TargetPrice, &a.StopLoss, &a.Reasoning,
		&a.DetailedAnalysis, &a.ContextAssessment, &a.ImageHash, &a.ModelUsed,
		&a.DeletedAt, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "ANALYSIS_NOT_FOUND", "analysis not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAnalyses retrieves analyses for a ticker newer than since, most
// recent first, bounded by limit.
func (r *Repository) ListAnalyses(ctx context.Context, ticker string, since time.Time, limit int) ([]*Analysis, error) {
	query := `
		SELECT id, ticker, timeframe, analysis_timestamp, confidence, action,
		       entry_price, target_price, stop_loss, reasoning,
		       detailed_analysis, context_assessment, image_hash, model_used,
		       deleted_at, created_at
		FROM analyses
		WHERE ticker = $1 AND analysis_timestamp >= $2 AND deleted_at IS NULL
		ORDER BY analysis_timestamp DESC
		LIMIT $3
	`
	rows, err := r.db.Pool.Query(ctx, query, ticker, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Analysis
	for rows.Next() {
		a := &Analysis{}
		if err := rows.Scan(
			&a.ID, &a.Ticker, &a.Timeframe, &a.AnalysisTimestamp, &a.Confidence, &a.Action,
			&a.EntryPrice, &a.TargetPrice, &a.StopLoss, &a.Reasoning,
			&a.DetailedAnalysis, &a.ContextAssessment, &a.ImageHash, &a.ModelUsed,
			&a.DeletedAt, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnalysis soft-deletes an analysis. force is accepted for API
// symmetry with the bulk variant but never overrides the referential
// guard: an analysis with any Trade pointing at it is always refused.
func (r *Repository) DeleteAnalysis(ctx context.Context, id int64, force bool) error {
	var exists bool
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM analyses WHERE id = $1 AND deleted_at IS NULL)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperr.New(apperr.NotFound, "ANALYSIS_NOT_FOUND", "analysis not found")
	}

	var referenced bool
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM trades WHERE analysis_id = $1)`, id,
	).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		return apperr.New(apperr.Conflict, "ANALYSIS_REFERENCED", "analysis is referenced by a trade")
	}

	_, err := r.db.Pool.Exec(ctx, `UPDATE analyses SET deleted_at = now() WHERE id = $1`, id)
	return err
}

// DeleteAnalysesBulk deletes each id independently, returning a
// per-id error map for ids that failed (NOT_FOUND or REFERENCED).
func (r *Repository) DeleteAnalysesBulk(ctx context.Context, ids []int64) map[int64]error {
	failures := make(map[int64]error)
	for _, id := range ids {
		if err := r.DeleteAnalysis(ctx, id, false); err != nil {
			failures[id] = err
		}
	}
	return failures
}

// CleanupOldAnalyses soft-deletes analyses older than olderThan that
// no Trade references, returning the count deleted.
func (r *Repository) CleanupOldAnalyses(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE analyses
		SET deleted_at = now()
		WHERE deleted_at IS NULL
		  AND analysis_timestamp < $1
		  AND id NOT IN (SELECT analysis_id FROM trades)
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
