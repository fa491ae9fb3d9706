package database

import (
	"context"
	"time"

	"binance-trading-bot/internal/apperr"

	"github.com/jackc/pgx/v5"
)

// InsertVerdict persists a macro sentiment verdict along with its
// rendered charts.
func (r *Repository) InsertVerdict(ctx context.Context, v *SentimentVerdict) error {
	query := `
		INSERT INTO sentiment_verdicts (
			analysis_timestamp, overall_confidence, market_regime, trade_permission,
			btc_trend_direction, btc_trend_strength,
			eth_trend_direction, eth_trend_strength,
			alt_trend_direction, alt_trend_strength,
			chart_btc_price, chart_eth_price, chart_btc_dominance, chart_alt_strength, chart_combined,
			model_used, processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	if v.AnalysisTimestamp.IsZero() {
		v.AnalysisTimestamp = time.Now()
	}
	return r.db.Pool.QueryRow(
		ctx, query,
		v.AnalysisTimestamp, v.OverallConfidence, v.MarketRegime, v.TradePermission,
		v.BTC.Direction, v.BTC.Strength,
		v.ETH.Direction, v.ETH.Strength,
		v.Alt.Direction, v.Alt.Strength,
		v.ChartBTCPrice, v.ChartETHPrice, v.ChartBTCDominance, v.ChartAltStrength, v.ChartCombined,
		v.ModelUsed, v.ProcessingTimeMs,
	).Scan(&v.ID)
}

// LatestVerdict returns the most recent sentiment verdict.
func (r *Repository) LatestVerdict(ctx context.Context) (*SentimentVerdict, error) {
	v, err := r.scanVerdict(ctx, `
		SELECT id, analysis_timestamp, overall_confidence, market_regime, trade_permission,
		       btc_trend_direction, btc_trend_strength, eth_trend_direction, eth_trend_strength,
		       alt_trend_direction, alt_trend_strength,
		       chart_btc_price, chart_eth_price, chart_btc_dominance, chart_alt_strength, chart_combined,
		       model_used, processing_time_ms
		FROM sentiment_verdicts
		ORDER BY analysis_timestamp DESC
		LIMIT 1
	`)
	if err == pgx.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "VERDICT_NOT_FOUND", "no sentiment verdict recorded yet")
	}
	return v, err
}

func (r *Repository) scanVerdict(ctx context.Context, query string, args ...interface{}) (*SentimentVerdict, error) {
	v := &SentimentVerdict{}
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.AnalysisTimestamp, &v.OverallConfidence, &v.MarketRegime, &v.TradePermission,
		&v.BTC.Direction, &v.BTC.Strength, &v.ETH.Direction, &v.ETH.Strength,
		&v.Alt.Direction, &v.Alt.Strength,
		&v.ChartBTCPrice, &v.ChartETHPrice, &v.ChartBTCDominance, &v.ChartAltStrength, &v.ChartCombined,
		&v.ModelUsed, &v.ProcessingTimeMs,
	)
	return v, err
}

// ConfidenceHistory returns overall_confidence and its timestamp for
// every verdict since the given time, ascending.
type ConfidencePoint struct {
	Timestamp  time.Time
	Confidence float64
}

func (r *Repository) ConfidenceHistory(ctx context.Context, since time.Time) ([]ConfidencePoint, error) {
	query := `
		SELECT analysis_timestamp, overall_confidence
		FROM sentiment_verdicts
		WHERE analysis_timestamp >= $1
		ORDER BY analysis_timestamp ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConfidencePoint
	for rows.Next() {
		var p ConfidencePoint
		if err := rows.Scan(&p.Timestamp, &p.Confidence); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
