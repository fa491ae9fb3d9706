package database

import (
	"context"
	"time"

	"binance-trading-bot/internal/apperr"

	"github.com/jackc/pgx/v5"
)

// InsertSnapshot validates and persists a market snapshot. Invalid
// snapshots are refused and never reach the table.
func (r *Repository) InsertSnapshot(ctx context.Context, s *MarketSnapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.SnapshotTimestamp.IsZero() {
		s.SnapshotTimestamp = time.Now()
	}
	query := `
		INSERT INTO market_snapshots (
			snapshot_timestamp, btc_price, eth_price, btc_market_cap, eth_market_cap,
			total_market_cap, btc_dominance, alt_strength_ratio, data_source, data_quality_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.db.Pool.QueryRow(
		ctx, query,
		s.SnapshotTimestamp, s.BTCPrice, s.ETHPrice, s.BTCMarketCap, s.ETHMarketCap,
		s.TotalMarketCap, s.BTCDominance, s.AltStrengthRatio, s.DataSource, s.DataQualityScore,
	).Scan(&s.ID)
}

// RangeSnapshots returns snapshots between from and to, ascending.
func (r *Repository) RangeSnapshots(ctx context.Context, from, to time.Time) ([]*MarketSnapshot, error) {
	query := `
		SELECT id, snapshot_timestamp, btc_price, eth_price, btc_market_cap, eth_market_cap,
		       total_market_cap, btc_dominance, alt_strength_ratio, data_source, data_quality_score
		FROM market_snapshots
		WHERE snapshot_timestamp BETWEEN $1 AND $2
		ORDER BY snapshot_timestamp ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MarketSnapshot
	for rows.Next() {
		s := &MarketSnapshot{}
		if err := rows.Scan(
			&s.ID, &s.SnapshotTimestamp, &s.BTCPrice, &s.ETHPrice, &s.BTCMarketCap, &s.ETHMarketCap,
			&s.TotalMarketCap, &s.BTCDominance, &s.AltStrengthRatio, &s.DataSource, &s.DataQualityScore,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the most recent market snapshot.
func (r *Repository) LatestSnapshot(ctx context.Context) (*MarketSnapshot, error) {
	query := `
		SELECT id, snapshot_timestamp, btc_price, eth_price, btc_market_cap, eth_market_cap,
		       total_market_cap, btc_dominance, alt_strength_ratio, data_source, data_quality_score
		FROM market_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT 1
	`
	s := &MarketSnapshot{}
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&s.ID, &s.SnapshotTimestamp, &s.BTCPrice, &s.ETHPrice, &s.BTCMarketCap, &s.ETHMarketCap,
		&s.TotalMarketCap, &s.BTCDominance, &s.AltStrengthRatio, &s.DataSource, &s.DataQualityScore,
	)
	if err == pgx.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "SNAPSHOT_NOT_FOUND", "no market snapshot recorded yet")
	}
	return s, err
}
