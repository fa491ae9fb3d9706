package database

import "context"

// InsertFill idempotently stores an exchange fill, keyed by hash.
// Re-inserting a fill already present is a silent no-op, which is what
// lets the fill-sync engine re-fetch an overlap margin safely.
func (r *Repository) InsertFill(ctx context.Context, f *Fill) error {
	query := `
		INSERT INTO fills (hash, tid, time_ms, coin, side, size, price, account_type, wallet)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (hash) DO NOTHING
	`
	_, err := r.db.Pool.Exec(ctx, query,
		f.Hash, f.TID, f.TimeMs, f.Coin, f.Side, f.Size, f.Price, f.AccountType, f.Wallet,
	)
	return err
}

// LatestFillTime returns the time_ms of the most recent fill recorded
// for an account, or 0 if none exist yet — the fill-sync engine's
// high-water mark fallback when Redis has none cached.
func (r *Repository) LatestFillTime(ctx context.Context, accountType, wallet string) (int64, error) {
	query := `
		SELECT COALESCE(MAX(time_ms), 0)
		FROM fills
		WHERE account_type = $1 AND wallet = $2
	`
	var maxTime int64
	err := r.db.Pool.QueryRow(ctx, query, accountType, wallet).Scan(&maxTime)
	return maxTime, err
}

// ListFills returns fills for an account within [startMs, endMs], time ascending.
func (r *Repository) ListFills(ctx context.Context, accountType, wallet string, startMs, endMs int64) ([]*Fill, error) {
	query := `
		SELECT hash, tid, time_ms, coin, side, size, price, account_type, wallet
		FROM fills
		WHERE account_type = $1 AND wallet = $2 AND time_ms BETWEEN $3 AND $4
		ORDER BY time_ms ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, accountType, wallet, startMs, endMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Fill
	for rows.Next() {
		f := &Fill{}
		if err := rows.Scan(&f.Hash, &f.TID, &f.TimeMs, &f.Coin, &f.Side, &f.Size, &f.Price, &f.AccountType, &f.Wallet); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
