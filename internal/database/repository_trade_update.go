package database

import "context"

// InsertTradeUpdate appends an audit row to a trade's update history.
func (r *Repository) InsertTradeUpdate(ctx context.Context, u *TradeUpdate) error {
	query := `
		INSERT INTO trade_updates (trade_id, price, update_type, payload, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, update_timestamp
	`
	return r.db.Pool.QueryRow(
		ctx, query, u.TradeID, u.Price, u.UpdateType, u.Payload, u.Notes,
	).Scan(&u.ID, &u.UpdateTimestamp)
}

// ListTradeUpdates returns every update for a trade, oldest first.
func (r *Repository) ListTradeUpdates(ctx context.Context, tradeID int64) ([]*TradeUpdate, error) {
	query := `
		SELECT id, trade_id, update_timestamp, price, update_type, payload, notes
		FROM trade_updates
		WHERE trade_id = $1
		ORDER BY update_timestamp ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TradeUpdate
	for rows.Next() {
		u := &TradeUpdate{}
		if err := rows.Scan(&u.ID, &u.TradeID, &u.UpdateTimestamp, &u.Price, &u.UpdateType, &u.Payload, &u.Notes); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
