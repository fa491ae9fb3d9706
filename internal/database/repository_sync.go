package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// GetSyncStatus reads the sync record for an (accountType, wallet)
// pair, returning a fresh IDLE status if none exists yet.
func (r *Repository) GetSyncStatus(ctx context.Context, accountType, wallet string) (*SyncStatus, error) {
	query := `
		SELECT account_type, wallet, status, last_success_time, metadata
		FROM sync_status
		WHERE account_type = $1 AND wallet = $2
	`
	s := &SyncStatus{}
	err := r.db.Pool.QueryRow(ctx, query, accountType, wallet).Scan(
		&s.AccountType, &s.Wallet, &s.Status, &s.LastSuccessTime, &s.Metadata,
	)
	if err == pgx.ErrNoRows {
		return &SyncStatus{AccountType: accountType, Wallet: wallet, Status: SyncIdle}, nil
	}
	return s, err
}

// SetSyncStatus upserts the sync record for an (accountType, wallet) pair.
func (r *Repository) SetSyncStatus(ctx context.Context, s *SyncStatus) error {
	meta := s.Metadata
	if meta == nil {
		meta = json.RawMessage("{}")
	}
	query := `
		INSERT INTO sync_status (account_type, wallet, status, last_success_time, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_type, wallet)
		DO UPDATE SET status = $3, last_success_time = $4, metadata = $5
	`
	_, err := r.db.Pool.Exec(ctx, query, s.AccountType, s.Wallet, s.Status, s.LastSuccessTime, meta)
	return err
}
