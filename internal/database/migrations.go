package database

import "context"

// RunMigrations applies additive, idempotent schema migrations. Every
// statement is CREATE TABLE IF NOT EXISTS / CREATE [UNIQUE] INDEX IF
// NOT EXISTS, plus one INSERT ... ON CONFLICT DO NOTHING that seeds the
// system_state singleton row — matching original_source/migrate_active_trades.py's
// always-safe-to-rerun style — never destructive.
func (db *DB) RunMigrations(ctx context.Context) error {
	db.log.Info("running database migrations")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id BIGSERIAL PRIMARY KEY,
			ticker VARCHAR(20) NOT NULL,
			timeframe VARCHAR(10) NOT NULL,
			analysis_timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
			confidence DOUBLE PRECISION NOT NULL,
			action VARCHAR(10) NOT NULL,
			entry_price DOUBLE PRECISION,
			target_price DOUBLE PRECISION,
			stop_loss DOUBLE PRECISION,
			reasoning TEXT,
			detailed_analysis JSONB,
			context_assessment JSONB,
			image_hash VARCHAR(64),
			model_used VARCHAR(100),
			deleted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ticker_ts ON analyses(ticker, analysis_timestamp DESC)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			analysis_id BIGINT NOT NULL REFERENCES analyses(id),
			ticker VARCHAR(20) NOT NULL,
			timeframe VARCHAR(10) NOT NULL,
			action VARCHAR(10) NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			target_price DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			entry_condition TEXT,
			entry_strategy VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'waiting',
			trigger_hit_time TIMESTAMPTZ,
			trigger_hit_price DOUBLE PRECISION,
			current_price DOUBLE PRECISION,
			unrealized_pnl DOUBLE PRECISION,
			realized_pnl DOUBLE PRECISION,
			close_time TIMESTAMPTZ,
			close_price DOUBLE PRECISION,
			close_reason VARCHAR(30),
			close_details JSONB,
			original_analysis_snapshot JSONB,
			original_context_snapshot JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ticker_tf_status ON trades(ticker, timeframe, status)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_analysis_id ON trades(analysis_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_trades_one_open_per_key
			ON trades(ticker, timeframe)
			WHERE status IN ('waiting', 'active')`,

		`CREATE TABLE IF NOT EXISTS trade_updates (
			id BIGSERIAL PRIMARY KEY,
			trade_id BIGINT NOT NULL REFERENCES trades(id),
			update_timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
			price DOUBLE PRECISION,
			update_type VARCHAR(30) NOT NULL,
			payload JSONB,
			notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_updates_trade_id ON trade_updates(trade_id)`,

		`CREATE TABLE IF NOT EXISTS market_snapshots (
			id BIGSERIAL PRIMARY KEY,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
			btc_price DOUBLE PRECISION NOT NULL,
			eth_price DOUBLE PRECISION NOT NULL,
			btc_market_cap DOUBLE PRECISION NOT NULL,
			eth_market_cap DOUBLE PRECISION NOT NULL,
			total_market_cap DOUBLE PRECISION NOT NULL,
			btc_dominance DOUBLE PRECISION NOT NULL,
			alt_strength_ratio DOUBLE PRECISION NOT NULL,
			data_source VARCHAR(50),
			data_quality_score DOUBLE PRECISION NOT NULL DEFAULT 1.0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON market_snapshots(snapshot_timestamp DESC)`,

		`CREATE TABLE IF NOT EXISTS sentiment_verdicts (
			id BIGSERIAL PRIMARY KEY,
			analysis_timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
			overall_confidence DOUBLE PRECISION NOT NULL,
			market_regime VARCHAR(20) NOT NULL,
			trade_permission VARCHAR(20) NOT NULL,
			btc_trend_direction VARCHAR(10),
			btc_trend_strength DOUBLE PRECISION,
			eth_trend_direction VARCHAR(10),
			eth_trend_strength DOUBLE PRECISION,
			alt_trend_direction VARCHAR(10),
			alt_trend_strength DOUBLE PRECISION,
			chart_btc_price BYTEA,
			chart_eth_price BYTEA,
			chart_btc_dominance BYTEA,
			chart_alt_strength BYTEA,
			chart_combined BYTEA,
			model_used VARCHAR(100),
			processing_time_ms BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_ts ON sentiment_verdicts(analysis_timestamp DESC)`,

		`CREATE TABLE IF NOT EXISTS system_state (
			id SMALLINT PRIMARY KEY DEFAULT 1,
			bootstrap_completed BOOLEAN NOT NULL DEFAULT false,
			bootstrap_data_points INT NOT NULL DEFAULT 0,
			scanner_running BOOLEAN NOT NULL DEFAULT false,
			scan_interval_hours DOUBLE PRECISION NOT NULL DEFAULT 4,
			last_successful_scan TIMESTAMPTZ,
			last_failed_scan TIMESTAMPTZ,
			consecutive_failures INT NOT NULL DEFAULT 0,
			consecutive_analysis_failures INT NOT NULL DEFAULT 0,
			system_status VARCHAR(20) NOT NULL DEFAULT 'INITIALIZING',
			total_scans_completed BIGINT NOT NULL DEFAULT 0,
			total_analyses_completed BIGINT NOT NULL DEFAULT 0,
			CONSTRAINT system_state_singleton CHECK (id = 1)
		)`,
		`INSERT INTO system_state (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,

		`CREATE TABLE IF NOT EXISTS sync_status (
			account_type VARCHAR(30) NOT NULL,
			wallet VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'IDLE',
			last_success_time TIMESTAMPTZ,
			metadata JSONB,
			PRIMARY KEY (account_type, wallet)
		)`,

		`CREATE TABLE IF NOT EXISTS fills (
			hash VARCHAR(100) PRIMARY KEY,
			tid BIGINT,
			time_ms BIGINT NOT NULL,
			coin VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			size DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			account_type VARCHAR(30) NOT NULL,
			wallet VARCHAR(100) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_account_wallet ON fills(account_type, wallet)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_time ON fills(time_ms DESC)`,
	}

	for _, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	db.log.Info("database migrations complete")
	return nil
}
