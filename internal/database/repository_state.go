package database

import "context"

// GetSystemState reads the singleton coordination record.
func (r *Repository) GetSystemState(ctx context.Context) (*SystemState, error) {
	query := `
		SELECT bootstrap_completed, bootstrap_data_points, scanner_running, scan_interval_hours,
		       last_successful_scan, last_failed_scan, consecutive_failures, consecutive_analysis_failures,
		       system_status, total_scans_completed, total_analyses_completed
		FROM system_state
		WHERE id = 1
	`
	s := &SystemState{}
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&s.BootstrapCompleted, &s.BootstrapDataPoints, &s.ScannerRunning, &s.ScanIntervalHours,
		&s.LastSuccessfulScan, &s.LastFailedScan, &s.ConsecutiveFailures, &s.ConsecutiveAnalysisFailures,
		&s.SystemStatus, &s.TotalScansCompleted, &s.TotalAnalysesCompleted,
	)
	return s, err
}

// StatePatch carries the optional SystemState fields UpdateSystemState
// may mutate. Nil fields are left untouched.
type StatePatch struct {
	BootstrapCompleted          *bool
	BootstrapDataPoints         *int
	ScannerRunning              *bool
	ScanIntervalHours           *float64
	ConsecutiveFailures         *int
	ConsecutiveAnalysisFailures *int
	SystemStatus                *SystemStatus
}

// UpdateSystemState applies patch to the singleton row. Callers are
// expected to serialize calls to this method and the Mark* methods
// below through a single writer goroutine (the scanner loop) rather
// than relying on row locking, matching the "single serialized
// writer" coordination model.
func (r *Repository) UpdateSystemState(ctx context.Context, patch StatePatch) error {
	query := `
		UPDATE system_state
		SET bootstrap_completed = COALESCE($1, bootstrap_completed),
		    bootstrap_data_points = COALESCE($2, bootstrap_data_points),
		    scanner_running = COALESCE($3, scanner_running),
		    scan_interval_hours = COALESCE($4, scan_interval_hours),
		    consecutive_failures = COALESCE($5, consecutive_failures),
		    consecutive_analysis_failures = COALESCE($6, consecutive_analysis_failures),
		    system_status = COALESCE($7, system_status)
		WHERE id = 1
	`
	_, err := r.db.Pool.Exec(ctx, query,
		patch.BootstrapCompleted, patch.BootstrapDataPoints, patch.ScannerRunning, patch.ScanIntervalHours,
		patch.ConsecutiveFailures, patch.ConsecutiveAnalysisFailures, patch.SystemStatus,
	)
	return err
}

// MarkScanSucceeded stamps last_successful_scan and resets the
// consecutive failure counter, incrementing the lifetime scan total.
func (r *Repository) MarkScanSucceeded(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE system_state
		SET last_successful_scan = now(), consecutive_failures = 0,
		    total_scans_completed = total_scans_completed + 1
		WHERE id = 1
	`)
	return err
}

// MarkScanFailed stamps last_failed_scan and increments the
// consecutive failure counter.
func (r *Repository) MarkScanFailed(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE system_state
		SET last_failed_scan = now(), consecutive_failures = consecutive_failures + 1
		WHERE id = 1
	`)
	return err
}

// MarkAnalysisCompleted increments the lifetime analysis counter and
// resets the consecutive analysis-failure counter.
func (r *Repository) MarkAnalysisCompleted(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE system_state
		SET total_analyses_completed = total_analyses_completed + 1, consecutive_analysis_failures = 0
		WHERE id = 1
	`)
	return err
}

// MarkAnalysisFailed increments the consecutive analysis-failure counter.
func (r *Repository) MarkAnalysisFailed(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE system_state SET consecutive_analysis_failures = consecutive_analysis_failures + 1 WHERE id = 1
	`)
	return err
}
