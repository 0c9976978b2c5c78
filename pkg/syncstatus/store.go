// Package syncstatus maintains the per (property-id, message-type) health
// aggregate of spec.md §4.12, updated from each AuditEntry terminal
// transition and queried by operators for needs-attention/low-success-rate/
// long-running views.
package syncstatus

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// Store is the Postgres-backed travelclick_sync_status repository.
type Store struct {
	db *sql.DB
}

// NewStore builds a Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordTerminal upserts the health aggregate for (propertyID, messageType)
// after an AuditEntry reaches a terminal state. A COMPLETED status resets
// the retry streak and bumps last_successful_sync; anything else increments
// retry_count. success_rate reflects the most recent batch's
// recordsProcessed/recordsTotal ratio.
func (s *Store) RecordTerminal(ctx context.Context, propertyID string, messageType domain.MessageType, status domain.SyncStatusState, recordsTotal, recordsProcessed int64, now time.Time) error {
	successRate := 0.0
	if recordsTotal > 0 {
		successRate = float64(recordsProcessed) / float64(recordsTotal)
	}
	succeeded := status == domain.StatusCompleted

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO travelclick_sync_status
			(property_id, message_type, status, last_sync_attempt, last_successful_sync,
			 records_total, records_processed, success_rate, retry_count, auto_retry_enabled, max_retries)
		VALUES ($1,$2,$3,$4, CASE WHEN $5 THEN $4 ELSE NULL END, $6,$7,$8, CASE WHEN $5 THEN 0 ELSE 1 END, true, 5)
		ON CONFLICT (property_id, message_type) DO UPDATE SET
			status = EXCLUDED.status,
			last_sync_attempt = EXCLUDED.last_sync_attempt,
			last_successful_sync = CASE WHEN $5 THEN EXCLUDED.last_sync_attempt ELSE travelclick_sync_status.last_successful_sync END,
			records_total = EXCLUDED.records_total,
			records_processed = EXCLUDED.records_processed,
			success_rate = EXCLUDED.success_rate,
			retry_count = CASE WHEN $5 THEN 0 ELSE travelclick_sync_status.retry_count + 1 END`,
		propertyID, messageType, status, now, succeeded, recordsTotal, recordsProcessed, successRate,
	)
	if err != nil {
		return fmt.Errorf("syncstatus: recording terminal transition for %s/%s: %w", propertyID, messageType, err)
	}
	return nil
}

// Get loads the current health aggregate for a (property, message-type)
// pair. Returns a zero-value SyncStatus with StatusPending if no row
// exists yet — a pair with no terminal transitions has nothing to report.
func (s *Store) Get(ctx context.Context, propertyID string, messageType domain.MessageType) (domain.SyncStatus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT property_id, message_type, status, last_sync_attempt, last_successful_sync,
		       success_rate, records_total, records_processed, retry_count, auto_retry_enabled,
		       next_retry_at, max_retries
		FROM travelclick_sync_status WHERE property_id=$1 AND message_type=$2`,
		propertyID, messageType)

	status, err := scanRow(row)
	if err == sql.ErrNoRows {
		return domain.SyncStatus{PropertyID: propertyID, MessageType: messageType, Status: domain.StatusPending}, nil
	}
	if err != nil {
		return domain.SyncStatus{}, fmt.Errorf("syncstatus: loading %s/%s: %w", propertyID, messageType, err)
	}
	return status, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(r rowScanner) (domain.SyncStatus, error) {
	var s domain.SyncStatus
	var lastAttempt, lastSuccess, nextRetry sql.NullTime
	if err := r.Scan(
		&s.PropertyID, &s.MessageType, &s.Status, &lastAttempt, &lastSuccess,
		&s.SuccessRate, &s.RecordsTotal, &s.RecordsProcessed, &s.RetryCount,
		&s.AutoRetryEnabled, &nextRetry, &s.MaxRetries,
	); err != nil {
		return domain.SyncStatus{}, err
	}
	if lastAttempt.Valid {
		s.LastAttempt = &lastAttempt.Time
	}
	if lastSuccess.Valid {
		s.LastSuccess = &lastSuccess.Time
	}
	if nextRetry.Valid {
		s.NextRetryAt = &nextRetry.Time
	}
	return s, nil
}

func (s *Store) all(ctx context.Context) ([]domain.SyncStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT property_id, message_type, status, last_sync_attempt, last_successful_sync,
		       success_rate, records_total, records_processed, retry_count, auto_retry_enabled,
		       next_retry_at, max_retries
		FROM travelclick_sync_status`)
	if err != nil {
		return nil, fmt.Errorf("syncstatus: listing: %w", err)
	}
	defer rows.Close()

	var out []domain.SyncStatus
	for rows.Next() {
		st, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("syncstatus: scanning row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// NeedsAttention returns every (property, message-type) pair whose health
// score is below healthThreshold, or whose current sync has been running
// longer than longRunning.
func (s *Store) NeedsAttention(ctx context.Context, healthThreshold int, longRunning time.Duration, now time.Time) ([]domain.SyncStatus, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SyncStatus
	for _, st := range all {
		if st.NeedsAttention(now, healthThreshold, longRunning) {
			out = append(out, st)
		}
	}
	return out, nil
}

// LowSuccessRate returns every pair whose success_rate is below threshold.
func (s *Store) LowSuccessRate(ctx context.Context, threshold float64) ([]domain.SyncStatus, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SyncStatus
	for _, st := range all {
		if st.SuccessRate < threshold {
			out = append(out, st)
		}
	}
	return out, nil
}

// LongRunning returns every pair currently PROCESSING for longer than
// threshold (spec.md §4.12's default: running > 30min).
func (s *Store) LongRunning(ctx context.Context, threshold time.Duration, now time.Time) ([]domain.SyncStatus, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SyncStatus
	for _, st := range all {
		if st.Status == domain.StatusProcessing && st.LastAttempt != nil && now.Sub(*st.LastAttempt) > threshold {
			out = append(out, st)
		}
	}
	return out, nil
}
