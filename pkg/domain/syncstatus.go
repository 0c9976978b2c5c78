package domain

import (
	"math"
	"time"
)

// SyncStatus is the per (property-id, message-type) health aggregate
// (spec.md §3, §4.12).
type SyncStatus struct {
	PropertyID       string
	MessageType      MessageType
	Status           SyncStatusState
	LastAttempt      *time.Time
	LastSuccess      *time.Time
	SuccessRate      float64
	RecordsTotal     int64
	RecordsProcessed int64
	RetryCount       int
	AutoRetryEnabled bool
	NextRetryAt      *time.Time
	MaxRetries       int
}

// HealthScore computes the [0,100] health score from spec.md §4.12:
//
//	max(0, 100 - 2*retry_count - 30*failure_flag - max(0, days_since_last_success-1)*5)
func (s SyncStatus) HealthScore(now time.Time, failureFlag bool) int {
	score := 100.0
	score -= 2 * float64(s.RetryCount)
	if failureFlag {
		score -= 30
	}
	if s.LastSuccess != nil {
		days := now.Sub(*s.LastSuccess).Hours() / 24
		if days > 1 {
			score -= (days - 1) * 5
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// NeedsAttention reports whether this status should surface in an
// operator's needs-attention view: low health, or long-running.
func (s SyncStatus) NeedsAttention(now time.Time, healthThreshold int, longRunning time.Duration) bool {
	if s.HealthScore(now, s.Status == StatusFailed || s.Status == StatusFailedPerm) < healthThreshold {
		return true
	}
	if s.Status == StatusProcessing && s.LastAttempt != nil && now.Sub(*s.LastAttempt) > longRunning {
		return true
	}
	return false
}
