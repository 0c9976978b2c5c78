package domain

import "time"

// AuditEntry is the persistent, per-message state-machine record
// (spec.md §3, §4.11). Lifecycle: created PENDING -> PROCESSING on
// dispatch -> terminal (COMPLETED|FAILED|FAILED_PERMANENT|CANCELLED) or
// RETRY_PENDING -> PROCESSING again.
type AuditEntry struct {
	ID              int64
	MessageID       string
	JobID           string
	Direction       Direction
	Type            MessageType
	PropertyID      string
	HotelCode       string
	RequestXML      []byte
	ResponseXML     []byte
	Status          SyncStatusState
	StartedAt       *time.Time
	CompletedAt     *time.Time
	DurationMs      int64
	RetryCount      int
	LastErrorKind   string
	LastErrorMsg    string
	XMLSha256       string
	ParentMessageID string
	BatchID         string

	// Offload marker, set when RequestXML/ResponseXML exceed the
	// configured size threshold and are stored via pkg/blobstore instead
	// (spec.md §4.11: "a truncation marker is recorded and the full XML
	// is offloaded to a blob reference").
	RequestBlobRef  string
	ResponseBlobRef string

	Version   int // optimistic concurrency token
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionTo enforces the monotonic-in-the-success-direction rule
// from spec.md §4.11: once terminal, an entry cannot move except the
// explicit RETRY_PENDING -> PROCESSING re-entry.
func (a AuditEntry) CanTransitionTo(next SyncStatusState) bool {
	if a.Status.IsTerminal() {
		return false
	}
	switch a.Status {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed || next == StatusFailedPerm ||
			next == StatusRetryPending || next == StatusPartial || next == StatusCancelled
	case StatusRetryPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusPartial:
		return next == StatusCompleted || next == StatusFailed
	case StatusOnHold:
		return next == StatusProcessing || next == StatusCancelled
	default:
		return false
	}
}

// ErrorLogEntry is a structured row for travelclick_error_log
// (spec.md §6, §7).
type ErrorLogEntry struct {
	ID               int64
	AuditEntryID     int64
	ErrorKind        ErrorKindTag
	Severity         int
	Title            string
	Message          string
	Context          map[string]any
	Suggestion       string
	CanRetry         bool
	Resolved         bool
	ResolvedAt       *time.Time
	ResolvedBy       string
	CreatedAt        time.Time
}
