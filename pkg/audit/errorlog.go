package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// ErrorLogWriter persists travelclick_error_log rows alongside a failed
// AuditEntry transition, carrying the ErrorKind's remediation hint for
// operator triage (spec.md §6, §7).
type ErrorLogWriter struct {
	db *sql.DB
}

func NewErrorLogWriter(db *sql.DB) *ErrorLogWriter {
	return &ErrorLogWriter{db: db}
}

// Record writes one ErrorLogEntry for the given AuditEntry id.
func (w *ErrorLogWriter) Record(ctx context.Context, auditEntryID int64, title string, errKind *domain.ErrorKind) error {
	contextJSON, err := json.Marshal(errKind.Context)
	if err != nil {
		return fmt.Errorf("audit: marshaling error context: %w", err)
	}

	_, err = w.db.ExecContext(ctx, `
		INSERT INTO travelclick_error_log
			(travelclick_log_id, error_kind, severity, title, message, context,
			 can_retry, resolved, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,false,$8)`,
		auditEntryID, errKind.Kind, errKind.Severity, title, errKind.Error(),
		contextJSON, errKind.Retryable(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("audit: writing error log entry: %w", err)
	}
	return nil
}

// Resolve marks an error log entry as resolved.
func (w *ErrorLogWriter) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	_, err := w.db.ExecContext(ctx, `
		UPDATE travelclick_error_log SET resolved=true, resolved_at=$1, resolved_by=$2 WHERE id=$3`,
		time.Now().UTC(), resolvedBy, id,
	)
	if err != nil {
		return fmt.Errorf("audit: resolving error log entry %d: %w", id, err)
	}
	return nil
}
