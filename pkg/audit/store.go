// Package audit implements the AuditEntry state machine and message
// history over Postgres (spec.md §4.11). Every outbound and inbound
// message gets exactly one AuditEntry: created PENDING, transitioned as
// the orchestrator/dispatcher process it, and finally terminal. Oversized
// request/response payloads are offloaded to pkg/blobstore and replaced
// with a truncation marker plus a blob reference.
package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/blobstore"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// ErrOptimisticConflict is returned when a state transition loses the
// (id, version) compare-and-swap race; callers retry the transition.
var ErrOptimisticConflict = errors.New("audit: optimistic concurrency conflict")

// ErrNotFound is returned when an AuditEntry id or hash has no matching row.
var ErrNotFound = errors.New("audit: entry not found")

const defaultBlobThreshold = 32 * 1024 // bytes; below this, XML is stored inline

const truncationMarker = "[[offloaded]]"

// Store is the Postgres-backed AuditEntry repository.
type Store struct {
	db            *sql.DB
	blobs         blobstore.BlobStore
	blobThreshold int
}

// NewStore builds a Store. blobThreshold <= 0 uses the 32KiB default.
func NewStore(db *sql.DB, blobs blobstore.BlobStore, blobThreshold int) *Store {
	if blobThreshold <= 0 {
		blobThreshold = defaultBlobThreshold
	}
	return &Store{db: db, blobs: blobs, blobThreshold: blobThreshold}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// offload stores payload inline if it is under the threshold, or offloads
// it to the blob store and returns the truncation marker plus a blob ref.
func (s *Store) offload(ctx context.Context, payload []byte) (inline []byte, blobRef string, err error) {
	if len(payload) <= s.blobThreshold || s.blobs == nil {
		return payload, "", nil
	}
	ref, err := s.blobs.Store(ctx, payload)
	if err != nil {
		return nil, "", fmt.Errorf("audit: offloading payload: %w", err)
	}
	return []byte(truncationMarker), ref, nil
}

// resolvePayload returns the full payload for an entry, fetching it from
// the blob store if it was offloaded.
func (s *Store) resolvePayload(ctx context.Context, inline []byte, blobRef string) ([]byte, error) {
	if blobRef == "" {
		return inline, nil
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("audit: entry references blob %q but no blob store is configured", blobRef)
	}
	return s.blobs.Get(ctx, blobRef)
}

// ResolveResponse returns an entry's full response XML, fetching it from
// the blob store when ResponseXML only holds the truncation marker. The
// inbound dispatcher's idempotent-replay path (spec.md §4.9 step 4) needs
// the actual bytes it previously returned to the CRS, not the marker.
func (s *Store) ResolveResponse(ctx context.Context, entry *domain.AuditEntry) ([]byte, error) {
	return s.resolvePayload(ctx, entry.ResponseXML, entry.ResponseBlobRef)
}

// CreatePending inserts a new AuditEntry in PENDING state for an
// envelope about to be dispatched (outbound) or just received (inbound).
func (s *Store) CreatePending(ctx context.Context, env domain.MessageEnvelope) (*domain.AuditEntry, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}

	inline, blobRef, err := s.offload(ctx, env.Payload)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &domain.AuditEntry{
		MessageID:       env.MessageID,
		Direction:       env.Direction,
		Type:            env.Type,
		PropertyID:      env.PropertyID,
		HotelCode:       env.HotelCode,
		Status:          domain.StatusPending,
		XMLSha256:       sha256Hex(env.Payload),
		ParentMessageID: env.CorrelationID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	entry.RequestXML, entry.RequestBlobRef = inline, blobRef

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO travelclick_log
			(message_id, direction, message_type, property_id, hotel_code,
			 request_xml, status, retry_count, xml_sha256, parent_message_id,
			 version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8,$9,$10,$11,$12)
		RETURNING id`,
		entry.MessageID, entry.Direction, entry.Type, entry.PropertyID, entry.HotelCode,
		entry.RequestXML, entry.Status, entry.XMLSha256, entry.ParentMessageID,
		entry.Version, entry.CreatedAt, entry.UpdatedAt,
	)
	if err := row.Scan(&entry.ID); err != nil {
		return nil, fmt.Errorf("audit: inserting pending entry: %w", err)
	}
	return entry, nil
}

// transition performs one optimistic-concurrency-guarded state update. It
// loads the current row, checks CanTransitionTo, and writes the update
// conditioned on the version it read; a concurrent writer racing it
// surfaces ErrOptimisticConflict rather than silently overwriting.
func (s *Store) transition(ctx context.Context, id int64, next domain.SyncStatusState, apply func(*domain.AuditEntry)) error {
	entry, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if !entry.CanTransitionTo(next) {
		return fmt.Errorf("audit: entry %d cannot transition %s -> %s", id, entry.Status, next)
	}

	entry.Status = next
	entry.UpdatedAt = time.Now().UTC()
	apply(entry)

	res, err := s.db.ExecContext(ctx, `
		UPDATE travelclick_log SET
			status=$1, started_at=$2, completed_at=$3, duration_ms=$4,
			retry_count=$5, last_error_kind=$6, last_error_message=$7,
			response_xml=$8, response_blob_ref=$9, updated_at=$10, version=version+1
		WHERE id=$11 AND version=$12`,
		entry.Status, entry.StartedAt, entry.CompletedAt, entry.DurationMs,
		entry.RetryCount, entry.LastErrorKind, entry.LastErrorMsg,
		entry.ResponseXML, entry.ResponseBlobRef, entry.UpdatedAt,
		id, entry.Version,
	)
	if err != nil {
		return fmt.Errorf("audit: updating entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("audit: checking update result for entry %d: %w", id, err)
	}
	if n == 0 {
		return ErrOptimisticConflict
	}
	return nil
}

// MarkStarted transitions PENDING/RETRY_PENDING -> PROCESSING and stamps
// StartedAt.
func (s *Store) MarkStarted(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return s.transition(ctx, id, domain.StatusProcessing, func(e *domain.AuditEntry) {
		e.StartedAt = &now
	})
}

// MarkCompleted transitions to COMPLETED, storing the response (offloaded
// if oversized) and duration.
func (s *Store) MarkCompleted(ctx context.Context, id int64, response []byte, duration time.Duration) error {
	inline, blobRef, err := s.offload(ctx, response)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.transition(ctx, id, domain.StatusCompleted, func(e *domain.AuditEntry) {
		e.CompletedAt = &now
		e.DurationMs = duration.Milliseconds()
		e.ResponseXML = inline
		e.ResponseBlobRef = blobRef
	})
}

// MarkFailed transitions to FAILED (or FAILED_PERMANENT when permanent is
// true), recording the error kind/message and optional response trace.
func (s *Store) MarkFailed(ctx context.Context, id int64, errKind domain.ErrorKindTag, message string, response []byte, permanent bool) error {
	inline, blobRef, err := s.offload(ctx, response)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	next := domain.StatusFailed
	if permanent {
		next = domain.StatusFailedPerm
	}
	return s.transition(ctx, id, next, func(e *domain.AuditEntry) {
		e.CompletedAt = &now
		e.LastErrorKind = string(errKind)
		e.LastErrorMsg = message
		if len(response) > 0 {
			e.ResponseXML = inline
			e.ResponseBlobRef = blobRef
		}
	})
}

// IncrementRetry transitions to RETRY_PENDING and bumps the retry
// counter, ahead of the orchestrator's next scheduled attempt.
func (s *Store) IncrementRetry(ctx context.Context, id int64) error {
	return s.transition(ctx, id, domain.StatusRetryPending, func(e *domain.AuditEntry) {
		e.RetryCount++
	})
}

// Cancel transitions to CANCELLED; the next transition check in the
// orchestrator aborts before SEND (spec.md §5).
func (s *Store) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, domain.StatusCancelled, func(*domain.AuditEntry) {})
}

func (s *Store) getByID(ctx context.Context, id int64) (*domain.AuditEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, message_id, job_id, direction, message_type, property_id, hotel_code,
		       request_xml, response_xml, status, started_at, completed_at, duration_ms,
		       retry_count, last_error_kind, last_error_message, xml_sha256,
		       parent_message_id, batch_id, request_blob_ref, response_blob_ref,
		       version, created_at, updated_at
		FROM travelclick_log WHERE id=$1`, id)
	return scanEntry(row)
}

// FindByHash looks up an AuditEntry by its request payload hash, used by
// the inbound dispatcher's idempotency check (spec.md §4.9 step 4).
func (s *Store) FindByHash(ctx context.Context, sha string) (*domain.AuditEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, message_id, job_id, direction, message_type, property_id, hotel_code,
		       request_xml, response_xml, status, started_at, completed_at, duration_ms,
		       retry_count, last_error_kind, last_error_message, xml_sha256,
		       parent_message_id, batch_id, request_blob_ref, response_blob_ref,
		       version, created_at, updated_at
		FROM travelclick_log WHERE xml_sha256=$1 ORDER BY created_at DESC LIMIT 1`, sha)
	return scanEntry(row)
}

// Thread returns every AuditEntry chained off parentID via
// ParentMessageID, in creation order.
func (s *Store) Thread(ctx context.Context, parentMessageID string) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, job_id, direction, message_type, property_id, hotel_code,
		       request_xml, response_xml, status, started_at, completed_at, duration_ms,
		       retry_count, last_error_kind, last_error_message, xml_sha256,
		       parent_message_id, batch_id, request_blob_ref, response_blob_ref,
		       version, created_at, updated_at
		FROM travelclick_log WHERE parent_message_id=$1 ORDER BY created_at ASC`, parentMessageID)
	if err != nil {
		return nil, fmt.Errorf("audit: querying thread: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		entry, err := scanEntryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

// Cleanup deletes terminal entries older than olderThan, returning the
// number of rows removed.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM travelclick_log
		WHERE created_at < $1 AND status IN ($2,$3,$4,$5)`,
		olderThan, domain.StatusCompleted, domain.StatusFailed, domain.StatusFailedPerm, domain.StatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("audit: cleanup: %w", err)
	}
	return res.RowsAffected()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row *sql.Row) (*domain.AuditEntry, error) {
	return scanInto(row)
}

func scanEntryRows(rows *sql.Rows) (*domain.AuditEntry, error) {
	return scanInto(rows)
}

func scanInto(s scannable) (*domain.AuditEntry, error) {
	var e domain.AuditEntry
	var jobID, lastErrKind, lastErrMsg, parentMsgID, batchID, reqBlobRef, respBlobRef sql.NullString
	err := s.Scan(
		&e.ID, &e.MessageID, &jobID, &e.Direction, &e.Type, &e.PropertyID, &e.HotelCode,
		&e.RequestXML, &e.ResponseXML, &e.Status, &e.StartedAt, &e.CompletedAt, &e.DurationMs,
		&e.RetryCount, &lastErrKind, &lastErrMsg, &e.XMLSha256,
		&parentMsgID, &batchID, &reqBlobRef, &respBlobRef,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("audit: scanning entry: %w", err)
	}
	e.JobID = jobID.String
	e.LastErrorKind = lastErrKind.String
	e.LastErrorMsg = lastErrMsg.String
	e.ParentMessageID = parentMsgID.String
	e.BatchID = batchID.String
	e.RequestBlobRef = reqBlobRef.String
	e.ResponseBlobRef = respBlobRef.String
	return &e, nil
}
