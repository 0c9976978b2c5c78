package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/audit"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/msgid"
	"github.com/roli854/travelclick-htng-gateway/pkg/retry"
	"github.com/roli854/travelclick-htng-gateway/pkg/rules"
	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
	"github.com/roli854/travelclick-htng-gateway/pkg/syncstatus"
	"github.com/roli854/travelclick-htng-gateway/pkg/telemetry"
	"github.com/roli854/travelclick-htng-gateway/pkg/transport"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlbuild"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlns"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlparse"
)

// Orchestrator drives one Job through the outbound FSM of spec.md §4.8,
// in the order NEW -> VALIDATE -> BUILD_HEADERS -> CIRCUIT_CHECK -> SEND ->
// PARSE_RESPONSE -> UPDATE_LOG -> (CHAIN|DONE). One Orchestrator serves
// every property; the per-request Locker key and PropertyConfig scope
// everything else to a single property.
type Orchestrator struct {
	Audit     *audit.Store
	Transport *transport.Client
	Locker    *Locker
	SyncStore *syncstatus.Store
	Telemetry *telemetry.Provider
	Schemas   *xmlns.SchemaVersions

	// LockWait bounds how long Run waits to acquire the per-(property,
	// message-type) lock before giving up (spec.md §4.8: ordering must
	// not stall a job indefinitely behind a stuck peer).
	LockWait time.Duration
}

// Result is what Run reports back to the caller: the persisted
// AuditEntry's id, the terminal (or retry-pending) status it reached,
// the raw CRS response body if one was received, and an optional
// follow-up Job the CHAIN step produced.
type Result struct {
	AuditEntryID int64
	Status       domain.SyncStatusState
	Response     []byte
	Chained      *Job
}

// Run executes job end to end. A returned error means the FSM itself
// could not proceed (e.g. the audit store is unreachable); a business
// failure (validation, CRS fault, exhausted retries) is reported via
// Result.Status instead, since every attempt — successful or not — gets
// exactly one AuditEntry (spec.md §4.11).
func (o *Orchestrator) Run(ctx context.Context, job Job, cfg domain.PropertyConfig, engine *rules.Engine) (*Result, error) {
	ctx, end := o.Telemetry.TrackMessage(ctx, "orchestrator.run",
		telemetry.JobTransition(job.PropertyID, string(job.Type), "NEW", 0)...)
	var runErr error
	defer func() { end(runErr) }()

	// VALIDATE
	if errKind := validateJob(job, cfg, engine); errKind != nil {
		entry, err := o.Audit.CreatePending(ctx, validationEnvelope(job, errKind))
		if err != nil {
			runErr = fmt.Errorf("orchestrator: recording validation failure for job %s: %w", job.ID, err)
			return nil, runErr
		}
		if err := o.Audit.MarkFailed(ctx, entry.ID, errKind.Kind, errKind.Error(), nil, true); err != nil {
			runErr = fmt.Errorf("orchestrator: marking validation failure for job %s: %w", job.ID, err)
			return nil, runErr
		}
		o.recordSyncStatus(ctx, job, domain.StatusFailedPerm, 0)
		return &Result{AuditEntryID: entry.ID, Status: domain.StatusFailedPerm}, nil
	}

	// BUILD_HEADERS: serialize the typed payload into the outbound SOAP
	// envelope now, so the AuditEntry below records the exact bytes sent.
	body, err := o.buildBody(job, cfg)
	if err != nil {
		entry, cerr := o.Audit.CreatePending(ctx, domain.MessageEnvelope{
			MessageID: job.ID, Direction: domain.DirectionOutbound, Type: job.Type,
			HotelCode: cfg.HotelCode, PropertyID: job.PropertyID, CorrelationID: job.CorrelationID,
			Payload: []byte(err.Error()), CreatedAt: time.Now().UTC(),
		})
		if cerr != nil {
			runErr = fmt.Errorf("orchestrator: recording build failure for job %s: %w", job.ID, cerr)
			return nil, runErr
		}
		errKind := domain.NewErrorKind(domain.ErrorKindDataMapping, "building outbound payload", err)
		_ = o.Audit.MarkFailed(ctx, entry.ID, errKind.Kind, errKind.Error(), nil, true)
		o.recordSyncStatus(ctx, job, domain.StatusFailedPerm, 0)
		return &Result{AuditEntryID: entry.ID, Status: domain.StatusFailedPerm}, nil
	}

	entry, err := o.Audit.CreatePending(ctx, domain.MessageEnvelope{
		MessageID: job.ID, Direction: domain.DirectionOutbound, Type: job.Type,
		HotelCode: cfg.HotelCode, PropertyID: job.PropertyID, CorrelationID: job.CorrelationID,
		Payload: body, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		runErr = fmt.Errorf("orchestrator: creating audit entry for job %s: %w", job.ID, err)
		return nil, runErr
	}

	// CIRCUIT_CHECK: the per-(property, message-type) single-flight lock.
	// The transport Client's own circuit breaker is consulted inside
	// Send; this lock is purely about ordering, not endpoint health.
	lockCtx := ctx
	if o.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, o.LockWait)
		defer cancel()
	}
	lease, err := o.Locker.Acquire(lockCtx, job.PropertyID, string(job.Type), job.Priority)
	if err != nil {
		_ = o.Audit.IncrementRetry(ctx, entry.ID)
		o.recordSyncStatus(ctx, job, domain.StatusRetryPending, 0)
		return &Result{AuditEntryID: entry.ID, Status: domain.StatusRetryPending}, nil
	}
	defer lease.Release(ctx)

	if err := o.Audit.MarkStarted(ctx, entry.ID); err != nil {
		runErr = fmt.Errorf("orchestrator: marking job %s started: %w", job.ID, err)
		return nil, runErr
	}

	// SEND
	started := time.Now()
	timeout := time.Duration(cfg.Timeouts.RequestSeconds) * time.Second
	respBody, _, sendErr := o.Transport.Send(ctx, transport.Request{
		Endpoint: cfg.EndpointURL, Body: body, Timeout: timeout,
	})
	duration := time.Since(started)

	// PARSE_RESPONSE
	var businessErr *domain.ErrorKind
	if sendErr == nil {
		parsed, perr := xmlparse.ParseResponse(respBody)
		switch {
		case perr != nil:
			businessErr = domain.NewErrorKind(domain.ErrorKindSoapXML, "parsing CRS response", perr)
		case parsed.IsFault:
			businessErr = domain.NewErrorKind(domain.ErrorKindBusinessLogic, "CRS returned a SOAP fault", nil).
				WithFault(parsed.Fault.Code, parsed.Fault.String)
			if transport.IsAuthenticationFault(parsed.Fault.Code, parsed.Fault.String) {
				businessErr.Kind = domain.ErrorKindAuthentication
			}
		case !parsed.Success && len(parsed.Errors) > 0:
			violations := make([]domain.FieldViolation, 0, len(parsed.Errors))
			for _, e := range parsed.Errors {
				violations = append(violations, domain.FieldViolation{Field: e.Type, Rule: e.Code, Value: e.ShortText})
			}
			businessErr = domain.NewErrorKind(domain.ErrorKindBusinessLogic, "CRS rejected the message", nil).
				WithFieldViolations(nil, violations...)
		}
	}

	finalErr := sendErr
	if finalErr == nil {
		finalErr = businessErr
	}
	o.Transport.RecordOutcome(cfg.EndpointURL, finalErr == nil)

	// UPDATE_LOG
	status, err := o.updateLog(ctx, entry, cfg, finalErr, respBody, duration)
	if err != nil {
		runErr = fmt.Errorf("orchestrator: updating audit log for job %s: %w", job.ID, err)
		return nil, runErr
	}
	o.recordSyncStatus(ctx, job, status, job.recordCount())

	result := &Result{AuditEntryID: entry.ID, Status: status, Response: respBody}

	// CHAIN: a completed reservation may enqueue a follow-up inventory
	// job, per spec.md §4.8's reservation-completion hook.
	if status == domain.StatusCompleted && job.Type == domain.MessageTypeReservation && cfg.AutoSendInventoryUpdates {
		result.Chained = chainInventoryJob(job, cfg, time.Now().UTC())
	}

	return result, nil
}

// buildBody dispatches to the per-MessageType xmlbuild.Build* function,
// resolving the schema version and a fresh echo token for this job.
func (o *Orchestrator) buildBody(job Job, cfg domain.PropertyConfig) ([]byte, error) {
	addr := soapheader.Addressing{To: cfg.EndpointURL, HotelCode: cfg.HotelCode}
	sec := soapheader.Security{Username: cfg.Username, Password: cfg.Password}
	now := time.Now().UTC()
	echoToken := msgid.Unique(cfg.HotelCode, string(job.Type))
	schemaVersion := o.schemaVersionFor(job.Type)

	switch job.Type {
	case domain.MessageTypeInventory:
		return xmlbuild.BuildInventory(job.InventoryItems, job.InventoryMode, schemaVersion, echoToken, addr, sec, now)
	case domain.MessageTypeRates:
		opts := xmlbuild.RateBuildOptions{
			Operation:     job.RateOperation,
			ExpandLinked:  !cfg.ExternalSystemHandlesLinkedRates,
			SchemaVersion: schemaVersion,
			EchoToken:     echoToken,
		}
		return xmlbuild.BuildRate(cfg.HotelCode, job.RatePlans, opts, addr, sec, now)
	case domain.MessageTypeReservation:
		if job.Reservation == nil {
			return nil, fmt.Errorf("orchestrator: reservation job %s has no Reservation payload", job.ID)
		}
		return xmlbuild.BuildReservation(*job.Reservation, schemaVersion, echoToken, addr, sec, now)
	case domain.MessageTypeRestrictions:
		return xmlbuild.BuildRestriction(job.Restrictions, schemaVersion, echoToken, addr, sec, now)
	case domain.MessageTypeGroupBlock:
		return xmlbuild.BuildGroupBlock(job.GroupBlockCode, job.GroupBlockItems, schemaVersion, echoToken, addr, sec, now)
	default:
		return nil, fmt.Errorf("orchestrator: unsupported message type %q", job.Type)
	}
}

// defaultSchemaVersion is used when an Orchestrator is built without an
// explicit *xmlns.SchemaVersions registry (e.g. in tests).
const defaultSchemaVersion = "1.003"

func (o *Orchestrator) schemaVersionFor(mt domain.MessageType) string {
	if o.Schemas == nil {
		return defaultSchemaVersion
	}
	v, err := o.Schemas.Resolve(mt, "")
	if err != nil {
		return defaultSchemaVersion
	}
	return v.String()
}

// updateLog applies the UPDATE_LOG step: COMPLETED on success, or
// RETRY_PENDING or FAILED_PERMANENT on failure depending on whether
// the ErrorKind is retryable and the property's retry budget remains.
func (o *Orchestrator) updateLog(ctx context.Context, entry *domain.AuditEntry, cfg domain.PropertyConfig, errKind *domain.ErrorKind, response []byte, duration time.Duration) (domain.SyncStatusState, error) {
	if errKind == nil {
		if err := o.Audit.MarkCompleted(ctx, entry.ID, response, duration); err != nil {
			return "", err
		}
		return domain.StatusCompleted, nil
	}

	if !errKind.Retryable() {
		if err := o.Audit.MarkFailed(ctx, entry.ID, errKind.Kind, errKind.Error(), response, true); err != nil {
			return "", err
		}
		return domain.StatusFailedPerm, nil
	}

	policy := policyFor(cfg)
	attemptIndex := entry.RetryCount + 1
	if policy.Exhausted(attemptIndex) {
		if err := o.Audit.MarkFailed(ctx, entry.ID, errKind.Kind, errKind.Error(), response, true); err != nil {
			return "", err
		}
		return domain.StatusFailedPerm, nil
	}

	if err := o.Audit.IncrementRetry(ctx, entry.ID); err != nil {
		return "", err
	}
	return domain.StatusRetryPending, nil
}

// policyFor builds the retry.Policy a property's configured strategy
// implies (spec.md §4.6). Linear reuses the initial delay as its fixed
// step, since PropertyConfig carries no independent step field.
func policyFor(cfg domain.PropertyConfig) retry.Policy {
	initial := time.Duration(cfg.RetryPolicy.InitialDelaySeconds) * time.Second
	max := time.Duration(cfg.RetryPolicy.MaxDelaySeconds) * time.Second

	var strategy retry.Strategy
	if cfg.RetryPolicy.BackoffStrategy == "linear" {
		strategy = retry.Linear{Initial: initial, Step: initial, Max: max}
	} else {
		strategy = retry.Exponential{Initial: initial, Multiplier: cfg.RetryPolicy.Multiplier, Max: max}
	}
	return retry.Policy{Strategy: strategy, MaxAttempts: cfg.RetryPolicy.MaxAttempts}
}

func (o *Orchestrator) recordSyncStatus(ctx context.Context, job Job, status domain.SyncStatusState, recordsProcessed int64) {
	if o.SyncStore == nil {
		return
	}
	total := job.recordCount()
	if status != domain.StatusCompleted {
		recordsProcessed = 0
	}
	_ = o.SyncStore.RecordTerminal(ctx, job.PropertyID, job.Type, status, total, recordsProcessed, time.Now().UTC())
}

// validationEnvelope builds the MessageEnvelope used to persist a job
// that failed VALIDATE before any XML was built, recording the
// violation list in place of a payload.
func validationEnvelope(job Job, errKind *domain.ErrorKind) domain.MessageEnvelope {
	return domain.MessageEnvelope{
		MessageID:     job.ID,
		Direction:     domain.DirectionOutbound,
		Type:          job.Type,
		HotelCode:     "",
		PropertyID:    job.PropertyID,
		CorrelationID: job.CorrelationID,
		Payload:       []byte(errKind.Error()),
		CreatedAt:     time.Now().UTC(),
	}
}

// chainInventoryJob builds the follow-up inventory Job a completed
// reservation triggers when AutoSendInventoryUpdates is set: a single
// DELTA count decrement for the room types/dates the reservation
// occupied, left for the caller to Split and Run like any other job.
func chainInventoryJob(job Job, cfg domain.PropertyConfig, now time.Time) *Job {
	if job.Reservation == nil {
		return nil
	}
	items := make([]domain.InventoryItem, 0, len(job.Reservation.RoomStays))
	for _, rs := range job.Reservation.RoomStays {
		items = append(items, domain.InventoryItem{
			HotelCode:    cfg.HotelCode,
			RoomTypeCode: rs.RoomTypeCode,
			StartDate:    rs.StartDate,
			EndDate:      rs.EndDate,
			Counts:       map[domain.CountType]int{domain.CountTypeDefiniteSold: 1},
		})
	}
	if len(items) == 0 {
		return nil
	}
	return &Job{
		ID:            msgid.Timestamped(job.PropertyID, string(domain.MessageTypeInventory), now),
		PropertyID:    job.PropertyID,
		Type:          domain.MessageTypeInventory,
		Priority:      job.Priority,
		CorrelationID: job.ID,
		CreatedAt:     now,
		InventoryItems: items,
		InventoryMode:  domain.InventoryModeDelta,
	}
}
