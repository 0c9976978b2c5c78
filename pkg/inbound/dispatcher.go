// Package inbound implements the inbound SOAP dispatcher of spec.md
// §4.9: the single HTTP-facing entry point a CRS calls to push
// inventory, rate, reservation, restriction and group-block updates into
// the gateway. It mirrors the outbound pkg/orchestrator's FSM shape one
// stage at a time (parse, authenticate, classify, validate, idempotency,
// dispatch, respond) rather than as named states, since every inbound
// request is handled synchronously within one HTTP round trip.
package inbound

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/audit"
	"github.com/roli854/travelclick-htng-gateway/pkg/auth"
	"github.com/roli854/travelclick-htng-gateway/pkg/config"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/telemetry"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlbuild"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlparse"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlvalidate"
)

// Dispatcher drives one inbound SOAP request through spec.md §4.9's
// pipeline. One Dispatcher serves every property; PropertyConfig
// resolution scopes authentication and the enabled-message-types check
// to whichever hotel the request claims to be from.
type Dispatcher struct {
	Config    *config.Service
	Audit     *audit.Store
	Jobs      JobSubmitter
	Nonces    *auth.NonceCache
	Telemetry *telemetry.Provider
}

// Outcome is the result of handling one request: the bytes to write as
// the HTTP response body, the status code, and whether dispatch actually
// happened (false for a replayed or rejected request) — callers that log
// or meter can use Dispatched to avoid double-counting a replay.
type Outcome struct {
	Body       []byte
	StatusCode int
	Dispatched bool
}

// Handle runs the full pipeline against a raw inbound SOAP request body.
// It never returns a Go error for a business-level rejection (bad auth,
// unknown type, failed validation) — those become a SOAP Fault Outcome
// instead, per spec.md §4.9 step 6. An error return means the pipeline
// itself could not run (e.g. the audit store is unreachable).
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (Outcome, error) {
	ctx, end := d.Telemetry.TrackMessage(ctx, "inbound.dispatch")
	var runErr error
	defer func() { end(runErr) }()

	env, err := xmlparse.ParseEnvelope(body)
	if err != nil {
		return faultOutcome(400, xmlparse.FaultCodeClient, "Malformed XML: "+err.Error()), nil
	}

	cfg, cfgErr := d.Config.GetByHotelCode(ctx, env.HotelCode)
	if cfgErr != nil {
		return faultOutcome(401, xmlparse.FaultCodeClient, "Authentication Error: unknown hotel code "+env.HotelCode), nil
	}

	principal, errKind := authenticate(cfg, env.Security, d.Nonces, time.Now())
	if errKind != nil {
		return faultOutcome(401, xmlparse.FaultCodeClient, "Authentication Error: "+errKind.Message), nil
	}
	ctx = authContext(ctx, principal)

	if env.MessageType == domain.MessageTypeUnknown {
		return faultOutcome(400, xmlparse.FaultCodeClient, "Unrecognized message root element "+env.BodyRoot), nil
	}
	if !cfg.EnabledTypes[env.MessageType] {
		return faultOutcome(403, xmlparse.FaultCodeClient, fmt.Sprintf("message type %s is not enabled for hotel %s", env.MessageType, env.HotelCode)), nil
	}

	if schema, ok := schemaFor(env.MessageType); ok {
		if issue := xmlvalidate.WellFormed(bytes.NewReader(env.BodyContent)); issue != nil {
			return faultOutcome(400, xmlparse.FaultCodeClient, issue.Message), nil
		}
		result := xmlvalidate.Structural(bytes.NewReader(env.BodyContent), schema)
		if !result.OK() {
			return faultOutcome(400, xmlparse.FaultCodeClient, result.First()), nil
		}
	}

	hash := sha256Hex(body)
	if replay, ok := d.findReplay(ctx, hash); ok {
		return Outcome{Body: replay, StatusCode: 200, Dispatched: false}, nil
	}

	var txType domain.ReservationTransactionType
	var confirmationNumber string
	if env.MessageType == domain.MessageTypeReservation {
		txType, confirmationNumber = parseReservationAttrs(env.BodyContent)
	}

	entry, err := d.Audit.CreatePending(ctx, domain.MessageEnvelope{
		MessageID:  env.MessageID,
		Direction:  domain.DirectionInbound,
		Type:       env.MessageType,
		HotelCode:  env.HotelCode,
		PropertyID: cfg.PropertyID,
		Payload:    body,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		runErr = fmt.Errorf("inbound: recording audit entry for %s: %w", env.MessageID, err)
		return Outcome{}, runErr
	}

	job := Job{
		MessageID:          env.MessageID,
		PropertyID:         cfg.PropertyID,
		HotelCode:          env.HotelCode,
		Type:               env.MessageType,
		TransactionType:    txType,
		ConfirmationNumber: confirmationNumber,
		AuditEntryID:       entry.ID,
		BodyXML:            env.BodyContent,
		ReceivedAt:         time.Now().UTC(),
	}

	if err := d.Audit.MarkStarted(ctx, entry.ID); err != nil {
		runErr = fmt.Errorf("inbound: marking %s started: %w", env.MessageID, err)
		return Outcome{}, runErr
	}

	if err := d.Jobs.Submit(ctx, job); err != nil {
		_ = d.Audit.MarkFailed(ctx, entry.ID, domain.ErrorKindUnknown, err.Error(), nil, false)
		return faultOutcome(500, xmlparse.FaultCodeServer, "Internal Error: submission failed"), nil
	}

	ack, err := xmlbuild.BuildAck(env.MessageType, env.HotelCode, env.MessageID, time.Now())
	if err != nil {
		runErr = fmt.Errorf("inbound: building ack for %s: %w", env.MessageID, err)
		return Outcome{}, runErr
	}

	if err := d.Audit.MarkCompleted(ctx, entry.ID, ack, 0); err != nil {
		runErr = fmt.Errorf("inbound: marking %s completed: %w", env.MessageID, err)
		return Outcome{}, runErr
	}

	return Outcome{Body: ack, StatusCode: 200, Dispatched: true}, nil
}

// findReplay looks up a terminal AuditEntry sharing this request's body
// hash and returns the response it previously sent, per spec.md §4.9 step
// 4. A non-terminal match (still PROCESSING/PENDING) is not replayed —
// the caller falls through and the duplicate is processed again, since
// there is nothing settled yet to hand back.
func (d *Dispatcher) findReplay(ctx context.Context, hash string) ([]byte, bool) {
	entry, err := d.Audit.FindByHash(ctx, hash)
	if err != nil {
		if !errors.Is(err, audit.ErrNotFound) {
			// Lookup failure falls through to normal processing rather than
			// failing the whole request over a missed dedup opportunity.
			return nil, false
		}
		return nil, false
	}
	if !entry.Status.IsTerminal() {
		return nil, false
	}
	resp, err := d.Audit.ResolveResponse(ctx, entry)
	if err != nil {
		return nil, false
	}
	return resp, true
}

func faultOutcome(status int, code, reason string) Outcome {
	return Outcome{Body: xmlparse.BuildFault(code, reason), StatusCode: status, Dispatched: false}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
