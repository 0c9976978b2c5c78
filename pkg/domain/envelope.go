package domain

import (
	"errors"
	"time"
)

// MessageEnvelope is the immutable unit of transport for both directions
// of the gateway (spec.md §3). It is never mutated after construction;
// lifecycle state lives in the associated AuditEntry instead.
type MessageEnvelope struct {
	MessageID     string
	Direction     Direction
	Type          MessageType
	HotelCode     string
	PropertyID    string
	Payload       []byte
	CorrelationID string // optional parent message-id
	CreatedAt     time.Time
}

// Validate enforces the MessageEnvelope invariant from spec.md §3: the
// message-id must be present, and types that carry hotel-scoped data
// require a non-empty hotel code.
func (m MessageEnvelope) Validate() error {
	if m.MessageID == "" {
		return errors.New("message envelope: message-id is required")
	}
	if m.Type.RequiresHotelCode() && m.HotelCode == "" {
		return errors.New("message envelope: hotel-code is required for type " + string(m.Type))
	}
	return nil
}
