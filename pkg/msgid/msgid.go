// Package msgid generates and parses the gateway's MessageIDs
// (spec.md §4.10). Three modes are supported: unique (UUIDv4), timestamped
// (unique plus a compact UTC timestamp suffix), and idempotent (UUIDv5,
// deterministic over hotel/type/payload so identical payloads always
// produce the same ID).
package msgid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// idempotentNamespace is the fixed UUID namespace for idempotent IDs, so
// generation is stable across process restarts (spec.md §4.10).
var idempotentNamespace = uuid.MustParse("6f7d6a1e-6e6b-4f6a-9e0a-9f9b0c3d2a11")

const prefix = "TC"

// Parsed is the structured decomposition of a MessageID produced by
// Unique or Timestamped.
type Parsed struct {
	HotelID     string
	MessageType string
}

// fieldSep joins the prefix/hotel-id/msg-type/tail segments. It must be a
// character PropertyConfig's hotel-code pattern (`^[A-Za-z0-9_-]{1,20}$`,
// domain/config.go) can never produce, since hotel codes may themselves
// contain `-` (e.g. "HOTEL-001") and a `-`-delimited split would then
// misattribute segments on Parse. "|" satisfies that for both hotel codes
// and the fixed domain.MessageType constants.
const fieldSep = "|"

// Unique generates `<prefix>|<hotel-id>|<msg-type>|<uuidv4>`.
func Unique(hotelID, msgType string) string {
	return strings.Join([]string{prefix, hotelID, msgType, uuid.NewString()}, fieldSep)
}

// Timestamped generates a Unique ID with a UTC compact timestamp suffix
// (`YYYYMMDDTHHMMSSmmm`).
func Timestamped(hotelID, msgType string, now time.Time) string {
	ts := now.UTC().Format("20060102T150405") + fmt.Sprintf("%03d", now.Nanosecond()/1e6)
	return Unique(hotelID, msgType) + fieldSep + ts
}

// Idempotent generates a UUIDv5 over (hotel-id, msg-type,
// sha256(payload)), so sending the same payload twice yields the same ID.
func Idempotent(hotelID, msgType string, payload []byte) string {
	sum := sha256.Sum256(payload)
	name := fmt.Sprintf("%s:%s:%s", hotelID, msgType, hex.EncodeToString(sum[:]))
	id := uuid.NewSHA1(idempotentNamespace, []byte(name))
	return strings.Join([]string{prefix, hotelID, msgType, id.String()}, fieldSep)
}

// Parse extracts the hotel-id and msg-type from any ID produced by Unique,
// Timestamped, or Idempotent. Round-trips even when hotelID contains `-`,
// since fieldSep never appears inside a hotel code or message type.
func Parse(id string) (Parsed, error) {
	parts := strings.SplitN(id, fieldSep, 4)
	if len(parts) < 4 || parts[0] != prefix {
		return Parsed{}, fmt.Errorf("msgid: %q is not a recognized message id", id)
	}
	return Parsed{HotelID: parts[1], MessageType: parts[2]}, nil
}

// IsValid checks structural well-formedness without fully parsing.
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}
