package inbound

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// Job is the typed unit of work the dispatcher hands off after a request
// clears authentication, classification and idempotency (spec.md §4.9
// step 5: "enqueue a typed inbound job"). The gateway's own
// responsibility ends at the wire protocol; mapping BodyXML into
// PMS-specific calls belongs to whatever JobSubmitter the host wires in.
type Job struct {
	MessageID          string
	PropertyID         string
	HotelCode          string
	Type               domain.MessageType
	TransactionType    domain.ReservationTransactionType // populated for Type == Reservation
	ConfirmationNumber string                             // populated for Type == Reservation
	AuditEntryID       int64
	BodyXML            []byte
	ReceivedAt         time.Time
}

// JobSubmitter is the host-supplied handoff point for accepted inbound
// jobs, mirroring the "host supplies the runtime" boundary
// pkg/orchestrator.Result.Chained draws on the outbound side. Submit
// should return quickly; anything slower than the dispatcher's
// synchronous-response budget belongs on the submitter's own queue.
type JobSubmitter interface {
	Submit(ctx context.Context, job Job) error
}

// parseReservationAttrs pulls the root element's TransactionType attribute
// and the confirmation number nested under UniqueID>ID, the two fields
// typed-handler-selection and idempotency need from a reservation body,
// without a full reverse mapping into domain.Reservation. It walks tokens
// directly rather than unmarshaling into a tagged struct because the
// body fragment carries no xmlns:ota declaration of its own (that lives
// on the enclosing envelope, already stripped off by this point), so
// namespace-qualified tag matching can't resolve the "ota" prefix.
func parseReservationAttrs(body []byte) (txType domain.ReservationTransactionType, confirmationNumber string) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var inUniqueID, inID bool
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "OTA_HotelResNotifRQ":
				for _, attr := range t.Attr {
					if attr.Name.Local == "TransactionType" {
						txType = domain.ReservationTransactionType(attr.Value)
					}
				}
			case "UniqueID":
				inUniqueID = true
			case "ID":
				inID = inUniqueID
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "UniqueID":
				inUniqueID = false
			case "ID":
				inID = false
			}
		case xml.CharData:
			if inID && confirmationNumber == "" {
				confirmationNumber = string(t)
			}
		}
	}
}
