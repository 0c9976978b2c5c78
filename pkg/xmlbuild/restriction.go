package xmlbuild

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
)

// RestrictionItem is a length-of-stay/closed-status restriction for one
// room-type/rate-plan/date-range. It has no dedicated §3 DTO in the data
// model — restrictions are the minimal-treatment builder spec.md §4.2
// calls for ("follow the same pattern" as inventory/rate) — so
// validation here is limited to date-range sanity.
type RestrictionItem struct {
	HotelCode         string
	RoomTypeCode      string
	RatePlanCode      string
	StartDate         time.Time
	EndDate           time.Time
	MinLOS            int
	MaxLOS            int
	ClosedToArrival   bool
	ClosedToDeparture bool
	Closed            bool
}

func (r RestrictionItem) validate() error {
	if r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("restriction item: end-date %s before start-date %s", r.EndDate, r.StartDate)
	}
	return nil
}

type restrictionStatus struct {
	Start             string `xml:"Start,attr"`
	End               string `xml:"End,attr"`
	RoomTypeCode      string `xml:"InvTypeCode,attr,omitempty"`
	RatePlanCode      string `xml:"RatePlanCode,attr,omitempty"`
	MinLOS            int    `xml:"MinLOS,attr,omitempty"`
	MaxLOS            int    `xml:"MaxLOS,attr,omitempty"`
	ClosedToArrival   bool   `xml:"Arrival,attr,omitempty"`
	ClosedToDeparture bool   `xml:"Departure,attr,omitempty"`
	Restriction       bool   `xml:"Restriction,attr,omitempty"`
}

type availStatusMessages struct {
	HotelCode     string              `xml:"HotelCode,attr"`
	StatusMessage []restrictionStatus `xml:"ota:StatusMessage"`
}

type availNotifRQ struct {
	XMLName   xml.Name            `xml:"ota:OTA_HotelAvailNotifRQ"`
	TimeStamp string              `xml:"TimeStamp,attr"`
	EchoToken string              `xml:"EchoToken,attr"`
	Version   string              `xml:"Version,attr"`
	Messages  availStatusMessages `xml:"ota:AvailStatusMessages"`
}

// BuildRestriction serializes a batch of RestrictionItem records for one
// hotel into an OTA_HotelAvailNotifRQ wrapped in a SOAP envelope.
func BuildRestriction(items []RestrictionItem, schemaVersion, echoToken string, addr soapheader.Addressing, sec soapheader.Security, now time.Time) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("xmlbuild: restriction: at least one item is required")
	}

	hotelCode := items[0].HotelCode
	statuses := make([]restrictionStatus, 0, len(items))
	for i, item := range items {
		if item.HotelCode != hotelCode {
			return nil, fmt.Errorf("xmlbuild: restriction: item[%d] hotel code %q does not match batch hotel code %q", i, item.HotelCode, hotelCode)
		}
		if err := item.validate(); err != nil {
			return nil, fmt.Errorf("xmlbuild: restriction: item[%d]: %w", i, err)
		}
		statuses = append(statuses, restrictionStatus{
			Start:             formatDate(item.StartDate),
			End:               formatDate(item.EndDate),
			RoomTypeCode:      item.RoomTypeCode,
			RatePlanCode:      item.RatePlanCode,
			MinLOS:            item.MinLOS,
			MaxLOS:            item.MaxLOS,
			ClosedToArrival:   item.ClosedToArrival,
			ClosedToDeparture: item.ClosedToDeparture,
			Restriction:       item.Closed,
		})
	}

	root := availNotifRQ{
		TimeStamp: formatDateTime(now),
		EchoToken: echoToken,
		Version:   schemaVersion,
		Messages:  availStatusMessages{HotelCode: hotelCode, StatusMessage: statuses},
	}

	header, err := soapheader.Build(addr, sec, hotelCode, string(domain.MessageTypeRestrictions), now)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: restriction: building header: %w", err)
	}

	return assemble(header, root)
}
