package xmlbuild

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
)

// GroupBlockItem is a room-type allotment held against a group block
// code for a date range, with an optional reservation pick-up cut-off.
// Like RestrictionItem, this is the minimal-treatment builder spec.md
// §4.2 calls for.
type GroupBlockItem struct {
	HotelCode    string
	BlockCode    string
	RoomTypeCode string
	StartDate    time.Time
	EndDate      time.Time
	Allotment    int
	CutOffDate   time.Time
}

func (g GroupBlockItem) validate() error {
	if g.EndDate.Before(g.StartDate) {
		return fmt.Errorf("group block item: end-date %s before start-date %s", g.EndDate, g.StartDate)
	}
	if g.Allotment < 0 {
		return fmt.Errorf("group block item: allotment %d is negative", g.Allotment)
	}
	return nil
}

type invBlockDate struct {
	Start      string `xml:"Start,attr"`
	End        string `xml:"End,attr"`
	InvCode    string `xml:"InvTypeCode,attr,omitempty"`
	Allotment  int    `xml:"Allotment,attr"`
	CutOffDate string `xml:"AbsoluteCutOff,attr,omitempty"`
}

type invBlockDates struct {
	InvBlockDate []invBlockDate `xml:"ota:InvBlockDate"`
}

type invBlock struct {
	BlockCode string        `xml:"BlockID,attr"`
	HotelCode string        `xml:"HotelCode,attr"`
	InvBlock  invBlockDates `xml:"ota:InvBlockDates"`
}

type invBlockNotifRQ struct {
	XMLName   xml.Name `xml:"ota:OTA_HotelInvBlockNotifRQ"`
	TimeStamp string   `xml:"TimeStamp,attr"`
	EchoToken string   `xml:"EchoToken,attr"`
	Version   string   `xml:"Version,attr"`
	InvBlocks []invBlock `xml:"ota:InvBlocks>ota:InvBlock"`
}

// BuildGroupBlock serializes a batch of GroupBlockItem records sharing
// one block code into an OTA_HotelInvBlockNotifRQ wrapped in a SOAP
// envelope.
func BuildGroupBlock(blockCode string, items []GroupBlockItem, schemaVersion, echoToken string, addr soapheader.Addressing, sec soapheader.Security, now time.Time) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("xmlbuild: group block: at least one item is required")
	}

	hotelCode := items[0].HotelCode
	dates := make([]invBlockDate, 0, len(items))
	for i, item := range items {
		if item.HotelCode != hotelCode {
			return nil, fmt.Errorf("xmlbuild: group block: item[%d] hotel code %q does not match batch hotel code %q", i, item.HotelCode, hotelCode)
		}
		if item.BlockCode != blockCode {
			return nil, fmt.Errorf("xmlbuild: group block: item[%d] block code %q does not match batch block code %q", i, item.BlockCode, blockCode)
		}
		if err := item.validate(); err != nil {
			return nil, fmt.Errorf("xmlbuild: group block: item[%d]: %w", i, err)
		}

		var cutoff string
		if !item.CutOffDate.IsZero() {
			cutoff = formatDate(item.CutOffDate)
		}
		dates = append(dates, invBlockDate{
			Start:      formatDate(item.StartDate),
			End:        formatDate(item.EndDate),
			InvCode:    item.RoomTypeCode,
			Allotment:  item.Allotment,
			CutOffDate: cutoff,
		})
	}

	root := invBlockNotifRQ{
		TimeStamp: formatDateTime(now),
		EchoToken: echoToken,
		Version:   schemaVersion,
		InvBlocks: []invBlock{{
			BlockCode: blockCode,
			HotelCode: hotelCode,
			InvBlock:  invBlockDates{InvBlockDate: dates},
		}},
	}

	header, err := soapheader.Build(addr, sec, hotelCode, string(domain.MessageTypeGroupBlock), now)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: group block: building header: %w", err)
	}

	return assemble(header, root)
}
