package xmlbuild

import (
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
)

type invCount struct {
	CountType int `xml:"CountType,attr"`
	Count     int `xml:"Count,attr"`
}

type invCounts struct {
	InvCount []invCount `xml:"ota:InvCount"`
}

type invStatusApplicationControl struct {
	Start       string `xml:"Start,attr"`
	End         string `xml:"End,attr"`
	InvTypeCode string `xml:"InvTypeCode,attr,omitempty"`
	AllInvCode  bool   `xml:"AllInvCode,attr,omitempty"`
}

type invInventory struct {
	StatusApplicationControl invStatusApplicationControl `xml:"ota:StatusApplicationControl"`
	InvCounts                invCounts                   `xml:"ota:InvCounts"`
}

type invInventories struct {
	HotelCode string         `xml:"HotelCode,attr"`
	Inventory []invInventory `xml:"ota:Inventory"`
}

type invNotifRQ struct {
	XMLName     xml.Name       `xml:"ota:OTA_HotelInvCountNotifRQ"`
	TimeStamp   string         `xml:"TimeStamp,attr"`
	EchoToken   string         `xml:"EchoToken,attr"`
	Version     string         `xml:"Version,attr"`
	IsOverlay   bool           `xml:"Overlay,attr,omitempty"`
	Inventories invInventories `xml:"ota:Inventories"`
}

// BuildInventory serializes a batch of InventoryItem records for one
// hotel into an OTA_HotelInvCountNotifRQ wrapped in a SOAP envelope.
// mode selects between a DELTA send (partial counts for the listed
// dates only) and an OVERLAY send (the listed counts fully replace
// whatever the CRS holds for the date range) — overlay is signaled by
// the Overlay attribute on the body root per spec.md §4.2.
func BuildInventory(items []domain.InventoryItem, mode domain.InventoryMode, schemaVersion, echoToken string, addr soapheader.Addressing, sec soapheader.Security, now time.Time) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("xmlbuild: inventory: at least one item is required")
	}

	hotelCode := items[0].HotelCode
	for i, item := range items {
		if item.HotelCode != hotelCode {
			return nil, fmt.Errorf("xmlbuild: inventory: item[%d] hotel code %q does not match batch hotel code %q", i, item.HotelCode, hotelCode)
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("xmlbuild: inventory: item[%d]: %w", i, err)
		}
	}

	invs := make([]invInventory, 0, len(items))
	for _, item := range items {
		counts := make([]invCount, 0, len(item.Counts))
		for _, ct := range sortedCountTypes(item.Counts) {
			counts = append(counts, invCount{CountType: int(ct), Count: item.Counts[ct]})
		}
		invs = append(invs, invInventory{
			StatusApplicationControl: invStatusApplicationControl{
				Start:       formatDate(item.StartDate),
				End:         formatDate(item.EndDate),
				InvTypeCode: item.RoomTypeCode,
				AllInvCode:  item.RoomTypeCode == "",
			},
			InvCounts: invCounts{InvCount: counts},
		})
	}

	root := invNotifRQ{
		TimeStamp: formatDateTime(now),
		EchoToken: echoToken,
		Version:   schemaVersion,
		IsOverlay: mode == domain.InventoryModeOverlay,
		Inventories: invInventories{
			HotelCode: hotelCode,
			Inventory: invs,
		},
	}

	header, err := soapheader.Build(addr, sec, hotelCode, string(domain.MessageTypeInventory), now)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: inventory: building header: %w", err)
	}

	return assemble(header, root)
}

func sortedCountTypes(counts map[domain.CountType]int) []domain.CountType {
	out := make([]domain.CountType, 0, len(counts))
	for ct := range counts {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
