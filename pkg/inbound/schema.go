package inbound

import (
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlvalidate"
)

// schemas registers the structural rules stage two of spec.md §4.3
// checks an inbound body against, one xmlvalidate.Schema per MessageType.
// HotelCode lives on a different element for each message family (root
// attribute for Reservation, a nested child's attribute for the other
// four, per pkg/xmlbuild's wire shapes), so the rule paths vary per
// schema rather than sharing one template.
var schemas = map[domain.MessageType]xmlvalidate.Schema{
	domain.MessageTypeInventory: {
		RootElement: "OTA_HotelInvCountNotifRQ",
		Rules: []xmlvalidate.ElementRule{
			{Path: "OTA_HotelInvCountNotifRQ.Inventories", Required: true, RequiredAttributes: []string{"HotelCode"}},
			{Path: "OTA_HotelInvCountNotifRQ.Inventories.Inventory", Required: true},
		},
	},
	domain.MessageTypeRates: {
		RootElement: "OTA_HotelRateNotifRQ",
		Rules: []xmlvalidate.ElementRule{
			{Path: "OTA_HotelRateNotifRQ.RatePlans", Required: true, RequiredAttributes: []string{"HotelCode"}},
			{Path: "OTA_HotelRateNotifRQ.RatePlans.RatePlan", Required: true},
		},
	},
	domain.MessageTypeReservation: {
		RootElement: "OTA_HotelResNotifRQ",
		Rules: []xmlvalidate.ElementRule{
			{Path: "OTA_HotelResNotifRQ", Required: true, RequiredAttributes: []string{"HotelCode", "TransactionType"}},
			{Path: "OTA_HotelResNotifRQ.RoomStays", Required: true},
		},
	},
	domain.MessageTypeRestrictions: {
		RootElement: "OTA_HotelAvailNotifRQ",
		Rules: []xmlvalidate.ElementRule{
			{Path: "OTA_HotelAvailNotifRQ.AvailStatusMessages", Required: true, RequiredAttributes: []string{"HotelCode"}},
		},
	},
	domain.MessageTypeGroupBlock: {
		RootElement: "OTA_HotelInvBlockNotifRQ",
		Rules: []xmlvalidate.ElementRule{
			{Path: "OTA_HotelInvBlockNotifRQ.InvBlocks", Required: true},
			{Path: "OTA_HotelInvBlockNotifRQ.InvBlocks.InvBlock", Required: true, RequiredAttributes: []string{"HotelCode", "BlockID"}},
		},
	},
}

// schemaFor returns the registered structural schema for mt, and whether
// one is registered; UNKNOWN and RESPONSE have none since they never
// reach structural validation (classify already rejects the former, the
// latter is never an inbound request type).
func schemaFor(mt domain.MessageType) (xmlvalidate.Schema, bool) {
	s, ok := schemas[mt]
	return s, ok
}
