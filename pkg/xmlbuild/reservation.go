package xmlbuild

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
)

type resGuestName struct {
	GivenName string `xml:"ota:GivenName"`
	Surname   string `xml:"ota:Surname"`
}

type resProfileInfo struct {
	Email     string       `xml:"ota:Email,omitempty"`
	Phone     string       `xml:"ota:Phone,omitempty"`
	GuestName resGuestName `xml:"ota:PersonName"`
}

type resRoomStay struct {
	Start        string  `xml:"Start,attr"`
	End          string  `xml:"End,attr"`
	RoomTypeCode string  `xml:"RoomTypeCode,attr"`
	RatePlanCode string  `xml:"RatePlanCode,attr"`
	Amount       float64 `xml:"AmountAfterTax,attr"`
	Adults       int     `xml:"AdultCount,attr"`
	Children     int     `xml:"ChildCount,attr,omitempty"`
	Infants      int     `xml:"InfantCount,attr,omitempty"`
}

type resRoomStays struct {
	RoomStay []resRoomStay `xml:"ota:RoomStay"`
}

type resServiceItem struct {
	Code string  `xml:"ServiceInventoryCode,attr"`
	Cost float64 `xml:"Cost,attr"`
}

type resServices struct {
	Service []resServiceItem `xml:"ota:Service"`
}

type resGuarantee struct {
	PaymentType string `xml:"PaymentType,attr"`
	CardType    string `xml:"CardType,attr,omitempty"`
	CardNumber  string `xml:"CardNumber,attr,omitempty"`
	ExpireDate  string `xml:"ExpireDate,attr,omitempty"`
}

type resProfile struct {
	AgencyIATA     string `xml:"ota:Agency>IATA,omitempty"`
	CorporateID    string `xml:"ota:Corporate>CorporateID,omitempty"`
	GroupBlockCode string `xml:"ota:GroupBlock>BlockCode,omitempty"`
}

type resGlobalInfo struct {
	Guarantee resGuarantee `xml:"ota:Guarantee"`
	Profile   resProfile   `xml:"ota:Profile"`
}

type hotelResRQ struct {
	XMLName            xml.Name        `xml:"ota:OTA_HotelResNotifRQ"`
	TimeStamp          string          `xml:"TimeStamp,attr"`
	ResStatus          string          `xml:"ResStatus,attr"`
	TransactionType    string          `xml:"TransactionType,attr"`
	HotelCode           string          `xml:"HotelCode,attr"`
	ConfirmationNumber string          `xml:"ota:UniqueID>ID,omitempty"`
	Primary            resProfileInfo  `xml:"ota:ResGuests>ota:ResGuest>ota:Profiles>ota:ProfileInfo"`
	RoomStays          resRoomStays    `xml:"ota:RoomStays"`
	Services           resServices     `xml:"ota:Services,omitempty"`
	GlobalInfo         resGlobalInfo   `xml:"ota:ResGlobalInfo"`
}

// BuildReservation serializes a Reservation into an OTA_HotelResNotifRQ
// wrapped in a SOAP envelope. A CANCEL transaction always carries the
// confirmation number (enforced by domain.Reservation.Validate, which is
// run here before any XML is produced).
func BuildReservation(res domain.Reservation, schemaVersion, echoToken string, addr soapheader.Addressing, sec soapheader.Security, now time.Time) ([]byte, error) {
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("xmlbuild: reservation: %w", err)
	}

	stays := make([]resRoomStay, 0, len(res.RoomStays))
	for _, rs := range res.RoomStays {
		stays = append(stays, resRoomStay{
			Start:        formatDate(rs.StartDate),
			End:          formatDate(rs.EndDate),
			RoomTypeCode: rs.RoomTypeCode,
			RatePlanCode: rs.RatePlanCode,
			Amount:       rs.Amount,
			Adults:       rs.Adults,
			Children:     rs.Children,
			Infants:      rs.Infants,
		})
	}

	services := make([]resServiceItem, 0, len(res.ServiceRequests))
	for _, sr := range res.ServiceRequests {
		services = append(services, resServiceItem{Code: sr.Code, Cost: sr.Cost})
	}

	var expireDate string
	if res.Payment.ExpiryMonth != 0 && res.Payment.ExpiryYear != 0 {
		expireDate = fmt.Sprintf("%02d%02d", res.Payment.ExpiryMonth, res.Payment.ExpiryYear%100)
	}

	root := hotelResRQ{
		TimeStamp:          formatDateTime(now),
		ResStatus:          string(res.TransactionType),
		TransactionType:    string(res.TransactionType),
		HotelCode:          res.HotelCode,
		ConfirmationNumber: res.ConfirmationNumber,
		Primary: resProfileInfo{
			Email: res.Primary.Email,
			Phone: res.Primary.Phone,
			GuestName: resGuestName{
				GivenName: normalizeText(res.Primary.GivenName),
				Surname:   normalizeText(res.Primary.Surname),
			},
		},
		RoomStays: resRoomStays{RoomStay: stays},
		Services:  resServices{Service: services},
		GlobalInfo: resGlobalInfo{
			Guarantee: resGuarantee{
				PaymentType: res.Payment.PaymentType,
				CardType:    res.Payment.CardType,
				CardNumber:  res.Payment.CardNumber,
				ExpireDate:  expireDate,
			},
			Profile: resProfile{
				AgencyIATA:     res.Profiles.AgencyIATA,
				CorporateID:    res.Profiles.CorporateID,
				GroupBlockCode: res.Profiles.GroupBlockCode,
			},
		},
	}

	header, err := soapheader.Build(addr, sec, res.HotelCode, string(domain.MessageTypeReservation), now)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: reservation: building header: %w", err)
	}

	return assemble(header, root)
}
