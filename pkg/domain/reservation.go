package domain

import (
	"fmt"
	"time"
)

// Guest is a reservation occupant.
type Guest struct {
	GivenName  string
	Surname    string
	Email      string
	Phone      string
	IsPrimary  bool
}

// RoomStay is one per-night room/rate/occupancy line.
type RoomStay struct {
	StartDate    time.Time
	EndDate      time.Time
	RoomTypeCode string
	RatePlanCode string
	Amount       float64
	Adults       int
	Children     int
	Infants      int
}

// ServiceRequest is a priced ancillary request.
type ServiceRequest struct {
	Code string
	Cost float64
}

// Payment carries guarantee/payment instructions. xmlbuild.BuildReservation
// writes CardType, CardNumber and the expiry into the outbound XML as
// given, and pkg/audit stores that request XML without redacting them.
type Payment struct {
	PaymentType string // e.g. "CREDIT_CARD", "AGENCY_BILLING", "CASH"
	CardType    string
	CardNumber  string
	ExpiryMonth int
	ExpiryYear  int
}

// ProfileReferences links a reservation to agency/corporate/group profiles.
type ProfileReferences struct {
	AgencyIATA      string
	CorporateID     string
	GroupBlockCode  string
}

// Reservation is the OTA_HotelResNotifRQ DTO (spec.md §3).
type Reservation struct {
	ConfirmationNumber string // optional on create
	TransactionType    ReservationTransactionType
	ReservationType    ReservationType
	HotelCode          string
	Primary            Guest
	AdditionalGuests   []Guest
	RoomStays          []RoomStay
	SpecialRequests    []string
	ServiceRequests    []ServiceRequest
	Payment            Payment
	Profiles           ProfileReferences
}

// Arrival returns the earliest room-stay start date.
func (r Reservation) Arrival() time.Time {
	var earliest time.Time
	for _, rs := range r.RoomStays {
		if earliest.IsZero() || rs.StartDate.Before(earliest) {
			earliest = rs.StartDate
		}
	}
	return earliest
}

// Departure returns the latest room-stay end date.
func (r Reservation) Departure() time.Time {
	var latest time.Time
	for _, rs := range r.RoomStays {
		if rs.EndDate.After(latest) {
			latest = rs.EndDate
		}
	}
	return latest
}

// Validate enforces spec.md §3's Reservation invariants.
func (r Reservation) Validate() error {
	if len(r.RoomStays) == 0 {
		return fmt.Errorf("reservation: at least one room stay is required")
	}
	if r.Arrival().After(r.Departure()) {
		return fmt.Errorf("reservation: arrival %s is after departure %s", r.Arrival(), r.Departure())
	}
	switch r.ReservationType {
	case ReservationTypeTravelAgency:
		if r.Profiles.AgencyIATA == "" {
			return fmt.Errorf("reservation: TRAVEL_AGENCY requires an agency profile (IATA number)")
		}
	case ReservationTypeCorporate:
		if r.Profiles.CorporateID == "" {
			return fmt.Errorf("reservation: CORPORATE requires a corporate profile id")
		}
	case ReservationTypeGroup:
		if r.Profiles.GroupBlockCode == "" {
			return fmt.Errorf("reservation: GROUP requires a group-block reference")
		}
	}
	if r.TransactionType == TransactionModify || r.TransactionType == TransactionCancel {
		if r.ConfirmationNumber == "" {
			return fmt.Errorf("reservation: %s requires a confirmation number", r.TransactionType)
		}
	}
	return nil
}
