package domain

import (
	"fmt"
	"time"
)

// GuestAmount is a per-occupancy rate amount (1st adult, 2nd adult, ...).
type GuestAmount struct {
	GuestCount int
	Amount     float64
}

// RateEntry is one room-type/date-range rate line within a RatePlan.
type RateEntry struct {
	RoomTypeCode   string
	StartDate      time.Time
	EndDate        time.Time
	GuestAmounts   []GuestAmount
	Commissionable bool
	MarketCode     string
	MaxGuests      int
	MealPlan       string
}

// FirstAdultAmount returns the mandatory 1st-adult amount, or (0, false)
// if absent.
func (r RateEntry) FirstAdultAmount() (float64, bool) {
	return r.amountFor(1)
}

// SecondAdultAmount returns the mandatory 2nd-adult amount, or (0, false)
// if absent.
func (r RateEntry) SecondAdultAmount() (float64, bool) {
	return r.amountFor(2)
}

func (r RateEntry) amountFor(guestCount int) (float64, bool) {
	for _, ga := range r.GuestAmounts {
		if ga.GuestCount == guestCount {
			return ga.Amount, true
		}
	}
	return 0, false
}

// RatePlan is a rate plan batch item (spec.md §3). Offset fields are
// mutually exclusive and only meaningful when LinkedTo is set.
type RatePlan struct {
	PlanCode      string
	Currency      string // ISO 4217
	LinkedTo      string // optional master plan-code
	OffsetAmount  *float64
	OffsetPercent *float64
	Rates         []RateEntry
}

// Validate enforces spec.md §3's RatePlan invariants for a single plan in
// isolation (the linked-to-master-exists check is batch-scoped and lives in
// pkg/rules, since it requires knowledge of sibling plans).
func (p RatePlan) Validate() error {
	if p.OffsetAmount != nil && p.OffsetPercent != nil {
		return fmt.Errorf("rate plan %s: offset_amount and offset_percent are mutually exclusive", p.PlanCode)
	}
	for i, r := range p.Rates {
		if _, ok := r.FirstAdultAmount(); !ok {
			return fmt.Errorf("rate plan %s: rate[%d] missing mandatory 1st-adult amount", p.PlanCode, i)
		}
		if _, ok := r.SecondAdultAmount(); !ok {
			return fmt.Errorf("rate plan %s: rate[%d] missing mandatory 2nd-adult amount", p.PlanCode, i)
		}
		for _, ga := range r.GuestAmounts {
			if ga.Amount < 0 {
				return fmt.Errorf("rate plan %s: rate[%d] has negative amount %.2f", p.PlanCode, i, ga.Amount)
			}
		}
		if r.EndDate.Before(r.StartDate) {
			return fmt.Errorf("rate plan %s: rate[%d] end-date before start-date", p.PlanCode, i)
		}
	}
	return nil
}

// IsLinked reports whether this plan derives from a master plan.
func (p RatePlan) IsLinked() bool { return p.LinkedTo != "" }
