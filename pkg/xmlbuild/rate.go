package xmlbuild

import (
	"encoding/xml"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
)

type rateBaseByGuestAmt struct {
	NumberOfGuests int     `xml:"NumberOfGuests,attr"`
	AmountAfterTax float64 `xml:"AmountAfterTax,attr"`
}

type rateBaseByGuestAmts struct {
	BaseByGuestAmt []rateBaseByGuestAmt `xml:"ota:BaseByGuestAmt"`
}

type rateRate struct {
	Start            string              `xml:"Start,attr"`
	End              string              `xml:"End,attr"`
	RoomTypeCode     string              `xml:"InvTypeCode,attr"`
	MarketCode       string              `xml:"MarketCode,attr,omitempty"`
	MaxGuestApplied  int                 `xml:"MaxGuestApplied,attr,omitempty"`
	IsCommissionable bool                `xml:"IsCommissionable,attr"`
	BaseByGuestAmts  rateBaseByGuestAmts `xml:"ota:BaseByGuestAmts"`
}

type rateOffset struct {
	LinkedRatePlanCode string   `xml:"LinkedRatePlanCode,attr"`
	Amount             *float64 `xml:"Amount,attr,omitempty"`
	Percent            *float64 `xml:"Percent,attr,omitempty"`
}

type ratePlanElem struct {
	RatePlanCode string      `xml:"RatePlanCode,attr"`
	CurrencyCode string      `xml:"CurrencyCode,attr"`
	Offset       *rateOffset `xml:"ota:Offset,omitempty"`
	Rates        []rateRate  `xml:"ota:Rates>ota:Rate"`
}

type ratePlans struct {
	HotelCode string         `xml:"HotelCode,attr"`
	RatePlan  []ratePlanElem `xml:"ota:RatePlan"`
}

type rateNotifRQ struct {
	XMLName       xml.Name  `xml:"ota:OTA_HotelRateNotifRQ"`
	TimeStamp     string    `xml:"TimeStamp,attr"`
	EchoToken     string    `xml:"EchoToken,attr"`
	Version       string    `xml:"Version,attr"`
	RateOperation string    `xml:"RateOperationType,attr"`
	RatePlans     ratePlans `xml:"ota:RatePlans"`
}

// RateBuildOptions configures how linked rate plans are rendered.
// ExpandLinked true means this gateway resolves each linked plan's master
// within the same batch, applies the plan's Amount/Percent offset to the
// master's GuestAmounts, and emits the result with full BaseByGuestAmts,
// same as a master plan; false means the external system computes linked
// rates and only the Offset is sent, per the
// `external_system_handles_linked_rates` configuration flag (spec.md
// §4.2).
type RateBuildOptions struct {
	Operation     domain.RateOperationType
	ExpandLinked  bool
	SchemaVersion string
	EchoToken     string
}

// BuildRate serializes a batch of RatePlan records for one hotel into an
// OTA_HotelRateNotifRQ wrapped in a SOAP envelope.
func BuildRate(hotelCode string, plans []domain.RatePlan, opts RateBuildOptions, addr soapheader.Addressing, sec soapheader.Security, now time.Time) ([]byte, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("xmlbuild: rate: at least one rate plan is required")
	}
	if opts.Operation == "" {
		opts.Operation = domain.RateOpUpdate
	}

	byCode := make(map[string]domain.RatePlan, len(plans))
	for _, p := range plans {
		byCode[p.PlanCode] = p
	}

	elems := make([]ratePlanElem, 0, len(plans))
	for i, plan := range plans {
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("xmlbuild: rate: plan[%d]: %w", i, err)
		}

		elem := ratePlanElem{
			RatePlanCode: plan.PlanCode,
			CurrencyCode: plan.Currency,
		}

		if plan.IsLinked() && !opts.ExpandLinked {
			elem.Offset = &rateOffset{
				LinkedRatePlanCode: plan.LinkedTo,
				Amount:             plan.OffsetAmount,
				Percent:            plan.OffsetPercent,
			}
			elems = append(elems, elem)
			continue
		}

		sourceRates := plan.Rates
		if plan.IsLinked() {
			master, ok := byCode[plan.LinkedTo]
			if !ok {
				return nil, fmt.Errorf("xmlbuild: rate: plan[%d] %s: linked master %s not present in batch", i, plan.PlanCode, plan.LinkedTo)
			}
			derived, err := expandLinkedRates(plan, master)
			if err != nil {
				return nil, fmt.Errorf("xmlbuild: rate: plan[%d] %s: %w", i, plan.PlanCode, err)
			}
			sourceRates = derived
		}

		rates := make([]rateRate, 0, len(sourceRates))
		for _, r := range sourceRates {
			amounts := make([]rateBaseByGuestAmt, 0, len(r.GuestAmounts))
			for _, ga := range sortedGuestAmounts(r.GuestAmounts) {
				amounts = append(amounts, rateBaseByGuestAmt{NumberOfGuests: ga.GuestCount, AmountAfterTax: ga.Amount})
			}
			rates = append(rates, rateRate{
				Start:            formatDate(r.StartDate),
				End:              formatDate(r.EndDate),
				RoomTypeCode:     r.RoomTypeCode,
				MarketCode:       r.MarketCode,
				MaxGuestApplied:  r.MaxGuests,
				IsCommissionable: r.Commissionable,
				BaseByGuestAmts:  rateBaseByGuestAmts{BaseByGuestAmt: amounts},
			})
		}
		elem.Rates = rates
		elems = append(elems, elem)
	}

	root := rateNotifRQ{
		TimeStamp:     formatDateTime(now),
		EchoToken:     opts.EchoToken,
		Version:       opts.SchemaVersion,
		RateOperation: string(opts.Operation),
		RatePlans: ratePlans{
			HotelCode: hotelCode,
			RatePlan:  elems,
		},
	}

	header, err := soapheader.Build(addr, sec, hotelCode, string(domain.MessageTypeRates), now)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: rate: building header: %w", err)
	}

	return assemble(header, root)
}

// expandLinkedRates computes a linked plan's own rate entries from its
// master's GuestAmounts and the plan's fixed Amount/Percent offset
// (spec.md §4.2's "expanded (calculated)" mode; seed scenario §8.3: a
// BAR=150.00 master and a -10% offset derive AAA=135.00). The master
// supplies the room-type/date structure; only the amounts are derived.
func expandLinkedRates(plan domain.RatePlan, master domain.RatePlan) ([]domain.RateEntry, error) {
	if len(master.Rates) == 0 {
		return nil, fmt.Errorf("master plan %s has no rates to derive from", master.PlanCode)
	}

	derived := make([]domain.RateEntry, 0, len(master.Rates))
	for _, mr := range master.Rates {
		amounts := make([]domain.GuestAmount, 0, len(mr.GuestAmounts))
		for _, ga := range mr.GuestAmounts {
			amounts = append(amounts, domain.GuestAmount{
				GuestCount: ga.GuestCount,
				Amount:     applyOffset(ga.Amount, plan.OffsetAmount, plan.OffsetPercent),
			})
		}
		derived = append(derived, domain.RateEntry{
			RoomTypeCode:   mr.RoomTypeCode,
			StartDate:      mr.StartDate,
			EndDate:        mr.EndDate,
			GuestAmounts:   amounts,
			Commissionable: mr.Commissionable,
			MarketCode:     mr.MarketCode,
			MaxGuests:      mr.MaxGuests,
			MealPlan:       mr.MealPlan,
		})
	}
	return derived, nil
}

// applyOffset derives one guest amount from its master value. Amount and
// Percent are mutually exclusive (domain.RatePlan.Validate enforces this);
// Percent is signed, e.g. -10 means 10% below the master.
func applyOffset(base float64, amount, percent *float64) float64 {
	switch {
	case amount != nil:
		return roundMoney(base + *amount)
	case percent != nil:
		return roundMoney(base * (1 + *percent/100))
	default:
		return base
	}
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedGuestAmounts(amounts []domain.GuestAmount) []domain.GuestAmount {
	out := make([]domain.GuestAmount, len(amounts))
	copy(out, amounts)
	sort.Slice(out, func(i, j int) bool { return out[i].GuestCount < out[j].GuestCount })
	return out
}
