package xmlbuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

func sampleRatePlan(planCode string, linkedTo string) domain.RatePlan {
	amt := 10.0
	plan := domain.RatePlan{
		PlanCode: planCode,
		Currency: "USD",
		LinkedTo: linkedTo,
		Rates: []domain.RateEntry{
			{
				RoomTypeCode: "KING",
				StartDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
				EndDate:      time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
				GuestAmounts: []domain.GuestAmount{{GuestCount: 1, Amount: 100}, {GuestCount: 2, Amount: 120}},
			},
		},
	}
	if linkedTo != "" {
		plan.OffsetAmount = &amt
	}
	return plan
}

func TestBuildRate_MasterPlan(t *testing.T) {
	addr, sec := sampleAddrSec()
	plan := sampleRatePlan("RACK", "")

	out, err := BuildRate("HOTEL1", []domain.RatePlan{plan}, RateBuildOptions{Operation: domain.RateOpUpdate, SchemaVersion: "1.003", EchoToken: "ECHO"}, addr, sec, time.Now())
	require.NoError(t, err)
	xml := string(out)
	assert.Contains(t, xml, "OTA_HotelRateNotifRQ")
	assert.Contains(t, xml, `RatePlanCode="RACK"`)
	assert.Contains(t, xml, `NumberOfGuests="1"`)
}

func TestBuildRate_LinkedFiltered(t *testing.T) {
	addr, sec := sampleAddrSec()
	plan := sampleRatePlan("AAA", "RACK")

	out, err := BuildRate("HOTEL1", []domain.RatePlan{plan}, RateBuildOptions{ExpandLinked: false, SchemaVersion: "1.003", EchoToken: "ECHO"}, addr, sec, time.Now())
	require.NoError(t, err)
	xml := string(out)
	assert.Contains(t, xml, `LinkedRatePlanCode="RACK"`)
	assert.NotContains(t, xml, "BaseByGuestAmts")
}

func TestBuildRate_LinkedExpanded_ComputesAmountsFromMaster(t *testing.T) {
	addr, sec := sampleAddrSec()
	pct := -10.0
	master := domain.RatePlan{
		PlanCode: "BAR",
		Currency: "USD",
		Rates: []domain.RateEntry{
			{
				RoomTypeCode: "KING",
				StartDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
				EndDate:      time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
				GuestAmounts: []domain.GuestAmount{{GuestCount: 1, Amount: 150}, {GuestCount: 2, Amount: 170}},
			},
		},
	}
	linked := domain.RatePlan{
		PlanCode:      "AAA",
		Currency:      "USD",
		LinkedTo:      "BAR",
		OffsetPercent: &pct,
	}

	out, err := BuildRate("HOTEL1", []domain.RatePlan{master, linked}, RateBuildOptions{ExpandLinked: true, SchemaVersion: "1.003", EchoToken: "ECHO"}, addr, sec, time.Now())
	require.NoError(t, err)
	xml := string(out)

	// BAR=150.00 with a -10% offset derives AAA=135.00 (spec seed scenario §8.3).
	assert.Contains(t, xml, `RatePlanCode="AAA"`)
	assert.Contains(t, xml, `AmountAfterTax="135"`)
	assert.Contains(t, xml, `AmountAfterTax="153"`)
	// The master itself is untouched.
	assert.Contains(t, xml, `AmountAfterTax="150"`)
	assert.Contains(t, xml, `AmountAfterTax="170"`)
}

func TestBuildRate_LinkedExpanded_AmountOffset(t *testing.T) {
	addr, sec := sampleAddrSec()
	amt := -15.0
	master := domain.RatePlan{
		PlanCode: "BAR",
		Currency: "USD",
		Rates: []domain.RateEntry{
			{
				RoomTypeCode: "KING",
				StartDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
				EndDate:      time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
				GuestAmounts: []domain.GuestAmount{{GuestCount: 1, Amount: 150}, {GuestCount: 2, Amount: 170}},
			},
		},
	}
	linked := domain.RatePlan{
		PlanCode:     "AARP",
		Currency:     "USD",
		LinkedTo:     "BAR",
		OffsetAmount: &amt,
	}

	out, err := BuildRate("HOTEL1", []domain.RatePlan{master, linked}, RateBuildOptions{ExpandLinked: true, SchemaVersion: "1.003", EchoToken: "ECHO"}, addr, sec, time.Now())
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `AmountAfterTax="135"`)
	assert.Contains(t, xml, `AmountAfterTax="155"`)
}

func TestBuildRate_LinkedExpanded_MissingMasterErrors(t *testing.T) {
	addr, sec := sampleAddrSec()
	plan := sampleRatePlan("AAA", "RACK")

	_, err := BuildRate("HOTEL1", []domain.RatePlan{plan}, RateBuildOptions{ExpandLinked: true, SchemaVersion: "1.003", EchoToken: "ECHO"}, addr, sec, time.Now())
	assert.Error(t, err)
}

func TestBuildRate_RejectsMissingMandatoryAmounts(t *testing.T) {
	addr, sec := sampleAddrSec()
	plan := domain.RatePlan{
		PlanCode: "BAD",
		Currency: "USD",
		Rates: []domain.RateEntry{
			{RoomTypeCode: "KING", StartDate: time.Now(), EndDate: time.Now(), GuestAmounts: []domain.GuestAmount{{GuestCount: 1, Amount: 100}}},
		},
	}

	_, err := BuildRate("HOTEL1", []domain.RatePlan{plan}, RateBuildOptions{SchemaVersion: "1.003"}, addr, sec, time.Now())
	assert.Error(t, err)
}
