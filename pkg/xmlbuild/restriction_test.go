package xmlbuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRestriction(t *testing.T) {
	addr, sec := sampleAddrSec()
	items := []RestrictionItem{
		{
			HotelCode:       "HOTEL1",
			RoomTypeCode:    "KING",
			RatePlanCode:    "RACK",
			StartDate:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
			MinLOS:          2,
			ClosedToArrival: true,
		},
	}

	out, err := BuildRestriction(items, "1.003", "ECHO", addr, sec, time.Now())
	require.NoError(t, err)
	xml := string(out)
	assert.Contains(t, xml, "OTA_HotelAvailNotifRQ")
	assert.Contains(t, xml, `MinLOS="2"`)
	assert.Contains(t, xml, `Arrival="true"`)
}

func TestBuildRestriction_RejectsBadDateRange(t *testing.T) {
	addr, sec := sampleAddrSec()
	items := []RestrictionItem{
		{HotelCode: "HOTEL1", StartDate: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}

	_, err := BuildRestriction(items, "1.003", "ECHO", addr, sec, time.Now())
	assert.Error(t, err)
}
