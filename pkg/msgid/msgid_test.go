package msgid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	id := Unique("HOTEL001", "INVENTORY")
	assert.True(t, IsValid(id))

	parsed, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "HOTEL001", parsed.HotelID)
	assert.Equal(t, "INVENTORY", parsed.MessageType)
}

func TestTimestamped(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 500_000_000, time.UTC)
	id := Timestamped("HOTEL001", "RATES", now)
	assert.Contains(t, id, "20260731T120000500")
	assert.True(t, IsValid(id))
}

func TestIdempotentIsDeterministic(t *testing.T) {
	payload := []byte("<OTA_HotelInvCountNotifRQ/>")
	a := Idempotent("HOTEL001", "INVENTORY", payload)
	b := Idempotent("HOTEL001", "INVENTORY", payload)
	assert.Equal(t, a, b)

	c := Idempotent("HOTEL001", "INVENTORY", []byte("<different/>"))
	assert.NotEqual(t, a, c)
}

func TestParseRejectsGarbage(t *testing.T) {
	assert.False(t, IsValid("not-a-message-id"))
	_, err := Parse("garbage")
	assert.Error(t, err)
}

func TestParseRoundTrip_HotelCodeContainsHyphen(t *testing.T) {
	id := Unique("HOTEL-001", "RATES")
	assert.True(t, IsValid(id))

	parsed, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "HOTEL-001", parsed.HotelID)
	assert.Equal(t, "RATES", parsed.MessageType)
}
