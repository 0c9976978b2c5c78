package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

func TestSplit_InventoryUnderBatchSizeStaysOneJob(t *testing.T) {
	template := Job{
		PropertyID: "prop-1",
		Type:       domain.MessageTypeInventory,
		InventoryItems: []domain.InventoryItem{
			{HotelCode: "HOTEL1"}, {HotelCode: "HOTEL1"},
		},
	}
	jobs, err := Split(template, domain.PropertyConfig{}, time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0].InventoryItems, 2)
	assert.NotEmpty(t, jobs[0].BatchID)
	assert.NotEmpty(t, jobs[0].ID)
}

func TestSplit_InventoryOverBatchSizeSplitsAndSharesBatchID(t *testing.T) {
	items := make([]domain.InventoryItem, 250)
	for i := range items {
		items[i] = domain.InventoryItem{HotelCode: "HOTEL1"}
	}
	template := Job{PropertyID: "prop-1", Type: domain.MessageTypeInventory, InventoryItems: items}

	jobs, err := Split(template, domain.PropertyConfig{}, time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Len(t, jobs[0].InventoryItems, 100)
	assert.Len(t, jobs[1].InventoryItems, 100)
	assert.Len(t, jobs[2].InventoryItems, 50)

	for _, j := range jobs {
		assert.Equal(t, jobs[0].BatchID, j.BatchID)
	}
	assert.NotEqual(t, jobs[0].ID, jobs[1].ID)
}

func TestSplit_RespectsPerPropertyBatchSizeOverride(t *testing.T) {
	items := make([]domain.InventoryItem, 25)
	template := Job{PropertyID: "prop-1", Type: domain.MessageTypeInventory, InventoryItems: items}
	cfg := domain.PropertyConfig{BatchSizes: map[domain.MessageType]int{domain.MessageTypeInventory: 10}}

	jobs, err := Split(template, cfg, time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Len(t, jobs[0].InventoryItems, 10)
	assert.Len(t, jobs[1].InventoryItems, 10)
	assert.Len(t, jobs[2].InventoryItems, 5)
}

func TestSplit_RatesOverBatchSizeSplits(t *testing.T) {
	plans := make([]domain.RatePlan, 120)
	template := Job{PropertyID: "prop-1", Type: domain.MessageTypeRates, RatePlans: plans}

	jobs, err := Split(template, domain.PropertyConfig{}, time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Len(t, jobs[0].RatePlans, 50)
	assert.Len(t, jobs[2].RatePlans, 20)
}

func TestSplit_ReservationPassesThroughAsSingleJob(t *testing.T) {
	template := Job{
		PropertyID:  "prop-1",
		Type:        domain.MessageTypeReservation,
		Reservation: &domain.Reservation{},
	}
	jobs, err := Split(template, domain.PropertyConfig{}, time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestSplit_ReservationWithoutPayloadErrors(t *testing.T) {
	template := Job{PropertyID: "prop-1", Type: domain.MessageTypeReservation}
	_, err := Split(template, domain.PropertyConfig{}, time.Now())
	assert.Error(t, err)
}

func TestSplit_UnsupportedTypeErrors(t *testing.T) {
	template := Job{PropertyID: "prop-1", Type: domain.MessageTypeResponse}
	_, err := Split(template, domain.PropertyConfig{}, time.Now())
	assert.Error(t, err)
}

func TestBatchSizeFor_DefaultsAndOverride(t *testing.T) {
	assert.Equal(t, DefaultInventoryBatchSize, batchSizeFor(domain.PropertyConfig{}, domain.MessageTypeInventory))
	assert.Equal(t, DefaultRateBatchSize, batchSizeFor(domain.PropertyConfig{}, domain.MessageTypeRates))

	cfg := domain.PropertyConfig{BatchSizes: map[domain.MessageType]int{domain.MessageTypeRates: 5}}
	assert.Equal(t, 5, batchSizeFor(cfg, domain.MessageTypeRates))
}
