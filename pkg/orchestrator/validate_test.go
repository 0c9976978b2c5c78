package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/rules"
)

func TestValidateJob_ValidInventoryPasses(t *testing.T) {
	job := Job{
		ID: "j1", PropertyID: "prop-1", Type: domain.MessageTypeInventory,
		InventoryItems: []domain.InventoryItem{
			{
				HotelCode: "HOTEL1", RoomTypeCode: "KING",
				StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 1),
				Counts: map[domain.CountType]int{domain.CountTypeAvailable: 10},
			},
		},
	}
	assert.Nil(t, validateJob(job, domain.PropertyConfig{}, nil))
}

func TestValidateJob_InvalidInventoryItemProducesViolation(t *testing.T) {
	job := Job{
		ID: "j1", PropertyID: "prop-1", Type: domain.MessageTypeInventory,
		InventoryItems: []domain.InventoryItem{
			{HotelCode: "HOTEL1", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, -1)},
		},
	}
	errKind := validateJob(job, domain.PropertyConfig{}, nil)
	require.NotNil(t, errKind)
	assert.Equal(t, domain.ErrorKindValidation, errKind.Kind)
	require.Len(t, errKind.InvalidFields, 1)
	assert.Equal(t, "inventory_items[0]", errKind.InvalidFields[0].Field)
}

func TestValidateJob_LinkedRateMasterMissingProducesViolation(t *testing.T) {
	job := Job{
		ID: "j1", PropertyID: "prop-1", Type: domain.MessageTypeRates,
		RatePlans: []domain.RatePlan{
			{PlanCode: "DERIVED", LinkedTo: "MISSING_MASTER"},
		},
	}
	errKind := validateJob(job, domain.PropertyConfig{}, nil)
	require.NotNil(t, errKind)
	assert.Equal(t, "linked_to", errKind.InvalidFields[0].Field)
}

func TestValidateJob_LinkedRateCheckWaivedWhenExternalHandlesIt(t *testing.T) {
	job := Job{
		ID: "j1", PropertyID: "prop-1", Type: domain.MessageTypeRates,
		RatePlans: []domain.RatePlan{
			{PlanCode: "DERIVED", LinkedTo: "MISSING_MASTER"},
		},
	}
	cfg := domain.PropertyConfig{ExternalSystemHandlesLinkedRates: true}
	assert.Nil(t, validateJob(job, cfg, nil))
}

func TestValidateJob_ReservationRequiresPayload(t *testing.T) {
	job := Job{ID: "j1", PropertyID: "prop-1", Type: domain.MessageTypeReservation}
	errKind := validateJob(job, domain.PropertyConfig{}, nil)
	require.NotNil(t, errKind)
	assert.Equal(t, "reservation", errKind.InvalidFields[0].Field)
}

func TestValidateJob_CustomRuleViolationIsAppended(t *testing.T) {
	engine, err := rules.NewEngine([]rules.RuleSpec{
		{Name: "min_items", Expression: "input.item_count >= 5", FailMessage: "at least 5 items required"},
	})
	require.NoError(t, err)

	job := Job{
		ID: "j1", PropertyID: "prop-1", Type: domain.MessageTypeInventory,
		InventoryItems: []domain.InventoryItem{
			{
				HotelCode: "HOTEL1", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 1),
				Counts: map[domain.CountType]int{domain.CountTypeAvailable: 1},
			},
		},
	}
	errKind := validateJob(job, domain.PropertyConfig{}, engine)
	require.NotNil(t, errKind)
	var sawCustom bool
	for _, v := range errKind.InvalidFields {
		if v.Field == "min_items" {
			sawCustom = true
		}
	}
	assert.True(t, sawCustom)
}

func TestValidateJob_RestrictionsRequireAtLeastOneItem(t *testing.T) {
	job := Job{ID: "j1", PropertyID: "prop-1", Type: domain.MessageTypeRestrictions}
	errKind := validateJob(job, domain.PropertyConfig{}, nil)
	require.NotNil(t, errKind)
	assert.Equal(t, "restrictions", errKind.InvalidFields[0].Field)
}
