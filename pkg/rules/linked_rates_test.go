package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

func TestValidateLinkedRates_MasterPresentPasses(t *testing.T) {
	plans := []domain.RatePlan{
		{PlanCode: "MASTER"},
		{PlanCode: "DERIVED", LinkedTo: "MASTER"},
	}
	assert.Empty(t, ValidateLinkedRates(plans, false))
}

func TestValidateLinkedRates_MissingMasterFails(t *testing.T) {
	plans := []domain.RatePlan{
		{PlanCode: "DERIVED", LinkedTo: "GHOST"},
	}
	violations := ValidateLinkedRates(plans, false)
	assert.Len(t, violations, 1)
	assert.Equal(t, "linked_rate_master_must_exist", violations[0].Rule)
}

func TestValidateLinkedRates_ExternalHandlingSkipsCheck(t *testing.T) {
	plans := []domain.RatePlan{
		{PlanCode: "DERIVED", LinkedTo: "GHOST"},
	}
	assert.Empty(t, ValidateLinkedRates(plans, true))
}
