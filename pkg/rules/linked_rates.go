package rules

import (
	"fmt"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// ValidateLinkedRates enforces the batch-scoped invariant that
// pkg/domain/rate.go's RatePlan.Validate defers here: every plan whose
// LinkedTo names a master plan-code must have that master present in the
// same batch, unless externalHandlesLinked is set (config flag
// `external_system_handles_linked_rates`, spec.md §4.2) — in which case
// linked plans are the CRS's problem to resolve and are not checked.
func ValidateLinkedRates(plans []domain.RatePlan, externalHandlesLinked bool) []domain.FieldViolation {
	if externalHandlesLinked {
		return nil
	}

	present := make(map[string]bool, len(plans))
	for _, p := range plans {
		present[p.PlanCode] = true
	}

	var violations []domain.FieldViolation
	for _, p := range plans {
		if !p.IsLinked() {
			continue
		}
		if !present[p.LinkedTo] {
			violations = append(violations, domain.FieldViolation{
				Field: "linked_to",
				Rule:  "linked_rate_master_must_exist",
				Value: fmt.Sprintf("plan %s links to missing master %s", p.PlanCode, p.LinkedTo),
			})
		}
	}
	return violations
}
