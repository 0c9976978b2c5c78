package orchestrator

import (
	"fmt"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/rules"
)

// validateJob runs the VALIDATE step: per-item/plan §3 invariants, the
// batch-scoped linked-rate check, and any property-level CEL custom
// rules, collecting every violation into one ErrorKind rather than
// stopping at the first (spec.md §4.1's "issue-list" contract).
func validateJob(job Job, cfg domain.PropertyConfig, engine *rules.Engine) *domain.ErrorKind {
	var violations []domain.FieldViolation

	switch job.Type {
	case domain.MessageTypeInventory:
		for i, item := range job.InventoryItems {
			if err := item.Validate(); err != nil {
				violations = append(violations, domain.FieldViolation{
					Field: fmt.Sprintf("inventory_items[%d]", i), Rule: "inventory_item_invariant", Value: err.Error(),
				})
			}
		}
	case domain.MessageTypeRates:
		for i, plan := range job.RatePlans {
			if err := plan.Validate(); err != nil {
				violations = append(violations, domain.FieldViolation{
					Field: fmt.Sprintf("rate_plans[%d]", i), Rule: "rate_plan_invariant", Value: err.Error(),
				})
			}
		}
		violations = append(violations, rules.ValidateLinkedRates(job.RatePlans, cfg.ExternalSystemHandlesLinkedRates)...)
	case domain.MessageTypeReservation:
		if job.Reservation == nil {
			violations = append(violations, domain.FieldViolation{Field: "reservation", Rule: "required", Value: nil})
		} else if err := job.Reservation.Validate(); err != nil {
			violations = append(violations, domain.FieldViolation{Field: "reservation", Rule: "reservation_invariant", Value: err.Error()})
		}
	case domain.MessageTypeRestrictions:
		if len(job.Restrictions) == 0 {
			violations = append(violations, domain.FieldViolation{Field: "restrictions", Rule: "non_empty", Value: nil})
		}
	case domain.MessageTypeGroupBlock:
		if len(job.GroupBlockItems) == 0 {
			violations = append(violations, domain.FieldViolation{Field: "group_block_items", Rule: "non_empty", Value: nil})
		}
	}

	if engine != nil && engine.Count() > 0 {
		violations = append(violations, engine.Evaluate(jobInput(job))...)
	}

	if len(violations) == 0 {
		return nil
	}
	return domain.NewErrorKind(domain.ErrorKindValidation,
		fmt.Sprintf("job %s (%s/%s) failed validation", job.ID, job.PropertyID, job.Type), nil).
		WithFieldViolations(nil, violations...)
}

// jobInput projects a Job into the generic field map a custom CEL rule
// expression evaluates against.
func jobInput(job Job) map[string]any {
	input := map[string]any{
		"property_id":  job.PropertyID,
		"message_type": string(job.Type),
	}
	switch job.Type {
	case domain.MessageTypeInventory:
		input["item_count"] = len(job.InventoryItems)
	case domain.MessageTypeRates:
		input["plan_count"] = len(job.RatePlans)
	case domain.MessageTypeReservation:
		if job.Reservation != nil {
			input["transaction_type"] = string(job.Reservation.TransactionType)
			input["room_stay_count"] = len(job.Reservation.RoomStays)
		}
	}
	return input
}
