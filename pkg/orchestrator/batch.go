package orchestrator

import (
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/msgid"
)

// Default per-MessageType batch ceilings, overridable per property via
// domain.PropertyConfig.BatchSizes (spec.md §4.8).
const (
	DefaultInventoryBatchSize = 100
	DefaultRateBatchSize      = 50
)

func batchSizeFor(cfg domain.PropertyConfig, mt domain.MessageType) int {
	if n, ok := cfg.BatchSizes[mt]; ok && n > 0 {
		return n
	}
	switch mt {
	case domain.MessageTypeInventory:
		return DefaultInventoryBatchSize
	case domain.MessageTypeRates:
		return DefaultRateBatchSize
	default:
		return 0 // unbounded: reservation/restriction/group-block jobs are not split
	}
}

// Split breaks a single logical outbound request into one or more Jobs,
// splitting InventoryItems/RatePlans into sub-batches no larger than the
// configured batch size and stamping every resulting Job with a shared
// BatchID (spec.md §4.8: "splits into sub-batches sharing a batch-id").
// Jobs whose Type is not subject to batching (reservation, restriction,
// group-block) pass through as a single Job.
//
// Callers that rely on pkg/rules.ValidateLinkedRates should place a
// linked plan in the same sub-batch as its master (or keep the whole
// rate request under batchSize) — splitting is positional and does not
// special-case LinkedTo, so a master and its derived plan can land in
// different sub-batches if the caller's slice order interleaves them.
func Split(template Job, cfg domain.PropertyConfig, now time.Time) ([]Job, error) {
	batchID := msgid.Unique(template.PropertyID, string(template.Type))

	switch template.Type {
	case domain.MessageTypeInventory:
		return splitInventory(template, batchSizeFor(cfg, template.Type), batchID, now), nil
	case domain.MessageTypeRates:
		return splitRates(template, batchSizeFor(cfg, template.Type), batchID, now), nil
	case domain.MessageTypeReservation:
		if template.Reservation == nil {
			return nil, fmt.Errorf("orchestrator: split: reservation job has no Reservation payload")
		}
		return []Job{stampJob(template, batchID, now)}, nil
	case domain.MessageTypeRestrictions, domain.MessageTypeGroupBlock:
		return []Job{stampJob(template, batchID, now)}, nil
	default:
		return nil, fmt.Errorf("orchestrator: split: unsupported message type %q", template.Type)
	}
}

func stampJob(template Job, batchID string, now time.Time) Job {
	j := template
	j.BatchID = batchID
	j.ID = msgid.Timestamped(template.PropertyID, string(template.Type), now)
	j.CreatedAt = now
	return j
}

func splitInventory(template Job, batchSize int, batchID string, now time.Time) []Job {
	items := template.InventoryItems
	if batchSize <= 0 || len(items) <= batchSize {
		j := stampJob(template, batchID, now)
		j.InventoryItems = items
		return []Job{j}
	}

	var jobs []Job
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		j := stampJob(template, batchID, now)
		j.InventoryItems = items[start:end]
		jobs = append(jobs, j)
	}
	return jobs
}

func splitRates(template Job, batchSize int, batchID string, now time.Time) []Job {
	plans := template.RatePlans
	if batchSize <= 0 || len(plans) <= batchSize {
		j := stampJob(template, batchID, now)
		j.RatePlans = plans
		return []Job{j}
	}

	var jobs []Job
	for start := 0; start < len(plans); start += batchSize {
		end := start + batchSize
		if end > len(plans) {
			end = len(plans)
		}
		j := stampJob(template, batchID, now)
		j.RatePlans = plans[start:end]
		jobs = append(jobs, j)
	}
	return jobs
}
