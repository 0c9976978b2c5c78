package orchestrator

import (
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlbuild"
)

// Priority orders contending Jobs for the same (property, message-type)
// pair only loosely: a PriorityHigh caller of Locker.Acquire polls for the
// lock more often than a PriorityNormal one, so it usually takes the next
// free slot, but there is no wait queue, so the order is not guaranteed.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// Job is one outbound unit of work: a single MessageType for a single
// property, carrying exactly the typed payload its Type calls for. A
// request that exceeds the per-type batch limit is split by Submit into
// several Jobs sharing one BatchID (spec.md §4.8).
type Job struct {
	ID            string
	PropertyID    string
	Type          domain.MessageType
	Priority      Priority
	BatchID       string
	CorrelationID string
	CreatedAt     time.Time

	InventoryItems []domain.InventoryItem
	InventoryMode  domain.InventoryMode

	RatePlans     []domain.RatePlan
	RateOperation domain.RateOperationType

	Reservation *domain.Reservation

	Restrictions []xmlbuild.RestrictionItem

	GroupBlockCode  string
	GroupBlockItems []xmlbuild.GroupBlockItem
}

// recordCount reports how many underlying records this Job carries, for
// the sync-status health aggregate's records_total/records_processed
// fields.
func (j Job) recordCount() int64 {
	switch j.Type {
	case domain.MessageTypeInventory:
		return int64(len(j.InventoryItems))
	case domain.MessageTypeRates:
		return int64(len(j.RatePlans))
	case domain.MessageTypeReservation:
		return 1
	case domain.MessageTypeRestrictions:
		return int64(len(j.Restrictions))
	case domain.MessageTypeGroupBlock:
		return int64(len(j.GroupBlockItems))
	default:
		return 0
	}
}
