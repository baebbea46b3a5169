package scheduler

import (
	"sort"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

// scheduledSlots returns the slots with a complete interval sorted by start, then end, then ID
func scheduledSlots(s *ScheduleState) []*models.InterventionSlot {
	slots := make([]*models.InterventionSlot, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.Scheduled() {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i].Interval, slots[j].Interval
		if c := a.Start.Compare(b.Start); c != 0 {
			return c < 0
		}
		if c := a.End.Compare(b.End); c != 0 {
			return c < 0
		}
		return slots[i].InterventionID < slots[j].InterventionID
	})
	return slots
}

// DeriveExecutionOrder ranks every scheduled slot 1..N by start date, breaking ties
// by end date. Slots without a complete interval get no rank.
func DeriveExecutionOrder(s *ScheduleState) models.ExecutionOrder {
	slots := scheduledSlots(s)
	order := make(models.ExecutionOrder, len(slots))
	for i, slot := range slots {
		order[slot.InterventionID] = i + 1
	}
	return order
}
