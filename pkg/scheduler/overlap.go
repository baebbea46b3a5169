package scheduler

import (
	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

// Overlaps reports whether two intervals share at least one calendar day.
// Both ends are inclusive, so intervals touching on a boundary day overlap.
func Overlaps(a, b models.Interval) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// WouldOverlapWithOthers checks the proposed interval against every other scheduled slot
func WouldOverlapWithOthers(s *ScheduleState, id string, iv models.Interval) bool {
	return s.firstOverlap(id, iv) != nil
}

// firstOverlap returns the earliest scheduled slot (other than id) that iv overlaps
func (s *ScheduleState) firstOverlap(id string, iv models.Interval) *models.InterventionSlot {
	for _, other := range scheduledSlots(s) {
		if other.InterventionID == id {
			continue
		}
		if Overlaps(iv, *other.Interval) {
			return other
		}
	}
	return nil
}

// FindFirstOverlappingPair scans every pair of scheduled slots in execution order
// and returns the IDs of the first pair that overlaps.
func FindFirstOverlappingPair(s *ScheduleState) (string, string, bool) {
	slots := scheduledSlots(s)
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if Overlaps(*slots[i].Interval, *slots[j].Interval) {
				return slots[i].InterventionID, slots[j].InterventionID, true
			}
		}
	}
	return "", "", false
}
