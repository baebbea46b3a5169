package scheduler

import (
	"iter"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

// CandidateStartOptions yields every calendar day of the window, both ends included.
// The sequence can be ranged over any number of times.
func CandidateStartOptions(window models.TaskWindow) iter.Seq[models.Date] {
	return func(yield func(models.Date) bool) {
		for d := window.Start; !d.After(window.End); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// LatestAllowedEnd returns the latest end E such that [start, E] stays inside the
// window and shares no day with any other scheduled slot. The second result is
// false when no end works, meaning start itself must not be offered.
//
// Only the slots as currently committed are considered; no alternative
// arrangement of the other slots is searched for.
func LatestAllowedEnd(s *ScheduleState, id string, start models.Date) (models.Date, bool) {
	if start.Before(s.Window.Start) || start.After(s.Window.End) {
		return models.Date{}, false
	}
	latest := s.Window.End
	for otherID, other := range s.Slots {
		if otherID == id || !other.Scheduled() {
			continue
		}
		// a slot starting at or before the other one ends has to finish before it begins
		if !start.After(other.Interval.End) {
			latest = models.MinDate(latest, other.Interval.Start.AddDays(-1))
		}
	}
	if latest.Before(start) {
		return models.Date{}, false
	}
	return latest, true
}

// FeasibleStartOptions filters CandidateStartOptions down to the days that have a valid end
func FeasibleStartOptions(s *ScheduleState, id string) []models.Date {
	var out []models.Date
	for d := range CandidateStartOptions(s.Window) {
		if _, ok := LatestAllowedEnd(s, id, d); ok {
			out = append(out, d)
		}
	}
	return out
}

// CandidateEndOptions lists the ends that may be offered for the slot's current
// start: every day from the start up to LatestAllowedEnd. It is empty when the
// slot has no start or the start has become infeasible.
func CandidateEndOptions(s *ScheduleState, id string) []models.Date {
	slot := s.Slot(id)
	if slot == nil || slot.Interval == nil || slot.Interval.Start.IsZero() {
		return nil
	}
	start := slot.Interval.Start
	latest, ok := LatestAllowedEnd(s, id, start)
	if !ok {
		return nil
	}
	out := make([]models.Date, 0, start.DaysUntil(latest)+1)
	for d := start; !d.After(latest); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}
