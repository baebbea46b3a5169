package scheduler

import (
	"fmt"
	"strings"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

// Validate runs the submission checks in order and stops at the first failure:
// completeness, range validity, containment in the window, then disjointness.
func Validate(s *ScheduleState) models.ValidationResult {
	if s.Len() == 0 {
		return fail(models.KindNoSelection, "no interventions selected")
	}

	ids := s.IDs()

	var missing []string
	var details []string
	for _, id := range ids {
		slot := s.Slots[id]
		if slot.Complete() {
			continue
		}
		missing = append(missing, id)
		details = append(details, fmt.Sprintf("%s (%s)", slot.Label(), strings.Join(missingFacets(slot), ", ")))
	}
	if len(missing) > 0 {
		return fail(models.KindMissingAssignment, "missing assignment for "+strings.Join(details, "; "), missing...)
	}

	for _, id := range ids {
		slot := s.Slots[id]
		if slot.Interval.End.Before(slot.Interval.Start) {
			return fail(models.KindInvalidRange,
				fmt.Sprintf("%s ends on %s before it starts on %s", slot.Label(), slot.Interval.End, slot.Interval.Start), id)
		}
	}

	for _, id := range ids {
		slot := s.Slots[id]
		if !s.Window.Contains(*slot.Interval) {
			return fail(models.KindOutOfWindow,
				fmt.Sprintf("%s (%s) is outside the task window %s..%s", slot.Label(), *slot.Interval, s.Window.Start, s.Window.End), id)
		}
	}

	if a, b, ok := FindFirstOverlappingPair(s); ok {
		sa, sb := s.Slots[a], s.Slots[b]
		return fail(models.KindOverlap,
			fmt.Sprintf("%s (%s) overlaps %s (%s)", sa.Label(), *sa.Interval, sb.Label(), *sb.Interval), a, b)
	}

	return models.ValidationResult{OK: true}
}

func fail(kind models.FailureKind, msg string, ids ...string) models.ValidationResult {
	return models.ValidationResult{
		Kind:            kind,
		Message:         msg,
		InterventionIDs: ids,
	}
}

func missingFacets(slot *models.InterventionSlot) []string {
	var out []string
	if slot.StaffID == "" {
		out = append(out, "staff")
	}
	if slot.WardID == "" {
		out = append(out, "ward")
	}
	if !slot.Scheduled() {
		out = append(out, "dates")
	}
	return out
}
