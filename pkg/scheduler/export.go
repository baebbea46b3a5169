package scheduler

import (
	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

// Export validates the state and, when valid, returns the entries in execution
// order together with the order map. The export is nil when validation fails.
func Export(s *ScheduleState) (*models.ScheduleExport, models.ValidationResult) {
	result := Validate(s)
	if !result.OK {
		return nil, result
	}

	order := DeriveExecutionOrder(s)
	entries := make([]models.ExportEntry, 0, len(order))
	for _, slot := range scheduledSlots(s) {
		entries = append(entries, models.ExportEntry{
			Rank:           order[slot.InterventionID],
			InterventionID: slot.InterventionID,
			StaffID:        slot.StaffID,
			WardID:         slot.WardID,
			Start:          slot.Interval.Start,
			End:            slot.Interval.End,
		})
	}

	return &models.ScheduleExport{
		Window:  s.Window,
		Entries: entries,
		Order:   order,
	}, result
}
