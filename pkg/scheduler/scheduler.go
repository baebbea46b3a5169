package scheduler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

// ErrInvalidInput is wrapped by FromInput when the input cannot be turned into a state
var ErrInvalidInput = errors.New("invalid schedule input")

// Rejection is returned when an edit would break a schedule invariant.
// The state is left exactly as it was before the edit.
type Rejection struct {
	Kind            models.FailureKind
	Message         string
	InterventionIDs []string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// ScheduleState holds the task window and one slot per selected intervention.
// It belongs to a single editing session and is not safe for concurrent use.
type ScheduleState struct {
	Window models.TaskWindow
	Slots  map[string]*models.InterventionSlot
}

// NewScheduleState creates an empty state for the given window
func NewScheduleState(window models.TaskWindow) *ScheduleState {
	return &ScheduleState{
		Window: window,
		Slots:  make(map[string]*models.InterventionSlot),
	}
}

// FromInput builds a state from externally supplied slots. Only input that
// cannot be represented is refused: a bad window, a slot without an ID, or the
// same intervention twice. Whatever else the input gets wrong is left for
// Validate to report.
func FromInput(input models.ScheduleInput) (*ScheduleState, error) {
	if err := input.Window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s := NewScheduleState(input.Window)
	for i, in := range input.Slots {
		if in.InterventionID == "" {
			return nil, fmt.Errorf("%w: slot %d has no intervention_id", ErrInvalidInput, i)
		}
		if _, dup := s.Slots[in.InterventionID]; dup {
			return nil, fmt.Errorf("%w: duplicate intervention_id %q", ErrInvalidInput, in.InterventionID)
		}
		slot := &models.InterventionSlot{
			InterventionID: in.InterventionID,
			Name:           in.Name,
			StaffID:        in.StaffID,
			WardID:         in.WardID,
		}
		if !in.Start.IsZero() || !in.End.IsZero() {
			slot.Interval = &models.Interval{Start: in.Start, End: in.End}
		}
		s.Slots[in.InterventionID] = slot
	}
	return s, nil
}

// Slot returns the slot for an intervention, or nil when it is not selected
func (s *ScheduleState) Slot(id string) *models.InterventionSlot {
	return s.Slots[id]
}

// Len returns the number of selected interventions
func (s *ScheduleState) Len() int {
	return len(s.Slots)
}

// IDs returns the selected intervention IDs in lexical order
func (s *ScheduleState) IDs() []string {
	ids := make([]string, 0, len(s.Slots))
	for id := range s.Slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Select adds an empty slot for an intervention. Selecting an already
// selected intervention only refreshes its name.
func (s *ScheduleState) Select(id, name string) *models.InterventionSlot {
	if slot, ok := s.Slots[id]; ok {
		if name != "" {
			slot.Name = name
		}
		return slot
	}
	slot := &models.InterventionSlot{InterventionID: id, Name: name}
	s.Slots[id] = slot
	return slot
}

// Deselect removes the slot whatever its state. It reports whether a slot existed.
func (s *ScheduleState) Deselect(id string) bool {
	if _, ok := s.Slots[id]; !ok {
		return false
	}
	delete(s.Slots, id)
	return true
}

// SetWindow replaces the task window. Slots that fall outside the new window
// are kept as they are; the next Validate reports them.
func (s *ScheduleState) SetWindow(window models.TaskWindow) error {
	if err := window.Validate(); err != nil {
		return &Rejection{Kind: models.KindInvalidRange, Message: err.Error()}
	}
	s.Window = window
	return nil
}

// SetStaff records the staff member chosen for an intervention
func (s *ScheduleState) SetStaff(id, staffID string) error {
	slot, err := s.lookup(id)
	if err != nil {
		return err
	}
	slot.StaffID = staffID
	return nil
}

// SetWard records the ward chosen for an intervention
func (s *ScheduleState) SetWard(id, wardID string) error {
	slot, err := s.lookup(id)
	if err != nil {
		return err
	}
	slot.WardID = wardID
	return nil
}

// SetStart moves the slot's start. The end defaults to the new start, giving a
// single-day interval that the caller can widen with SetEnd.
func (s *ScheduleState) SetStart(id string, start models.Date) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	return s.commit(id, models.Interval{Start: start, End: start})
}

// SetEnd moves the slot's end. An end before the current start pulls the start
// back to the same day; a slot without a start becomes a single-day interval.
func (s *ScheduleState) SetEnd(id string, end models.Date) error {
	slot, err := s.lookup(id)
	if err != nil {
		return err
	}
	iv := models.Interval{Start: end, End: end}
	if slot.Interval != nil && !slot.Interval.Start.IsZero() && !end.Before(slot.Interval.Start) {
		iv.Start = slot.Interval.Start
	}
	return s.commit(id, iv)
}

// SetInterval sets both ends at once
func (s *ScheduleState) SetInterval(id string, iv models.Interval) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	if iv.Start.IsZero() || iv.End.IsZero() {
		return &Rejection{
			Kind:            models.KindInvalidRange,
			Message:         "interval requires both start and end",
			InterventionIDs: []string{id},
		}
	}
	if iv.End.Before(iv.Start) {
		return &Rejection{
			Kind:            models.KindInvalidRange,
			Message:         fmt.Sprintf("interval %s ends before it starts", iv),
			InterventionIDs: []string{id},
		}
	}
	return s.commit(id, iv)
}

// ClearInterval unschedules a slot
func (s *ScheduleState) ClearInterval(id string) error {
	slot, err := s.lookup(id)
	if err != nil {
		return err
	}
	slot.Interval = nil
	return nil
}

// commit applies iv to the slot unless it leaves the window or overlaps another slot
func (s *ScheduleState) commit(id string, iv models.Interval) error {
	slot := s.Slots[id]
	if !s.Window.Contains(iv) {
		return &Rejection{
			Kind:            models.KindOutOfWindow,
			Message:         fmt.Sprintf("%s: %s is outside the task window %s..%s", slot.Label(), iv, s.Window.Start, s.Window.End),
			InterventionIDs: []string{id},
		}
	}
	if other := s.firstOverlap(id, iv); other != nil {
		return &Rejection{
			Kind:            models.KindOverlap,
			Message:         fmt.Sprintf("%s: %s overlaps %s (%s)", slot.Label(), iv, other.Label(), *other.Interval),
			InterventionIDs: []string{id, other.InterventionID},
		}
	}
	slot.Interval = &iv
	return nil
}

func (s *ScheduleState) lookup(id string) (*models.InterventionSlot, error) {
	slot, ok := s.Slots[id]
	if !ok {
		return nil, &Rejection{
			Kind:            models.KindUnknownIntervention,
			Message:         fmt.Sprintf("intervention %q is not selected", id),
			InterventionIDs: []string{id},
		}
	}
	return slot, nil
}

// Clone returns a deep copy of the state
func (s *ScheduleState) Clone() *ScheduleState {
	c := NewScheduleState(s.Window)
	for id, slot := range s.Slots {
		cp := *slot
		if slot.Interval != nil {
			iv := *slot.Interval
			cp.Interval = &iv
		}
		c.Slots[id] = &cp
	}
	return c
}

// Snapshot renders the state with derived status and ranks, ordered by rank then ID
func (s *ScheduleState) Snapshot() models.ScheduleResponse {
	order := DeriveExecutionOrder(s)
	views := make([]models.SlotView, 0, len(s.Slots))
	for _, id := range s.IDs() {
		slot := s.Slots[id]
		views = append(views, models.SlotView{
			InterventionSlot: *slot,
			Status:           slot.Status(),
			Rank:             order[id],
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		ri, rj := views[i].Rank, views[j].Rank
		if ri == 0 || rj == 0 {
			return ri != 0 && rj == 0
		}
		return ri < rj
	})
	return models.ScheduleResponse{
		Window: s.Window,
		Slots:  views,
		Order:  order,
	}
}
