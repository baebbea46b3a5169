package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnavshah/intervention-scheduler-api/pkg/database"
	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
	"github.com/arnavshah/intervention-scheduler-api/pkg/session"
)

type windowRequest struct {
	Window models.TaskWindow `json:"window"`
}

type dateRequest struct {
	Date models.Date `json:"date"`
}

// loadSession resolves :id for the calling API key, writing the error response itself
func (h *Handler) loadSession(c *gin.Context) (*session.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return nil, false
	}
	s, err := h.Sessions.Get(id, owner(c))
	if err != nil {
		h.abortWithError(c, err)
		return nil, false
	}
	return s, true
}

// edit runs fn against the session schedule and answers with the updated snapshot
func (h *Handler) edit(c *gin.Context, fn func(state *scheduler.ScheduleState) error) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}

	var snap models.ScheduleResponse
	err := s.Do(func(state *scheduler.ScheduleState) error {
		if err := fn(state); err != nil {
			return err
		}
		snap = state.Snapshot()
		return nil
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	snap.SessionID = s.ID.String()
	c.JSON(http.StatusOK, snap)
}

// CreateSession opens an editing session for a task window
func (h *Handler) CreateSession(c *gin.Context) {
	var req windowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Window.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.Sessions.Create(owner(c), req.Window)

	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID.String(),
		"window":     req.Window,
	})
}

// GetSession returns the current schedule with statuses and ranks
func (h *Handler) GetSession(c *gin.Context) {
	h.edit(c, func(*scheduler.ScheduleState) error { return nil })
}

// DiscardSession abandons a session and everything scheduled in it
func (h *Handler) DiscardSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if !h.Sessions.Discard(id, owner(c)) {
		h.abortWithError(c, session.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateWindow changes the task window without touching existing slots
func (h *Handler) UpdateWindow(c *gin.Context) {
	var req windowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.edit(c, func(state *scheduler.ScheduleState) error {
		return state.SetWindow(req.Window)
	})
}

// SelectIntervention adds an intervention to the task
func (h *Handler) SelectIntervention(c *gin.Context) {
	var req struct {
		InterventionID string `json:"intervention_id" binding:"required"`
		Name           string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.edit(c, func(state *scheduler.ScheduleState) error {
		state.Select(req.InterventionID, req.Name)
		return nil
	})
}

// DeselectIntervention removes an intervention and its whole slot
func (h *Handler) DeselectIntervention(c *gin.Context) {
	iid := c.Param("iid")
	h.edit(c, func(state *scheduler.ScheduleState) error {
		if !state.Deselect(iid) {
			return &scheduler.Rejection{
				Kind:            models.KindUnknownIntervention,
				Message:         "intervention " + iid + " is not selected",
				InterventionIDs: []string{iid},
			}
		}
		return nil
	})
}

// AssignStaff records the staff member chosen by the host from its filtered candidates
func (h *Handler) AssignStaff(c *gin.Context) {
	var req struct {
		StaffID string `json:"staff_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.edit(c, func(state *scheduler.ScheduleState) error {
		return state.SetStaff(c.Param("iid"), req.StaffID)
	})
}

// AssignWard records the ward chosen by the host from its filtered candidates
func (h *Handler) AssignWard(c *gin.Context) {
	var req struct {
		WardID string `json:"ward_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.edit(c, func(state *scheduler.ScheduleState) error {
		return state.SetWard(c.Param("iid"), req.WardID)
	})
}

// SetStart moves an intervention's start day
func (h *Handler) SetStart(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Date.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	h.edit(c, func(state *scheduler.ScheduleState) error {
		return state.SetStart(c.Param("iid"), req.Date)
	})
}

// SetEnd moves an intervention's end day
func (h *Handler) SetEnd(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Date.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	h.edit(c, func(state *scheduler.ScheduleState) error {
		return state.SetEnd(c.Param("iid"), req.Date)
	})
}

// SetInterval sets both ends of an intervention's interval
func (h *Handler) SetInterval(c *gin.Context) {
	var req models.Interval
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.edit(c, func(state *scheduler.ScheduleState) error {
		return state.SetInterval(c.Param("iid"), req)
	})
}

// ClearInterval unschedules an intervention
func (h *Handler) ClearInterval(c *gin.Context) {
	h.edit(c, func(state *scheduler.ScheduleState) error {
		return state.ClearInterval(c.Param("iid"))
	})
}

// StartOptions lists every day of the window, flagging those with no valid end for the intervention
func (h *Handler) StartOptions(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	iid := c.Query("intervention_id")

	type option struct {
		Date     models.Date `json:"date"`
		Disabled bool        `json:"disabled"`
	}
	var options []option
	_ = s.Do(func(state *scheduler.ScheduleState) error {
		for day := range scheduler.CandidateStartOptions(state.Window) {
			opt := option{Date: day}
			if iid != "" {
				_, feasible := scheduler.LatestAllowedEnd(state, iid, day)
				opt.Disabled = !feasible
			}
			options = append(options, opt)
		}
		return nil
	})

	c.JSON(http.StatusOK, gin.H{"options": options})
}

// EndOptions lists the end days that can be chosen for the intervention's current start
func (h *Handler) EndOptions(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	iid := c.Param("iid")

	var ends []models.Date
	err := s.Do(func(state *scheduler.ScheduleState) error {
		if state.Slot(iid) == nil {
			return &scheduler.Rejection{
				Kind:            models.KindUnknownIntervention,
				Message:         "intervention " + iid + " is not selected",
				InterventionIDs: []string{iid},
			}
		}
		ends = scheduler.CandidateEndOptions(state, iid)
		return nil
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if ends == nil {
		ends = []models.Date{}
	}
	c.JSON(http.StatusOK, gin.H{"options": ends})
}

// LatestEnd reports the latest end that keeps a proposed start feasible
func (h *Handler) LatestEnd(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	start, err := models.ParseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var latest models.Date
	var feasible bool
	_ = s.Do(func(state *scheduler.ScheduleState) error {
		latest, feasible = scheduler.LatestAllowedEnd(state, c.Param("iid"), start)
		return nil
	})

	if !feasible {
		c.JSON(http.StatusOK, gin.H{"feasible": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feasible": true, "latest_end": latest})
}

// CheckOverlap tells the host whether a proposed interval would collide with another slot
func (h *Handler) CheckOverlap(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	var req models.Interval
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var overlap bool
	_ = s.Do(func(state *scheduler.ScheduleState) error {
		overlap = scheduler.WouldOverlapWithOthers(state, c.Param("iid"), req)
		return nil
	})
	c.JSON(http.StatusOK, gin.H{"overlap": overlap})
}

// ValidateSession runs the submission checks without submitting
func (h *Handler) ValidateSession(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}

	var result models.ValidationResult
	var order models.ExecutionOrder
	_ = s.Do(func(state *scheduler.ScheduleState) error {
		result = scheduler.Validate(state)
		order = scheduler.DeriveExecutionOrder(state)
		return nil
	})
	countUsage(c, database.UsageDelta{Validations: 1})

	c.JSON(http.StatusOK, gin.H{"result": result, "order": order})
}

// SubmitSession validates the schedule and stores it for the task in one transaction
func (h *Handler) SubmitSession(c *gin.Context) {
	var req struct {
		TaskID string `json:"task_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.loadSession(c)
	if !ok {
		return
	}

	var export *models.ScheduleExport
	var result models.ValidationResult
	_ = s.Do(func(state *scheduler.ScheduleState) error {
		export, result = scheduler.Export(state)
		return nil
	})
	if !result.OK {
		countUsage(c, database.UsageDelta{Validations: 1})
		c.JSON(http.StatusUnprocessableEntity, gin.H{"result": result})
		return
	}

	var keyID uint
	if key := currentKey(c); key != nil {
		keyID = key.ID
	}
	if _, err := database.SaveSubmission(h.DB, req.TaskID, keyID, export); err != nil {
		h.abortWithError(c, err)
		return
	}
	countUsage(c, database.UsageDelta{Validations: 1, Submissions: 1})
	h.Logger.Info().
		Str("task_id", req.TaskID).
		Str("session_id", s.ID.String()).
		Int("interventions", len(export.Entries)).
		Msg("schedule submitted")

	c.JSON(http.StatusOK, gin.H{"result": result, "task_id": req.TaskID, "export": export})
}
