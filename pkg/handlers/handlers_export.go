package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/intervention-scheduler-api/pkg/database"
	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
)

// ExportCSV renders a valid session schedule as CSV, one row per intervention in execution order
func (h *Handler) ExportCSV(c *gin.Context) {
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
		c.JSON(http.StatusUnprocessableEntity, gin.H{"result": result})
		return
	}

	var out strings.Builder
	writer := csv.NewWriter(&out)
	writer.Write([]string{"rank", "intervention_id", "staff_id", "ward_id", "start", "end", "days"})
	for _, e := range export.Entries {
		writer.Write([]string{
			strconv.Itoa(e.Rank),
			e.InterventionID,
			e.StaffID,
			e.WardID,
			e.Start.String(),
			e.End.String(),
			strconv.Itoa(models.Interval{Start: e.Start, End: e.End}.Days()),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="schedule-`+s.ID.String()+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out.String()))
}

// GetSubmission returns the stored schedule of a task (admin)
func (h *Handler) GetSubmission(c *gin.Context) {
	sub, err := database.GetSubmission(h.DB, c.Param("task_id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
