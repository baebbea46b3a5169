package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/intervention-scheduler-api/pkg/database"
	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
)

// ValidateInput validates a complete schedule sent in one request, without a session
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := scheduler.FromInput(input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	export, result := scheduler.Export(state)
	countUsage(c, database.UsageDelta{Validations: 1})

	resp := gin.H{
		"result": result,
		"order":  scheduler.DeriveExecutionOrder(state),
	}
	if export != nil {
		resp["export"] = export
	}
	c.JSON(http.StatusOK, resp)
}
