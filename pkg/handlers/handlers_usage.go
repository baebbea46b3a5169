package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/intervention-scheduler-api/pkg/database"
)

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey := currentKey(c)
	if apiKey == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	usage, err := database.ListUsage(h.DB, apiKey.ID, 30)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	// Calculate totals
	var totalRequests, totalValidations, totalSubmissions int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalValidations += int64(u.Validations)
		totalSubmissions += int64(u.Submissions)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":    totalRequests,
			"validations": totalValidations,
			"submissions": totalSubmissions,
		},
	})
}

// GetUsage returns usage stats for a key (admin)
func (h *Handler) GetUsage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return
	}
	usage, err := database.ListUsage(h.DB, uint(id), 30)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
