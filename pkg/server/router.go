package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/intervention-scheduler-api/pkg/handlers"
	"github.com/arnavshah/intervention-scheduler-api/pkg/logging"
)

// Version is reported on the root route
const Version = "3.0.0"

// NewRouter builds the gin engine with every route
func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(h.Logger), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Intervention Scheduling API",
			"version": Version,
		})
	})

	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
		admin.GET("/submissions/:task_id", h.GetSubmission)
	}

	// Scheduling Endpoints
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)

		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.DiscardSession)
		api.PUT("/sessions/:id/window", h.UpdateWindow)
		api.GET("/sessions/:id/options/start", h.StartOptions)
		api.POST("/sessions/:id/validate", h.ValidateSession)
		api.POST("/sessions/:id/submit", h.SubmitSession)
		api.GET("/sessions/:id/export.csv", h.ExportCSV)

		slot := api.Group("/sessions/:id/interventions")
		slot.POST("", h.SelectIntervention)
		slot.DELETE("/:iid", h.DeselectIntervention)
		slot.PUT("/:iid/staff", h.AssignStaff)
		slot.PUT("/:iid/ward", h.AssignWard)
		slot.PUT("/:iid/start", h.SetStart)
		slot.PUT("/:iid/end", h.SetEnd)
		slot.PUT("/:iid/interval", h.SetInterval)
		slot.DELETE("/:iid/interval", h.ClearInterval)
		slot.POST("/:iid/overlap", h.CheckOverlap)
		slot.GET("/:iid/options/end", h.EndOptions)
		slot.GET("/:iid/latest-end", h.LatestEnd)
	}

	return r
}
