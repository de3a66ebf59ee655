package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// Router registers every route on a new gin engine
func Router(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Admin interface - serve static files from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Rota Scheduler API",
			"version": Version,
		})
	})

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.GET("/roster", h.GetRoster)
		api.POST("/workers", h.AddWorker)
		api.DELETE("/workers/:name", h.RemoveWorker)
		api.POST("/locations", h.AddLocation)
		api.DELETE("/locations/:name", h.RemoveLocation)
		api.PUT("/days/:index", h.SetTimeWindow)

		api.POST("/schedule", h.GenerateSchedule)
		api.POST("/schedule/json", h.ScheduleJSON)
		api.GET("/schedule", h.GetSchedule)
		api.GET("/schedule/tables", h.GetScheduleTables)
		api.GET("/schedule/xlsx", h.ExportXLSX)
		api.GET("/schedule/csv", h.ExportCSV)

		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)
	}

	return r
}
