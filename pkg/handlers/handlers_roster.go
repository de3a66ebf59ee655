package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type nameRequest struct {
	Name string `json:"name"`
}

// GetRoster returns the stored workers, locations and days
func (h *Handler) GetRoster(c *gin.Context) {
	r, err := h.Store.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// AddWorker appends a worker to the roster
func (h *Handler) AddWorker(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.Store.AddWorker(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusCreated, gin.H{"worker": w})
}

// RemoveWorker deletes a worker from the roster
func (h *Handler) RemoveWorker(c *gin.Context) {
	if err := h.Store.RemoveWorker(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"message": "Worker removed"})
}

// AddLocation appends a location to the roster
func (h *Handler) AddLocation(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Store.AddLocation(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusCreated, gin.H{"location": l})
}

// RemoveLocation deletes a location from the roster
func (h *Handler) RemoveLocation(c *gin.Context) {
	if err := h.Store.RemoveLocation(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"message": "Location removed"})
}

// SetTimeWindow updates the display time window of one day
func (h *Handler) SetTimeWindow(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day index must be a number"})
		return
	}
	var req struct {
		TimeWindow string `json:"time_window"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.SetTimeWindow(c.Request.Context(), index, req.TimeWindow); err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"message": "Time window updated"})
}
