package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/rota-scheduler/pkg/export"
	"github.com/arnavshah/rota-scheduler/pkg/models"
	"github.com/arnavshah/rota-scheduler/pkg/presenter"
)

var errInvalidRoster = errors.New("invalid roster")

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// validateRoster applies the same rules the store enforces on add
func validateRoster(r models.Roster) error {
	seen := make(map[models.Worker]bool, len(r.Workers))
	for _, w := range r.Workers {
		if strings.TrimSpace(string(w)) == "" {
			return fmt.Errorf("%w: blank worker name", errInvalidRoster)
		}
		if seen[w] {
			return fmt.Errorf("%w: duplicate worker %q", errInvalidRoster, w)
		}
		seen[w] = true
	}

	seenLoc := make(map[models.Location]bool, len(r.Locations))
	for _, l := range r.Locations {
		if strings.TrimSpace(string(l)) == "" {
			return fmt.Errorf("%w: blank location name", errInvalidRoster)
		}
		if seenLoc[l] {
			return fmt.Errorf("%w: duplicate location %q", errInvalidRoster, l)
		}
		seenLoc[l] = true
	}

	if len(r.Days) != 0 && len(r.Days) != models.DaysPerWeek {
		return fmt.Errorf("%w: expected %d days, got %d", errInvalidRoster, models.DaysPerWeek, len(r.Days))
	}
	return nil
}

// GenerateSchedule builds a month from the stored roster and saves it
func (h *Handler) GenerateSchedule(c *gin.Context) {
	var input models.ScheduleInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	r, err := h.Store.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	s, cached, err := h.generate(ctx, r, input)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.Store.SaveSchedule(ctx, r, s); err != nil {
		respondError(c, err)
		return
	}

	h.RecordUsage(c, assignedShifts(s), len(r.Workers))
	c.JSON(http.StatusOK, models.ScheduleResponse{Roster: r, Schedule: s, Cached: cached})
}

// ScheduleJSON builds a month from a posted roster without touching storage
func (h *Handler) ScheduleJSON(c *gin.Context) {
	var input models.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Roster == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster is required"})
		return
	}
	if err := validateRoster(*input.Roster); err != nil {
		respondError(c, err)
		return
	}

	r := *input.Roster
	if len(r.Days) == 0 {
		r.Days = models.CanonicalDays()
	}

	s, cached, err := h.generate(c.Request.Context(), r, input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.RecordUsage(c, assignedShifts(s), len(r.Workers))
	c.JSON(http.StatusOK, models.ScheduleResponse{Roster: r, Schedule: s, Cached: cached})
}

// GetSchedule returns the latest saved month
func (h *Handler) GetSchedule(c *gin.Context) {
	r, s, err := h.Store.LatestSchedule(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ScheduleResponse{Roster: r, Schedule: s})
}

// GetScheduleTables returns the latest saved month rendered as week tables
func (h *Handler) GetScheduleTables(c *gin.Context) {
	r, s, err := h.Store.LatestSchedule(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": presenter.MonthTables(r, s.Grid)})
}

// ExportXLSX downloads the latest saved month as a workbook
func (h *Handler) ExportXLSX(c *gin.Context) {
	r, s, err := h.Store.LatestSchedule(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.XLSX(&buf, presenter.MonthTables(r, s.Grid)); err != nil {
		respondError(c, err)
		return
	}

	h.RecordUsage(c, 0, 0)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(h.Now())))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportCSV returns the latest saved month as CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	r, s, err := h.Store.LatestSchedule(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var out strings.Builder
	if err := export.CSV(&out, presenter.MonthTables(r, s.Grid)); err != nil {
		respondError(c, err)
		return
	}

	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"csv": out.String()})
}

// ValidateInput checks a posted roster without generating anything
func (h *Handler) ValidateInput(c *gin.Context) {
	var r models.Roster
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(r.Workers) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one worker is required"})
		return
	}
	if len(r.Locations) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one location is required"})
		return
	}
	if err := validateRoster(r); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"worker_count":    len(r.Workers),
			"location_count":  len(r.Locations),
			"shifts_per_week": len(r.Locations) * models.DaysPerWeek,
		},
	})
}
