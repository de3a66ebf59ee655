package handlers

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/rota-scheduler/pkg/auth"
	"github.com/arnavshah/rota-scheduler/pkg/cache"
	"github.com/arnavshah/rota-scheduler/pkg/database"
	"github.com/arnavshah/rota-scheduler/pkg/models"
	"github.com/arnavshah/rota-scheduler/pkg/roster"
	"github.com/arnavshah/rota-scheduler/pkg/scheduler"
)

//go:embed static/*
var staticEmbed embed.FS

// Handler contains dependencies for the route handlers
type Handler struct {
	DB    *gorm.DB
	Store *roster.Store
	Auth  *auth.Authenticator
	Cache cache.Cache
	Now   func() time.Time
}

// New wires a Handler around an opened database
func New(db *gorm.DB, a *auth.Authenticator, c cache.Cache) *Handler {
	return &Handler{
		DB:    db,
		Store: roster.NewStore(db),
		Auth:  a,
		Cache: c,
		Now:   time.Now,
	}
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	return strings.TrimPrefix(token, "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the API key for scheduler routes using HMAC and
// enforces the key's daily request limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		userID, err := h.Auth.VerifyKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		// Fetch or create API key record to track usage
		var apiKey database.APIKey
		err = h.DB.Where(database.APIKey{Key: key}).Attrs(database.APIKey{
			KeyPreview: auth.KeyPreview(key),
			Name:       userID,
			RateLimit:  10000,
		}).FirstOrCreate(&apiKey).Error
		if err != nil {
			log.Printf("api key lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}
		if apiKey.Revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}

		var usage database.APIUsage
		today := h.Now().Format("2006-01-02")
		if err := h.DB.Where("key_id = ? AND date = ?", apiKey.ID, today).Limit(1).Find(&usage).Error; err == nil {
			if apiKey.RateLimit > 0 && usage.RequestCount >= apiKey.RateLimit {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily request limit reached"})
				return
			}
		}

		now := h.Now()
		h.DB.Model(&apiKey).Update("last_used", &now)

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, shiftCount, workerCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := h.Now().Format("2006-01-02")

	// Use OnConflict for a single-query upsert (supported by both Postgres and SQLite)
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_shifts":  gorm.Expr("total_shifts + ?", shiftCount),
			"total_workers": gorm.Expr("total_workers + ?", workerCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		TotalShifts:  shiftCount,
		TotalWorkers: workerCount,
	}).Error
	if err != nil {
		log.Printf("failed to record usage for key %d: %v", apiKey.ID, err)
	}
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, roster.ErrBlankName),
		errors.Is(err, roster.ErrInvalidDay),
		errors.Is(err, scheduler.ErrUnknownStrategy),
		errors.Is(err, errInvalidRoster):
		status = http.StatusBadRequest
	case errors.Is(err, roster.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, roster.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// generate runs the engine for a roster snapshot, going through the cache first
func (h *Handler) generate(ctx context.Context, r models.Roster, input models.ScheduleInput) (*models.Schedule, bool, error) {
	strategy, err := scheduler.ParseStrategy(input.Strategy)
	if err != nil {
		return nil, false, err
	}

	key := cache.Key(r, string(strategy), input.ShuffleSeed)
	if h.Cache != nil {
		if s, err := h.Cache.Get(ctx, key); err == nil {
			return s, true, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Printf("schedule cache read failed: %v", err)
		}
	}

	opts := []scheduler.Option{scheduler.WithStrategy(strategy), scheduler.WithClock(h.Now)}
	if input.ShuffleSeed != nil {
		opts = append(opts, scheduler.WithDayShuffle(rand.New(rand.NewSource(*input.ShuffleSeed))))
	}

	s, err := scheduler.NewScheduler(opts...).GenerateMonth(r)
	if err != nil {
		return nil, false, err
	}

	if h.Cache != nil {
		if err := h.Cache.Set(ctx, key, s); err != nil {
			log.Printf("schedule cache write failed: %v", err)
		}
	}
	return s, false, nil
}

func assignedShifts(s *models.Schedule) int {
	n := 0
	for _, load := range s.Loads {
		n += load
	}
	return n
}

// AdminInterface serves the admin web interface from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
