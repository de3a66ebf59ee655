package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/rota-scheduler/pkg/auth"
	"github.com/arnavshah/rota-scheduler/pkg/cache"
	"github.com/arnavshah/rota-scheduler/pkg/database"
	"github.com/arnavshah/rota-scheduler/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	h      *Handler
	router *gin.Engine
	key    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open("", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	a := auth.New("jwt-secret", "master-secret")
	a.BcryptCost = bcrypt.MinCost
	require.NoError(t, a.EnsureAdminExists(db, "admin", "pw"))

	h := New(db, a, cache.NewMemoryCache(time.Hour))
	h.Now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, h.Store.Seed(context.Background(), false))

	return &testServer{h: h, router: Router(h), key: a.GenerateKey("tester")}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/roster", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.key = "tester.bad"
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/roster", nil).Code)
}

func TestRosterEndpoints(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": "Ana"}).Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": "Ben Ito"}).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": "Ana"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": "  "}).Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/locations", gin.H{"name": "Depot"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/days/0", gin.H{"time_window": "9:00-17:00"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/days/9", gin.H{"time_window": "x"}).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/workers/Ben%20Ito", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/workers/Ben%20Ito", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/locations/Nowhere", nil).Code)

	w := s.do(t, http.MethodGet, "/api/roster", nil)
	require.Equal(t, http.StatusOK, w.Code)
	r := decode[models.Roster](t, w)
	assert.Equal(t, []models.Worker{"Ana"}, r.Workers)
	assert.Equal(t, []models.Location{"Depot"}, r.Locations)
	assert.Equal(t, "9:00-17:00", r.Days[0].TimeWindow)
}

func TestGenerateSchedule(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"A", "B", "C"} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": name}).Code)
	}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/locations", gin.H{"name": "L"}).Code)

	w := s.do(t, http.MethodPost, "/api/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ScheduleResponse](t, w)
	assert.False(t, resp.Cached)
	require.Len(t, resp.Schedule.Grid, models.WeeksPerMonth)
	assert.Equal(t, models.ShiftCell{"A"}, resp.Schedule.Grid[0][0][0])
	assert.Equal(t, 12, resp.Schedule.CapPerWorker)

	w = s.do(t, http.MethodPost, "/api/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[models.ScheduleResponse](t, w)
	assert.True(t, again.Cached)
	assert.Equal(t, resp.Schedule.Grid, again.Schedule.Grid)

	w = s.do(t, http.MethodGet, "/api/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)
	latest := decode[models.ScheduleResponse](t, w)
	assert.Equal(t, resp.Schedule.Grid, latest.Schedule.Grid)

	w = s.do(t, http.MethodPost, "/api/schedule", gin.H{"strategy": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[struct {
		Totals struct {
			Requests int `json:"requests"`
		} `json:"totals"`
	}](t, w)
	assert.Equal(t, 6, usage.Totals.Requests)
}

func TestScheduleJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/schedule/json", gin.H{
		"roster":   models.Roster{Workers: []models.Worker{"A"}, Locations: []models.Location{"L1", "L2"}},
		"strategy": "rest_aware",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ScheduleResponse](t, w)
	assert.Len(t, resp.Roster.Days, models.DaysPerWeek)
	assert.Equal(t, 42, resp.Schedule.Loads["A"])
	assert.Len(t, resp.Schedule.Unfilled, 14)

	w = s.do(t, http.MethodPost, "/api/schedule/json", gin.H{
		"roster": models.Roster{Workers: []models.Worker{"A", "A"}, Locations: []models.Location{"L"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/schedule/json", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Stateless generation never touches the stored schedule.
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/schedule", nil).Code)
}

func TestScheduleJSON_EmptyRoster(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/schedule/json", gin.H{
		"roster": models.Roster{Locations: []models.Location{"L"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ScheduleResponse](t, w)
	require.Len(t, resp.Schedule.Grid, models.WeeksPerMonth)
	for _, week := range resp.Schedule.Grid {
		for _, row := range week {
			for _, cell := range row {
				assert.Empty(t, cell)
			}
		}
	}
}

func TestExports(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/schedule/xlsx", nil).Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": "Ana"}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/locations", gin.H{"name": "Depot"}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/schedule", nil).Code)

	w := s.do(t, http.MethodGet, "/api/schedule/xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Assignments_2026-05-04.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Week 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Day", "Depot"}, rows[0])
	assert.Equal(t, []string{"Monday", "Ana"}, rows[1])

	w = s.do(t, http.MethodGet, "/api/schedule/csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[map[string]string](t, w)
	assert.Contains(t, out["csv"], "1,Monday,Depot,Ana")

	w = s.do(t, http.MethodGet, "/api/schedule/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Week 4")
}

func TestValidateInput(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name  string
		body  models.Roster
		valid bool
	}{
		{"ok", models.Roster{Workers: []models.Worker{"A"}, Locations: []models.Location{"L"}}, true},
		{"no workers", models.Roster{Locations: []models.Location{"L"}}, false},
		{"no locations", models.Roster{Workers: []models.Worker{"A"}}, false},
		{"duplicate location", models.Roster{Workers: []models.Worker{"A"}, Locations: []models.Location{"L", "L"}}, false},
		{"short week", models.Roster{Workers: []models.Worker{"A"}, Locations: []models.Location{"L"}, Days: models.CanonicalDays()[:5]}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/validate", tc.body)
			require.Equal(t, http.StatusOK, w.Code)
			out := decode[map[string]any](t, w)
			assert.Equal(t, tc.valid, out["valid"])
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/roster", nil).Code)

	require.NoError(t, s.h.DB.Model(&database.APIKey{}).Where("name = ?", "tester").Update("rate_limit", 1).Error)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": "Ana"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodGet, "/api/roster", nil).Code)
}

func TestAdminFlow(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"username":"admin","password":"wrong"}`))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"username":"admin","password":"pw"}`))
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]string](t, w)["access_token"]
	require.NotEmpty(t, token)

	s.key = token
	w = s.do(t, http.MethodPost, "/admin/keys", gin.H{"name": "ops"})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[map[string]any](t, w)
	assert.Equal(t, s.h.Auth.GenerateKey("ops"), created["key"])

	w = s.do(t, http.MethodGet, "/admin/keys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key_preview":"ops...`)
	assert.NotContains(t, w.Body.String(), created["key"].(string))
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"username":"admin","password":"pw"}`))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return decode[map[string]string](t, w)["access_token"]
}

func (s *testServer) issueKey(t *testing.T, name string, limit int) (string, int) {
	t.Helper()
	apiKey := s.key
	s.key = s.adminToken(t)
	defer func() { s.key = apiKey }()

	w := s.do(t, http.MethodPost, "/admin/keys", gin.H{"name": name, "rate_limit": limit})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[struct {
		ID  int    `json:"id"`
		Key string `json:"key"`
	}](t, w)
	return created.Key, created.ID
}

func TestIssuedKeyWithCustomLimit(t *testing.T) {
	s := newTestServer(t)
	key, id := s.issueKey(t, "ops", 50)

	s.key = key
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/roster", nil).Code)

	s.key = s.adminToken(t)
	w := s.do(t, http.MethodPut, fmt.Sprintf("/admin/keys/%d", id), gin.H{"rate_limit": 75})
	require.Equal(t, http.StatusOK, w.Code)

	s.key = key
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/workers", gin.H{"name": "Ana"}).Code)

	var stored database.APIKey
	require.NoError(t, s.h.DB.Where("name = ?", "ops").First(&stored).Error)
	assert.Equal(t, 75, stored.RateLimit)

	var count int64
	require.NoError(t, s.h.DB.Model(&database.APIKey{}).Where("name = ?", "ops").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRevokedKeyIsRejected(t *testing.T) {
	s := newTestServer(t)
	key, id := s.issueKey(t, "ops", 0)

	s.key = key
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/roster", nil).Code)

	s.key = s.adminToken(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, fmt.Sprintf("/admin/keys/%d", id), nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/admin/keys/9999", nil).Code)

	s.key = key
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/roster", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/roster", nil).Code)
}

func TestAdminInterface(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `removeItem('workers', 'removeWorker')`)
	assert.Contains(t, w.Body.String(), `removeItem('locations', 'removeLocation')`)
}
