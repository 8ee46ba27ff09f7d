package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/recorder"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

type nullMailer struct{}

func (nullMailer) Send(to, subject, body string) error { return nil }

func setupHandlerTest(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	db.DB = conn
	Configure(recorder.New(conn, zap.NewNop()), nullMailer{})

	r := gin.New()
	r.RedirectTrailingSlash = false

	r.GET("/api/monitors/", ListMonitors)
	r.POST("/api/monitors/", CreateMonitor)
	r.GET("/api/monitors/:id/", GetMonitor)
	r.PUT("/api/monitors/:id/", UpdateMonitor)
	r.PATCH("/api/monitors/:id/", PatchMonitor)
	r.DELETE("/api/monitors/:id/", DeleteMonitor)
	r.GET("/api/incidents/", ListIncidents)
	r.POST("/api/alert-contacts/", CreateAlertContact)
	r.DELETE("/api/alert-contacts/:id/", DeleteAlertContact)
	r.POST("/api/status-pages/", CreateStatusPage)
	r.GET("/api/status/:slug/", PublicStatusPage)
	r.POST("/api/maintenance-windows/", CreateMaintenanceWindow)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateMonitorValidation(t *testing.T) {
	r := setupHandlerTest(t)

	cases := []struct {
		name    string
		payload gin.H
	}{
		{"missing name", gin.H{"url": "https://example.com"}},
		{"unknown type", gin.H{"name": "x", "url": "https://example.com", "monitor_type": "SMTP"}},
		{"keyword without keyword", gin.H{"name": "x", "url": "https://example.com", "monitor_type": types.MonitorKeyword}},
		{"port without port", gin.H{"name": "x", "url": "example.com", "monitor_type": types.MonitorPort}},
		{"keyword on http monitor", gin.H{"name": "x", "url": "https://example.com", "monitor_type": types.MonitorHTTP, "keyword": "ok"}},
		{"port on http monitor", gin.H{"name": "x", "url": "https://example.com", "monitor_type": types.MonitorHTTP, "port": 443}},
		{"ssh without credentials", gin.H{"name": "x", "url": "example.com", "monitor_type": types.MonitorSSH, "ssh_username": ""}},
		{"timeout over interval", gin.H{"name": "x", "url": "https://example.com", "interval": 1, "timeout": 120}},
	}

	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/monitors/", tc.payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.name)
	}
}

func TestMonitorCRUDRoundTrip(t *testing.T) {
	r := setupHandlerTest(t)

	contact := models.AlertContact{Name: "ops", ContactType: types.ContactEmail, Value: "ops@example.com"}
	require.NoError(t, db.DB.Create(&contact).Error)

	w := doJSON(t, r, http.MethodPost, "/api/monitors/", gin.H{
		"name":           "marketing site",
		"url":            "https://example.com",
		"monitor_type":   types.MonitorHTTP,
		"interval":       5,
		"timeout":        30,
		"alert_contacts": []uint{contact.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created MonitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "marketing site", created.Name)
	assert.Equal(t, []uint{contact.ID}, created.AlertContactIDs)
	// Fresh active monitor with no records reads as fully up.
	assert.Equal(t, 100.0, created.UptimePercentage24h)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/monitors/%d/", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/monitors/%d/", created.ID), gin.H{
		"name":         "marketing site",
		"url":          "https://example.com/health",
		"monitor_type": types.MonitorHTTP,
		"interval":     10,
		"timeout":      30,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated MonitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "https://example.com/health", updated.URL)
	assert.Equal(t, 10, updated.Interval)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/monitors/%d/", created.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/monitors/%d/", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchMonitorPartialBody(t *testing.T) {
	r := setupHandlerTest(t)

	monitor := models.Monitor{
		Name: "api", URL: "https://api.example.com",
		MonitorType: types.MonitorHTTP, Interval: 5, Timeout: 30,
		IsActive: true, NotifyEmail: true,
	}
	require.NoError(t, db.DB.Create(&monitor).Error)

	// A body carrying only the changed field must not trip the required
	// name/url validation of a full update.
	w := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/monitors/%d/", monitor.ID), gin.H{
		"interval": 15,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var patched MonitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
	assert.Equal(t, 15, patched.Interval)
	assert.Equal(t, "api", patched.Name)
	assert.Equal(t, "https://api.example.com", patched.URL)

	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/monitors/%d/", monitor.ID), gin.H{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Monitor
	require.NoError(t, db.DB.First(&stored, monitor.ID).Error)
	assert.False(t, stored.IsActive)
	assert.Equal(t, 15, stored.Interval)
	assert.True(t, stored.NotifyEmail)

	// The merged config still has to validate as a whole.
	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/monitors/%d/", monitor.ID), gin.H{
		"monitor_type": types.MonitorKeyword,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestDeleteMonitorResolvesOpenIncident(t *testing.T) {
	r := setupHandlerTest(t)

	monitor := models.Monitor{
		Name: "api", URL: "https://api.example.com",
		MonitorType: types.MonitorHTTP, Interval: 5, Timeout: 30, IsActive: true,
	}
	require.NoError(t, db.DB.Create(&monitor).Error)

	incident := models.Incident{MonitorID: monitor.ID, Status: types.IncidentOpen, StartedAt: time.Now()}
	require.NoError(t, db.DB.Create(&incident).Error)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/monitors/%d/", monitor.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var closed models.Incident
	require.NoError(t, db.DB.First(&closed, incident.ID).Error)
	assert.Equal(t, types.IncidentResolved, closed.Status)
}

func TestAlertContactValidation(t *testing.T) {
	r := setupHandlerTest(t)

	w := doJSON(t, r, http.MethodPost, "/api/alert-contacts/", gin.H{
		"name": "ops", "contact_type": types.ContactEmail, "value": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/alert-contacts/", gin.H{
		"name": "hook", "contact_type": types.ContactWebhook, "value": "ftp://example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/alert-contacts/", gin.H{
		"name": "pager", "contact_type": "SMS", "value": "+15550100",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/alert-contacts/", gin.H{
		"name": "ops", "contact_type": types.ContactEmail, "value": "ops@example.com",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDeleteAlertContactDetachesFromMonitors(t *testing.T) {
	r := setupHandlerTest(t)

	contact := models.AlertContact{Name: "ops", ContactType: types.ContactEmail, Value: "ops@example.com"}
	require.NoError(t, db.DB.Create(&contact).Error)

	monitor := models.Monitor{
		Name: "api", URL: "https://api.example.com",
		MonitorType: types.MonitorHTTP, Interval: 5, Timeout: 30, IsActive: true,
	}
	require.NoError(t, db.DB.Create(&monitor).Error)
	require.NoError(t, db.DB.Model(&monitor).Association("AlertContacts").Append(&contact))

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/alert-contacts/%d/", contact.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	count := db.DB.Model(&monitor).Association("AlertContacts").Count()
	assert.Zero(t, count)
}

func TestStatusPageSlugCollision(t *testing.T) {
	r := setupHandlerTest(t)

	w := doJSON(t, r, http.MethodPost, "/api/status-pages/", gin.H{"name": "Public Status"})
	require.Equal(t, http.StatusCreated, w.Code)

	var first models.StatusPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, "public-status", first.Slug)

	// Same name auto-generates a distinct slug instead of failing.
	w = doJSON(t, r, http.MethodPost, "/api/status-pages/", gin.H{"name": "Public Status"})
	require.Equal(t, http.StatusCreated, w.Code)

	var second models.StatusPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.NotEqual(t, first.Slug, second.Slug)

	// An explicit duplicate slug is a conflict.
	w = doJSON(t, r, http.MethodPost, "/api/status-pages/", gin.H{"name": "Another", "slug": "public-status"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPublicStatusPage(t *testing.T) {
	r := setupHandlerTest(t)

	visible := models.Monitor{
		Name: "site", URL: "https://example.com",
		MonitorType: types.MonitorHTTP, Interval: 5, Timeout: 30,
		IsActive: true, VisibleOnStatusPage: true,
	}
	hidden := models.Monitor{
		Name: "internal", URL: "https://internal.example.com",
		MonitorType: types.MonitorHTTP, Interval: 5, Timeout: 30, IsActive: true,
	}
	require.NoError(t, db.DB.Create(&visible).Error)
	require.NoError(t, db.DB.Create(&hidden).Error)

	page := models.StatusPage{Name: "Public", Slug: "public", IsPublic: true}
	require.NoError(t, db.DB.Create(&page).Error)
	require.NoError(t, db.DB.Model(&page).Association("Monitors").Append(&visible, &hidden))

	w := doJSON(t, r, http.MethodGet, "/api/status/public/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OverallStatus string `json:"overall_status"`
		Monitors      []struct {
			Name string `json:"name"`
		} `json:"monitors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "operational", body.OverallStatus)
	require.Len(t, body.Monitors, 1)
	assert.Equal(t, "site", body.Monitors[0].Name)

	// Private pages are invisible.
	private := models.StatusPage{Name: "Private", Slug: "private", IsPublic: false}
	require.NoError(t, db.DB.Create(&private).Error)

	w = doJSON(t, r, http.MethodGet, "/api/status/private/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMaintenanceWindowValidation(t *testing.T) {
	r := setupHandlerTest(t)

	monitor := models.Monitor{
		Name: "api", URL: "https://api.example.com",
		MonitorType: types.MonitorHTTP, Interval: 5, Timeout: 30, IsActive: true,
	}
	require.NoError(t, db.DB.Create(&monitor).Error)

	now := time.Now()

	w := doJSON(t, r, http.MethodPost, "/api/maintenance-windows/", gin.H{
		"monitor": monitor.ID, "title": "upgrade",
		"start_time": now.Add(time.Hour), "end_time": now,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/maintenance-windows/", gin.H{
		"monitor": monitor.ID, "title": "upgrade",
		"start_time": now, "end_time": now.Add(time.Hour),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListIncidentsFilters(t *testing.T) {
	r := setupHandlerTest(t)

	monitor := models.Monitor{
		Name: "api", URL: "https://api.example.com",
		MonitorType: types.MonitorHTTP, Interval: 5, Timeout: 30, IsActive: true,
	}
	require.NoError(t, db.DB.Create(&monitor).Error)

	resolvedAt := time.Now()
	open := models.Incident{MonitorID: monitor.ID, Status: types.IncidentOpen, StartedAt: time.Now().Add(-time.Hour)}
	done := models.Incident{MonitorID: monitor.ID, Status: types.IncidentResolved, StartedAt: time.Now().Add(-2 * time.Hour), ResolvedAt: &resolvedAt}
	require.NoError(t, db.DB.Create(&open).Error)
	require.NoError(t, db.DB.Create(&done).Error)

	w := doJSON(t, r, http.MethodGet, "/api/incidents/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var all []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "api", all[0].MonitorName)
	assert.NotEmpty(t, all[0].DurationStr)

	w = doJSON(t, r, http.MethodGet, "/api/incidents/?status=OPEN", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var onlyOpen []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &onlyOpen))
	require.Len(t, onlyOpen, 1)
	assert.Equal(t, open.ID, onlyOpen[0].ID)
}
