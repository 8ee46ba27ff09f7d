package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify produces a URL-safe slug from the page name. Collisions get a
// short random suffix instead of failing.
func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		slug = "status"
	}

	var existing models.StatusPage
	if err := db.DB.Where("slug = ?", slug).First(&existing).Error; err == nil {
		slug = slug + "-" + uuid.NewString()[:8]
	}

	return slug
}

type StatusPageRequest struct {
	Name         string `json:"name" binding:"required"`
	Slug         string `json:"slug"`
	IsPublic     *bool  `json:"is_public"`
	CustomDomain string `json:"custom_domain"`
	MonitorIDs   []uint `json:"monitors"`
}

func ListStatusPages(ctx *gin.Context) {
	var pages []models.StatusPage

	if err := db.DB.Preload("Monitors").Order("created_at DESC").Find(&pages).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status pages"})
		return
	}

	ctx.JSON(http.StatusOK, pages)
}

func CreateStatusPage(ctx *gin.Context) {
	var req StatusPageRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}

	page := models.StatusPage{
		Name:         req.Name,
		Slug:         slug,
		IsPublic:     true,
		CustomDomain: req.CustomDomain,
	}

	if req.IsPublic != nil {
		page.IsPublic = *req.IsPublic
	}

	if err := db.DB.Create(&page).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			ctx.JSON(http.StatusConflict, gin.H{"error": "A status page with this slug already exists"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create status page"})
		}
		return
	}

	if len(req.MonitorIDs) > 0 {
		var monitors []models.Monitor
		if err := db.DB.Find(&monitors, req.MonitorIDs).Error; err == nil {
			db.DB.Model(&page).Association("Monitors").Replace(monitors)
		}
	}

	ctx.JSON(http.StatusCreated, page)
}

func DeleteStatusPage(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status page ID"})
		return
	}

	var page models.StatusPage

	if err := db.DB.First(&page, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status page"})
		}
		return
	}

	if err := db.DB.Model(&page).Association("Monitors").Clear(); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detach monitors"})
		return
	}

	if err := db.DB.Delete(&page).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete status page"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

type publicMonitorStatus struct {
	Name                string     `json:"name"`
	Status              string     `json:"status"`
	UptimePercentage24h float64    `json:"uptime_percentage_24h"`
	Uptime30d           float64    `json:"uptime_30d"`
	LastChecked         *time.Time `json:"last_checked"`
}

// PublicStatusPage serves the unauthenticated status view for a page slug.
// Only monitors flagged visible_on_status_page appear, and only their
// aggregate health, never configuration.
func PublicStatusPage(ctx *gin.Context) {
	var page models.StatusPage

	err := db.DB.Preload("Monitors", "visible_on_status_page = ?", true).
		Where("slug = ? AND is_public = ?", ctx.Param("slug"), true).
		First(&page).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status page"})
		}
		return
	}

	statuses := make([]publicMonitorStatus, 0, len(page.Monitors))
	allUp := true

	for _, monitor := range page.Monitors {
		entry := publicMonitorStatus{
			Name:                monitor.Name,
			Status:              "operational",
			UptimePercentage24h: rec.Uptime(&monitor, 24*time.Hour),
			Uptime30d:           rec.Uptime(&monitor, 30*24*time.Hour),
		}

		if last := rec.LastRecord(monitor.ID); last != nil {
			entry.LastChecked = &last.CheckedAt
			if !last.IsUp {
				entry.Status = "down"
				allUp = false
			}
		}

		statuses = append(statuses, entry)
	}

	overall := "operational"
	if !allUp {
		overall = "degraded"
	}

	ctx.JSON(http.StatusOK, gin.H{
		"name":           page.Name,
		"slug":           page.Slug,
		"overall_status": overall,
		"monitors":       statuses,
	})
}
