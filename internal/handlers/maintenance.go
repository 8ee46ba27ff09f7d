package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
)

type MaintenanceWindowRequest struct {
	MonitorID   uint      `json:"monitor" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	IsActive    *bool     `json:"is_active"`
}

func ListMaintenanceWindows(ctx *gin.Context) {
	var windows []models.MaintenanceWindow

	query := db.DB.Order("start_time DESC")

	if monitorID := ctx.Query("monitor"); monitorID != "" {
		query = query.Where("monitor_id = ?", monitorID)
	}

	if err := query.Find(&windows).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve maintenance windows"})
		return
	}

	ctx.JSON(http.StatusOK, windows)
}

func CreateMaintenanceWindow(ctx *gin.Context) {
	var req MaintenanceWindowRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.EndTime.After(req.StartTime) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be after start_time"})
		return
	}

	var monitor models.Monitor
	if err := db.DB.First(&monitor, req.MonitorID).Error; err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Monitor not found"})
		return
	}

	window := models.MaintenanceWindow{
		MonitorID:   req.MonitorID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsActive:    true,
	}

	if req.IsActive != nil {
		window.IsActive = *req.IsActive
	}

	if err := db.DB.Create(&window).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create maintenance window"})
		return
	}

	ctx.JSON(http.StatusCreated, window)
}

func DeleteMaintenanceWindow(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maintenance window ID"})
		return
	}

	var window models.MaintenanceWindow

	if err := db.DB.First(&window, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Maintenance window not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve maintenance window"})
		}
		return
	}

	if err := db.DB.Delete(&window).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete maintenance window"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
