package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
)

func ListIncidents(ctx *gin.Context) {
	var incidents []models.Incident

	query := db.DB.Preload("Monitor").Preload("Activities").Order("started_at DESC")

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if monitorID := ctx.Query("monitor"); monitorID != "" {
		query = query.Where("monitor_id = ?", monitorID)
	}

	if err := query.Find(&incidents).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	responses := make([]IncidentResponse, 0, len(incidents))
	for _, incident := range incidents {
		responses = append(responses, serializeIncident(incident, incident.Monitor.Name))
	}

	ctx.JSON(http.StatusOK, responses)
}

func GetIncident(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident ID"})
		return
	}

	var incident models.Incident

	if err := db.DB.Preload("Monitor").Preload("Activities").First(&incident, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incident"})
		}
		return
	}

	ctx.JSON(http.StatusOK, serializeIncident(incident, incident.Monitor.Name))
}
