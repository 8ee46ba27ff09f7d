package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
)

func HealthCheck(ctx *gin.Context) {
	sqlDB, err := db.DB.DB()

	if err != nil || sqlDB.Ping() != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
