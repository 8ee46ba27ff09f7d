package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/handlers"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/middleware"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()
	r.RedirectTrailingSlash = false

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health/", handlers.HealthCheck)
		api.GET("/status/:slug/", handlers.PublicStatusPage)

		api.POST("/login/", handlers.Login)
		api.POST("/logout/", handlers.Logout)
		api.POST("/token/refresh/", handlers.RefreshToken)
		api.POST("/forgot-password/", handlers.ForgotPassword)
		api.POST("/verify-otp/", handlers.VerifyOTP)

		api.GET("/ws/", middleware.AuthMiddleware(), handlers.WebSocket)

		authed := api.Group("", middleware.AuthMiddleware(), middleware.CapabilityMiddleware())
		{
			authed.GET("/monitors/", handlers.ListMonitors)
			authed.POST("/monitors/", handlers.CreateMonitor)
			authed.GET("/monitors/:id/", handlers.GetMonitor)
			authed.PUT("/monitors/:id/", handlers.UpdateMonitor)
			authed.PATCH("/monitors/:id/", handlers.PatchMonitor)
			authed.DELETE("/monitors/:id/", handlers.DeleteMonitor)

			authed.GET("/incidents/", handlers.ListIncidents)
			authed.GET("/incidents/:id/", handlers.GetIncident)

			authed.GET("/alert-contacts/", handlers.ListAlertContacts)
			authed.POST("/alert-contacts/", handlers.CreateAlertContact)
			authed.DELETE("/alert-contacts/:id/", handlers.DeleteAlertContact)

			authed.GET("/status-pages/", handlers.ListStatusPages)
			authed.POST("/status-pages/", handlers.CreateStatusPage)
			authed.DELETE("/status-pages/:id/", handlers.DeleteStatusPage)

			authed.GET("/maintenance-windows/", handlers.ListMaintenanceWindows)
			authed.POST("/maintenance-windows/", handlers.CreateMaintenanceWindow)
			authed.DELETE("/maintenance-windows/:id/", handlers.DeleteMaintenanceWindow)
		}

		team := api.Group("/team", middleware.AuthMiddleware(), middleware.SuperAdminMiddleware())
		{
			team.GET("/", handlers.ListTeamMembers)
			team.POST("/", handlers.CreateTeamMember)
			team.PUT("/:id/", handlers.UpdateTeamMember)
			team.DELETE("/:id/", handlers.DeleteTeamMember)
		}
	}

	return r
}
