package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

// Monitor categories
const (
	CategorySites = "SITES"
	CategorySSH   = "SSH"
)

// Monitor types
const (
	MonitorHTTP    = "HTTP"
	MonitorKeyword = "KEYWORD"
	MonitorPing    = "PING"
	MonitorPort    = "PORT"
	MonitorCron    = "CRON"
	MonitorAPI     = "API"
	MonitorSSH     = "SSH"
)

// Incident statuses
const (
	IncidentOpen     = "OPEN"
	IncidentResolved = "RESOLVED"
)

// Activity log types
const (
	LogInfo    = "INFO"
	LogSuccess = "SUCCESS"
	LogError   = "ERROR"
)

// Alert contact types
const (
	ContactEmail   = "EMAIL"
	ContactWebhook = "WEBHOOK"
	ContactSlack   = "SLACK"
	ContactDiscord = "DISCORD"
)

// User roles
const (
	RoleUser       = "USER"
	RoleSuperAdmin = "SUPERADMIN"
)

var MonitorTypes = []string{
	MonitorHTTP,
	MonitorKeyword,
	MonitorPing,
	MonitorPort,
	MonitorCron,
	MonitorAPI,
	MonitorSSH,
}

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	AllowedOrigins = initAllowedOrigins()
)

func initAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
