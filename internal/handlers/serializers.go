package handlers

import (
	"time"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/recorder"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/utils"
)

type ActivityResponse struct {
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	LogType   string    `json:"log_type"`
	Timestamp time.Time `json:"timestamp"`
}

type IncidentResponse struct {
	ID          uint               `json:"id"`
	Monitor     uint               `json:"monitor"`
	MonitorName string             `json:"monitor_name"`
	Status      string             `json:"status"`
	RootCause   string             `json:"root_cause"`
	Comments    string             `json:"comments"`
	StartedAt   time.Time          `json:"started_at"`
	ResolvedAt  *time.Time         `json:"resolved_at"`
	DurationStr string             `json:"duration_str"`
	Activities  []ActivityResponse `json:"activities"`
}

type MonitorResponse struct {
	models.Monitor

	AlertContactIDs      []uint              `json:"alert_contacts"`
	LastRecord           *models.CheckRecord `json:"last_record"`
	UptimePercentage24h  float64             `json:"uptime_percentage_24h"`
	Uptime7d             float64             `json:"uptime_7d"`
	Uptime30d            float64             `json:"uptime_30d"`
	Uptime365d           float64             `json:"uptime_365d"`
	ResponseTimesHistory []float64           `json:"response_times_history"`
	Stats                recorder.Stats      `json:"stats"`
	RecentIncidents      []IncidentResponse  `json:"recent_incidents"`
}

// serializeIncident builds the wire form with live duration and oldest-first
// activities.
func serializeIncident(incident models.Incident, monitorName string) IncidentResponse {
	var activities []models.ActivityLog

	db.DB.Where("incident_id = ?", incident.ID).
		Order("timestamp ASC").
		Find(&activities)

	activityResponses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		activityResponses = append(activityResponses, ActivityResponse{
			ID:        activity.ID,
			Message:   activity.Message,
			LogType:   activity.LogType,
			Timestamp: activity.Timestamp,
		})
	}

	return IncidentResponse{
		ID:          incident.ID,
		Monitor:     incident.MonitorID,
		MonitorName: monitorName,
		Status:      incident.Status,
		RootCause:   incident.RootCause,
		Comments:    incident.Comments,
		StartedAt:   incident.StartedAt,
		ResolvedAt:  incident.ResolvedAt,
		DurationStr: utils.FormatDuration(incident.Duration()),
		Activities:  activityResponses,
	}
}

// serializeMonitor decorates a monitor with its derived aggregates. All
// window percentages are recomputed at read time, never cached.
func serializeMonitor(monitor models.Monitor) MonitorResponse {
	var contacts []models.AlertContact
	db.DB.Model(&monitor).Association("AlertContacts").Find(&contacts)

	contactIDs := make([]uint, 0, len(contacts))
	for _, contact := range contacts {
		contactIDs = append(contactIDs, contact.ID)
	}

	var incidents []models.Incident
	db.DB.Where("monitor_id = ?", monitor.ID).
		Order("started_at DESC").
		Limit(5).
		Find(&incidents)

	recent := make([]IncidentResponse, 0, len(incidents))
	for _, incident := range incidents {
		recent = append(recent, serializeIncident(incident, monitor.Name))
	}

	return MonitorResponse{
		Monitor:              monitor,
		AlertContactIDs:      contactIDs,
		LastRecord:           rec.LastRecord(monitor.ID),
		UptimePercentage24h:  rec.Uptime(&monitor, 24*time.Hour),
		Uptime7d:             rec.Uptime(&monitor, 7*24*time.Hour),
		Uptime30d:            rec.Uptime(&monitor, 30*24*time.Hour),
		Uptime365d:           rec.Uptime(&monitor, 365*24*time.Hour),
		ResponseTimesHistory: rec.ResponseTimesHistory(monitor.ID),
		Stats:                rec.ResponseStats(monitor.ID),
		RecentIncidents:      recent,
	}
}
