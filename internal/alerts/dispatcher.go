package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/utils"
)

const (
	EventOpened   = "opened"
	EventResolved = "resolved"
	EventAdvisory = "advisory"
)

// Options tune retry behavior for transient send failures.
type Options struct {
	RetryCeiling int           // total attempts per contact
	RetryBackoff time.Duration // first retry delay, doubled per attempt
}

// Dispatcher fans incident transitions out to a monitor's subscribed alert
// contacts. Dispatch is fire-and-forget: a notification failure never blocks
// or rolls back the incident transition that triggered it.
type Dispatcher struct {
	db     *gorm.DB
	logger *zap.Logger
	mailer Mailer
	client *http.Client
	opts   Options
}

func NewDispatcher(db *gorm.DB, logger *zap.Logger, mailer Mailer, opts Options) *Dispatcher {
	if opts.RetryCeiling <= 0 {
		opts.RetryCeiling = 3
	}

	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}

	return &Dispatcher{
		db:     db,
		logger: logger,
		mailer: mailer,
		client: &http.Client{Timeout: 15 * time.Second},
		opts:   opts,
	}
}

func (d *Dispatcher) IncidentOpened(monitor models.Monitor, incident models.Incident) {
	go d.dispatch(monitor, &incident, EventOpened)
}

func (d *Dispatcher) IncidentResolved(monitor models.Monitor, incident models.Incident) {
	go d.dispatch(monitor, &incident, EventResolved)
}

// Advisory emits a low-severity notification (e.g. certificate expiring soon)
// through the same contact adapters without opening an incident.
func (d *Dispatcher) Advisory(monitor models.Monitor, message string) {
	go d.dispatch(monitor, nil, EventAdvisory, message)
}

func (d *Dispatcher) dispatch(monitor models.Monitor, incident *models.Incident, event string, extra ...string) {
	dispatchID := uuid.NewString()

	var contacts []models.AlertContact
	if err := d.db.Model(&monitor).Association("AlertContacts").Find(&contacts); err != nil {
		d.logger.Error("load alert contacts",
			zap.String("dispatch_id", dispatchID),
			zap.Uint("monitor_id", monitor.ID),
			zap.Error(err),
		)
		return
	}

	message := ""
	if len(extra) > 0 {
		message = extra[0]
	}

	for _, contact := range contacts {
		if contact.ContactType == types.ContactEmail && !monitor.NotifyEmail {
			continue
		}

		if err := d.sendWithRetry(monitor, incident, contact, event, message); err != nil {
			d.logger.Error("alert delivery exhausted",
				zap.String("dispatch_id", dispatchID),
				zap.Uint("monitor_id", monitor.ID),
				zap.Uint("contact_id", contact.ID),
				zap.String("contact_type", contact.ContactType),
				zap.Error(err),
			)

			if incident != nil {
				entry := models.ActivityLog{
					IncidentID: incident.ID,
					Message:    fmt.Sprintf("Alert delivery to %s (%s) failed permanently: %v", contact.Name, contact.ContactType, err),
					LogType:    types.LogError,
					Timestamp:  time.Now(),
				}
				d.db.Create(&entry)
			}
		}
	}
}

// sendWithRetry attempts delivery with exponential backoff up to the ceiling.
func (d *Dispatcher) sendWithRetry(monitor models.Monitor, incident *models.Incident, contact models.AlertContact, event, message string) error {
	var lastErr error
	backoff := d.opts.RetryBackoff

	for attempt := 1; attempt <= d.opts.RetryCeiling; attempt++ {
		lastErr = d.send(monitor, incident, contact, event, message)

		if lastErr == nil {
			return nil
		}

		if attempt < d.opts.RetryCeiling {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return lastErr
}

func (d *Dispatcher) send(monitor models.Monitor, incident *models.Incident, contact models.AlertContact, event, message string) error {
	switch contact.ContactType {
	case types.ContactEmail:
		return d.sendEmail(monitor, incident, contact, event, message)
	case types.ContactWebhook:
		return d.sendWebhook(monitor, incident, contact, event, message)
	case types.ContactSlack:
		return d.sendSlack(monitor, incident, contact, event, message)
	case types.ContactDiscord:
		return d.sendDiscord(monitor, incident, contact, event, message)
	default:
		return fmt.Errorf("unsupported contact type: %s", contact.ContactType)
	}
}

func (d *Dispatcher) sendEmail(monitor models.Monitor, incident *models.Incident, contact models.AlertContact, event, message string) error {
	if d.mailer == nil {
		return fmt.Errorf("mailer not configured")
	}

	var subject, body string

	switch event {
	case EventOpened:
		subject = fmt.Sprintf("CRITICAL: %s Pulse Failure", monitor.Name)
		body = fmt.Sprintf("Monitor: %s\nURL: %s\nRoot Cause: %s\nTime: %s\n",
			monitor.Name, monitor.URL, incident.RootCause, incident.StartedAt.Format(time.RFC3339))
	case EventResolved:
		subject = fmt.Sprintf("RESOLVED: %s is back online", monitor.Name)
		body = fmt.Sprintf("Monitor: %s\nURL: %s\nDowntime: %s\nResolved: %s\n",
			monitor.Name, monitor.URL, utils.FormatDuration(incident.Duration()), incident.ResolvedAt.Format(time.RFC3339))
	default:
		subject = fmt.Sprintf("ADVISORY: %s", monitor.Name)
		body = fmt.Sprintf("Monitor: %s\nURL: %s\n%s\n", monitor.Name, monitor.URL, message)
	}

	return d.mailer.Send(contact.Value, subject, body)
}

func (d *Dispatcher) sendWebhook(monitor models.Monitor, incident *models.Incident, contact models.AlertContact, event, message string) error {
	payload := WebhookPayload{
		Event:       event,
		MonitorID:   monitor.ID,
		MonitorName: monitor.Name,
		MonitorURL:  monitor.URL,
		Message:     message,
	}

	if incident != nil {
		payload.RootCause = incident.RootCause
		payload.StartedAt = incident.StartedAt.Format(time.RFC3339)
		if incident.ResolvedAt != nil {
			payload.ResolvedAt = incident.ResolvedAt.Format(time.RFC3339)
			payload.Duration = utils.FormatDuration(incident.Duration())
		}
	}

	return d.postJSON(contact.Value, payload)
}

func (d *Dispatcher) sendSlack(monitor models.Monitor, incident *models.Incident, contact models.AlertContact, event, message string) error {
	payload := SlackWebhookRequest{
		Username: SenderName,
	}

	switch event {
	case EventOpened:
		payload.IconEmoji = ":rotating_light:"
		payload.Text = ":rotating_light: *INCIDENT DETECTED*"
		payload.Attachments = []SlackAttachment{{
			Color: "danger",
			Title: fmt.Sprintf("Monitor '%s' has encountered an issue", monitor.Name),
			Text:  incident.RootCause,
			Fields: []SlackField{
				{Title: "Monitor", Value: monitor.Name, Short: true},
				{Title: "Type", Value: monitor.MonitorType, Short: true},
				{Title: "Target", Value: monitor.URL, Short: false},
				{Title: "Started At", Value: incident.StartedAt.Format("2006-01-02 15:04:05 UTC"), Short: false},
			},
			Footer:    SenderName,
			Timestamp: time.Now().Unix(),
		}}
	case EventResolved:
		payload.IconEmoji = ":white_check_mark:"
		payload.Text = ":white_check_mark: *INCIDENT RESOLVED*"
		payload.Attachments = []SlackAttachment{{
			Color: "good",
			Title: fmt.Sprintf("Monitor '%s' is back to normal operation", monitor.Name),
			Text:  "The incident has been resolved and the monitor is functioning normally.",
			Fields: []SlackField{
				{Title: "Monitor", Value: monitor.Name, Short: true},
				{Title: "Type", Value: monitor.MonitorType, Short: true},
				{Title: "Duration", Value: utils.FormatDuration(incident.Duration()), Short: true},
			},
			Footer:    SenderName,
			Timestamp: time.Now().Unix(),
		}}
	default:
		payload.IconEmoji = ":warning:"
		payload.Text = fmt.Sprintf(":warning: *ADVISORY* - %s: %s", monitor.Name, message)
	}

	return d.postJSON(contact.Value, payload)
}

func (d *Dispatcher) sendDiscord(monitor models.Monitor, incident *models.Incident, contact models.AlertContact, event, message string) error {
	embed := DiscordEmbed{
		Timestamp: time.Now().Format(time.RFC3339),
		Footer:    &DiscordFooter{Text: SenderName},
	}

	switch event {
	case EventOpened:
		embed.Title = "🚨 **INCIDENT DETECTED**"
		embed.Description = fmt.Sprintf("**%s** has encountered an issue and requires attention.", monitor.Name)
		embed.Color = ColorRed
		embed.Fields = []DiscordWebhookField{
			{Name: "Monitor", Value: monitor.Name, Inline: true},
			{Name: "Type", Value: monitor.MonitorType, Inline: true},
			{Name: "Root Cause", Value: incident.RootCause, Inline: false},
			{Name: "Started At", Value: incident.StartedAt.Format("2006-01-02 15:04:05 UTC"), Inline: true},
		}
	case EventResolved:
		embed.Title = "✅ **INCIDENT RESOLVED**"
		embed.Description = fmt.Sprintf("**%s** is back to normal operation.", monitor.Name)
		embed.Color = ColorGreen
		embed.Fields = []DiscordWebhookField{
			{Name: "Monitor", Value: monitor.Name, Inline: true},
			{Name: "Duration", Value: utils.FormatDuration(incident.Duration()), Inline: true},
		}
	default:
		embed.Title = "⚠️ **ADVISORY**"
		embed.Description = fmt.Sprintf("**%s**: %s", monitor.Name, message)
		embed.Color = ColorAmber
	}

	payload := DiscordWebhookRequest{
		Username: SenderName,
		Embeds:   []DiscordEmbed{embed},
	}

	return d.postJSON(contact.Value, payload)
}

func (d *Dispatcher) postJSON(url string, payload interface{}) error {
	body, err := json.Marshal(payload)

	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := d.client.Post(url, "application/json", bytes.NewBuffer(body))

	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
