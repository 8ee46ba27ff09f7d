package alerts

// Discord and Slack webhook payloads.

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

// WebhookPayload is the generic JSON body for plain WEBHOOK contacts.
type WebhookPayload struct {
	Event       string `json:"event"`
	MonitorID   uint   `json:"monitor_id"`
	MonitorName string `json:"monitor_name"`
	MonitorURL  string `json:"monitor_url"`
	RootCause   string `json:"root_cause,omitempty"`
	StartedAt   string `json:"started_at,omitempty"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Message     string `json:"message,omitempty"`
}

const (
	ColorRed   = 16711680 // incident opened
	ColorGreen = 65280    // incident resolved
	ColorAmber = 16753920 // advisory

	SenderName = "MarketBytes Pulse"
)
