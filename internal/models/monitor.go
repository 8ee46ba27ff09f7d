package models

import (
	"time"

	"gorm.io/datatypes"
)

type Monitor struct {
	BaseModel

	Category    string `gorm:"not null;default:SITES" json:"category"` // SITES, SSH
	Name        string `gorm:"not null" json:"name"`
	URL         string `gorm:"not null" json:"url"` // URL, IP or hostname
	MonitorType string `gorm:"not null;default:HTTP;index" json:"monitor_type"`

	// Keyword monitoring
	Keyword string `json:"keyword"`

	// Port monitoring
	Port *int `json:"port"`

	// HTTP/API settings
	HTTPMethod         string         `gorm:"default:GET" json:"http_method"`
	PostData           string         `json:"post_data"`
	ExpectedStatusCode *int           `json:"expected_status_code"`
	RequestHeaders     datatypes.JSON `json:"request_headers"`

	// SSH settings
	SSHUsername string `json:"ssh_username"`
	SSHPassword string `json:"-"`
	SSHKey      string `json:"-"`

	Interval int `gorm:"not null;default:5" json:"interval"` // minutes
	Timeout  int `gorm:"not null;default:30" json:"timeout"` // seconds

	// Monitoring options. Creation defaults are set in the handler layer;
	// gorm default tags on bools drop explicit false values.
	DNSMonitoring     bool `json:"dns_monitoring"`
	CheckSSLErrors    bool `json:"check_ssl_errors"`
	CheckSSLExpiry    bool `json:"check_ssl_expiry"`
	CheckDomainExpiry bool `json:"check_domain_expiry"`

	// Notification settings
	NotifyEmail bool `json:"notify_email"`
	NotifyPhone bool `json:"notify_phone"`

	// SSL & domain info cached by the expiry watchers
	SSLExpiry    *time.Time `json:"ssl_expiry"`
	SSLIssuer    string     `json:"ssl_issuer"`
	DomainExpiry *time.Time `json:"domain_expiry"`

	VisibleOnStatusPage bool `json:"visible_on_status_page"`
	IsActive            bool `gorm:"index" json:"is_active"`

	// Relationships
	AlertContacts []AlertContact `gorm:"many2many:monitor_alert_contacts;constraint:OnDelete:CASCADE" json:"-"`
	CheckRecords  []CheckRecord  `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Incidents     []Incident     `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// ProbeTimeout bounds the driver timeout strictly below the check interval.
func (m *Monitor) ProbeTimeout() time.Duration {
	timeout := time.Duration(m.Timeout) * time.Second

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	interval := time.Duration(m.Interval) * time.Minute

	if interval > 0 && timeout >= interval {
		timeout = interval - time.Second
	}

	return timeout
}
