package watchers

import (
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/utils"
)

// Advisor delivers low-severity expiry notices. Satisfied by the alert
// dispatcher.
type Advisor interface {
	Advisory(monitor models.Monitor, message string)
}

// Thresholds are the days-remaining buckets that trigger an advisory,
// largest first.
var Thresholds = []int{30, 14, 7, 1}

// ExpiryWatcher runs coarse-schedule SSL-certificate and domain-registration
// expiry checks, independent of the probe interval. It caches expiry data on
// the monitor and emits advisories when a threshold bucket is first reached.
type ExpiryWatcher struct {
	db      *gorm.DB
	logger  *zap.Logger
	advisor Advisor
	cron    *cron.Cron
	spec    string

	mu       sync.Mutex
	notified map[string]int // "<monitor_id>:<kind>" -> last threshold advised
}

func NewExpiryWatcher(db *gorm.DB, logger *zap.Logger, advisor Advisor, cronSpec string) *ExpiryWatcher {
	if cronSpec == "" {
		cronSpec = "0 6 * * *"
	}

	return &ExpiryWatcher{
		db:       db,
		logger:   logger,
		advisor:  advisor,
		cron:     cron.New(),
		spec:     cronSpec,
		notified: make(map[string]int),
	}
}

func (w *ExpiryWatcher) Start() error {
	if _, err := w.cron.AddFunc(w.spec, w.RunOnce); err != nil {
		return fmt.Errorf("schedule expiry watcher: %w", err)
	}

	w.cron.Start()
	w.logger.Info("expiry watcher started", zap.String("spec", w.spec))
	return nil
}

func (w *ExpiryWatcher) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

// RunOnce sweeps all active monitors with expiry checks enabled.
func (w *ExpiryWatcher) RunOnce() {
	var monitors []models.Monitor

	if err := w.db.Where("is_active = ?", true).Find(&monitors).Error; err != nil {
		w.logger.Error("load monitors for expiry sweep", zap.Error(err))
		return
	}

	for _, monitor := range monitors {
		if monitor.CheckSSLExpiry && strings.HasPrefix(monitor.URL, "https") {
			w.checkSSL(monitor)
		}

		if monitor.CheckDomainExpiry {
			w.checkDomain(monitor)
		}
	}
}

func (w *ExpiryWatcher) checkSSL(monitor models.Monitor) {
	host, err := utils.ExtractHost(monitor.URL)

	if err != nil {
		return
	}

	expiry, issuer, err := FetchCertificate(host)

	if err != nil {
		w.logger.Warn("ssl expiry fetch failed",
			zap.Uint("monitor_id", monitor.ID),
			zap.String("host", host),
			zap.Error(err),
		)
		return
	}

	updates := map[string]interface{}{"ssl_expiry": expiry, "ssl_issuer": issuer}
	if err := w.db.Model(&models.Monitor{}).Where("id = ?", monitor.ID).Updates(updates).Error; err != nil {
		w.logger.Error("cache ssl expiry", zap.Uint("monitor_id", monitor.ID), zap.Error(err))
	}

	w.advise(monitor, "ssl", expiry, fmt.Sprintf("SSL certificate for %s expires", host))
}

func (w *ExpiryWatcher) checkDomain(monitor models.Monitor) {
	domain, err := utils.ExtractRawDomain(monitor.URL)

	if err != nil {
		return
	}

	expiry, err := FetchDomainExpiry(domain)

	if err != nil {
		w.logger.Warn("domain expiry fetch failed",
			zap.Uint("monitor_id", monitor.ID),
			zap.String("domain", domain),
			zap.Error(err),
		)
		return
	}

	if err := w.db.Model(&models.Monitor{}).Where("id = ?", monitor.ID).Update("domain_expiry", expiry).Error; err != nil {
		w.logger.Error("cache domain expiry", zap.Uint("monitor_id", monitor.ID), zap.Error(err))
	}

	w.advise(monitor, "domain", expiry, fmt.Sprintf("Domain registration for %s expires", domain))
}

// advise emits one advisory per threshold bucket as days-remaining shrinks.
func (w *ExpiryWatcher) advise(monitor models.Monitor, kind string, expiry time.Time, prefix string) {
	days := int(time.Until(expiry).Hours() / 24)
	bucket := ThresholdBucket(days)

	key := fmt.Sprintf("%d:%s", monitor.ID, kind)

	w.mu.Lock()
	last, seen := w.notified[key]

	if bucket == 0 {
		// Out of advisory range again, e.g. after renewal.
		delete(w.notified, key)
		w.mu.Unlock()
		return
	}

	if seen && bucket >= last {
		w.mu.Unlock()
		return
	}

	w.notified[key] = bucket
	w.mu.Unlock()

	message := fmt.Sprintf("%s in %d days (%s)", prefix, days, expiry.Format("2006-01-02"))

	w.logger.Warn("expiry advisory",
		zap.Uint("monitor_id", monitor.ID),
		zap.String("kind", kind),
		zap.Int("days_remaining", days),
	)

	if w.advisor != nil {
		w.advisor.Advisory(monitor, message)
	}
}

// ThresholdBucket returns the tightest threshold covering the remaining days,
// or 0 when no advisory applies.
func ThresholdBucket(days int) int {
	if days < 0 {
		days = 0
	}

	bucket := 0
	for _, t := range Thresholds {
		if days <= t {
			bucket = t
		}
	}

	return bucket
}

// FetchCertificate dials the host and returns the leaf certificate's expiry
// and issuer organization.
func FetchCertificate(host string) (time.Time, string, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, "443"), &tls.Config{ServerName: host})

	if err != nil {
		return time.Time{}, "", err
	}

	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates

	if len(certs) == 0 {
		return time.Time{}, "", fmt.Errorf("no peer certificates presented by %s", host)
	}

	leaf := certs[0]

	issuer := "Unknown"
	if len(leaf.Issuer.Organization) > 0 {
		issuer = leaf.Issuer.Organization[0]
	}

	return leaf.NotAfter, issuer, nil
}

// FetchDomainExpiry resolves the registry expiration date via WHOIS.
func FetchDomainExpiry(domain string) (time.Time, error) {
	raw, err := whois.Whois(domain)

	if err != nil {
		return time.Time{}, fmt.Errorf("whois query for %s: %w", domain, err)
	}

	parsed, err := whoisparser.Parse(raw)

	if err != nil {
		return time.Time{}, fmt.Errorf("parse whois for %s: %w", domain, err)
	}

	if parsed.Domain.ExpirationDateInTime == nil {
		return time.Time{}, fmt.Errorf("no expiration date in whois for %s", domain)
	}

	return *parsed.Domain.ExpirationDateInTime, nil
}
