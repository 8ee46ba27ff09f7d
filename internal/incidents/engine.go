package incidents

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

// Notifier receives incident transition events. Dispatch must never block or
// fail the state transition.
type Notifier interface {
	IncidentOpened(monitor models.Monitor, incident models.Incident)
	IncidentResolved(monitor models.Monitor, incident models.Incident)
}

// Options tune the transition policy.
type Options struct {
	// Debounce is the number of consecutive down results required to open an
	// incident. Timeout and connection-refused classes open immediately.
	Debounce int
	// DegradedLogInterval rate-limits "still failing" activity entries while
	// an incident stays open.
	DegradedLogInterval time.Duration
}

// MaintenanceChecker reports whether a monitor sits inside an active
// maintenance window.
type MaintenanceChecker interface {
	InMaintenance(monitorID uint, at time.Time) bool
}

// Engine drives the HEALTHY/DEGRADED state machine per monitor. Callers must
// serialize results for the same monitor; results for different monitors may
// arrive concurrently.
type Engine struct {
	db          *gorm.DB
	logger      *zap.Logger
	notifier    Notifier
	maintenance MaintenanceChecker
	opts        Options

	mu          sync.Mutex
	streak      map[uint]int
	streakStart map[uint]time.Time
	lastInfoLog map[uint]time.Time
}

func NewEngine(db *gorm.DB, logger *zap.Logger, notifier Notifier, maintenance MaintenanceChecker, opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = 2
	}

	if opts.DegradedLogInterval <= 0 {
		opts.DegradedLogInterval = 10 * time.Minute
	}

	return &Engine{
		db:          db,
		logger:      logger,
		notifier:    notifier,
		maintenance: maintenance,
		opts:        opts,
		streak:      make(map[uint]int),
		streakStart: make(map[uint]time.Time),
		lastInfoLog: make(map[uint]time.Time),
	}
}

// Apply feeds one probe outcome into the state machine.
func (e *Engine) Apply(monitor models.Monitor, result types.CheckResult) {
	open := e.openIncident(monitor.ID)

	if result.IsUp {
		e.resetStreak(monitor.ID)

		if open != nil {
			e.resolve(monitor, open, result)
		}

		return
	}

	if open != nil {
		e.logStillFailing(open, result)
		return
	}

	count, start := e.bumpStreak(monitor.ID, result.CheckedAt)

	if count < e.opts.Debounce && !result.ErrorClass.Immediate() {
		return
	}

	if e.maintenance.InMaintenance(monitor.ID, result.CheckedAt) {
		e.logger.Info("failure suppressed by maintenance window",
			zap.Uint("monitor_id", monitor.ID),
			zap.String("monitor_name", monitor.Name),
			zap.String("error", result.ErrorMessage),
		)
		return
	}

	e.open(monitor, result, start)
}

// openIncident finds the monitor's OPEN incident and heals any consistency
// violation by resolving all but the most recent one.
func (e *Engine) openIncident(monitorID uint) *models.Incident {
	var openIncidents []models.Incident

	if err := e.db.Where("monitor_id = ? AND status = ?", monitorID, types.IncidentOpen).
		Order("started_at DESC").
		Find(&openIncidents).Error; err != nil {
		e.logger.Error("load open incidents", zap.Uint("monitor_id", monitorID), zap.Error(err))
		return nil
	}

	if len(openIncidents) == 0 {
		return nil
	}

	if len(openIncidents) > 1 {
		e.logger.Error("consistency violation: multiple open incidents",
			zap.Uint("monitor_id", monitorID),
			zap.Int("count", len(openIncidents)),
		)

		now := time.Now()
		for i := 1; i < len(openIncidents); i++ {
			stale := &openIncidents[i]
			stale.Status = types.IncidentResolved
			stale.ResolvedAt = &now

			if err := e.db.Save(stale).Error; err != nil {
				e.logger.Error("heal stale incident", zap.Uint("incident_id", stale.ID), zap.Error(err))
				continue
			}

			e.appendActivity(stale.ID, types.LogError, "Duplicate open incident closed by consistency check")
		}
	}

	return &openIncidents[0]
}

func (e *Engine) open(monitor models.Monitor, result types.CheckResult, startedAt time.Time) {
	incident := models.Incident{
		MonitorID: monitor.ID,
		Status:    types.IncidentOpen,
		RootCause: rootCause(result),
		StartedAt: startedAt,
	}

	if err := e.db.Create(&incident).Error; err != nil {
		e.logger.Error("create incident", zap.Uint("monitor_id", monitor.ID), zap.Error(err))
		return
	}

	e.appendActivity(incident.ID, types.LogError, fmt.Sprintf("Pulse failure detected: %s", rootCause(result)))

	e.logger.Warn("incident opened",
		zap.Uint("monitor_id", monitor.ID),
		zap.String("monitor_name", monitor.Name),
		zap.String("root_cause", incident.RootCause),
	)

	if e.notifier != nil {
		e.notifier.IncidentOpened(monitor, incident)
	}
}

func (e *Engine) resolve(monitor models.Monitor, incident *models.Incident, result types.CheckResult) {
	resolvedAt := result.CheckedAt
	incident.Status = types.IncidentResolved
	incident.ResolvedAt = &resolvedAt

	if err := e.db.Save(incident).Error; err != nil {
		e.logger.Error("resolve incident", zap.Uint("incident_id", incident.ID), zap.Error(err))
		return
	}

	e.appendActivity(incident.ID, types.LogSuccess, "Incident resolved. Status restored to operational.")

	e.logger.Info("incident resolved",
		zap.Uint("monitor_id", monitor.ID),
		zap.String("monitor_name", monitor.Name),
		zap.Duration("duration", incident.Duration()),
	)

	if e.maintenance.InMaintenance(monitor.ID, result.CheckedAt) {
		e.logger.Info("resolution alert suppressed by maintenance window",
			zap.Uint("monitor_id", monitor.ID),
			zap.String("monitor_name", monitor.Name),
		)
		return
	}

	if e.notifier != nil {
		e.notifier.IncidentResolved(monitor, *incident)
	}
}

// logStillFailing appends a rate-limited INFO entry while the monitor keeps
// failing, instead of opening a duplicate incident.
func (e *Engine) logStillFailing(incident *models.Incident, result types.CheckResult) {
	e.mu.Lock()
	last, ok := e.lastInfoLog[incident.MonitorID]
	if ok && result.CheckedAt.Sub(last) < e.opts.DegradedLogInterval {
		e.mu.Unlock()
		return
	}
	e.lastInfoLog[incident.MonitorID] = result.CheckedAt
	e.mu.Unlock()

	e.appendActivity(incident.ID, types.LogInfo, fmt.Sprintf("Pulse still failing: %s", rootCause(result)))
}

func (e *Engine) appendActivity(incidentID uint, logType, message string) {
	entry := models.ActivityLog{
		IncidentID: incidentID,
		Message:    message,
		LogType:    logType,
		Timestamp:  time.Now(),
	}

	if err := e.db.Create(&entry).Error; err != nil {
		e.logger.Error("append activity log", zap.Uint("incident_id", incidentID), zap.Error(err))
	}
}

func (e *Engine) bumpStreak(monitorID uint, checkedAt time.Time) (int, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.streak[monitorID]++
	if e.streak[monitorID] == 1 {
		e.streakStart[monitorID] = checkedAt
	}

	return e.streak[monitorID], e.streakStart[monitorID]
}

func (e *Engine) resetStreak(monitorID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.streak, monitorID)
	delete(e.streakStart, monitorID)
	delete(e.lastInfoLog, monitorID)
}

// Forget drops in-memory streak state for a deleted monitor.
func (e *Engine) Forget(monitorID uint) {
	e.resetStreak(monitorID)
}

func rootCause(result types.CheckResult) string {
	if result.ErrorMessage != "" {
		return result.ErrorMessage
	}

	if result.StatusCode != nil {
		return fmt.Sprintf("Status Code: %d", *result.StatusCode)
	}

	return "Unknown failure"
}
