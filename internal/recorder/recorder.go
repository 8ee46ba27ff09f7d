package recorder

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

// ErrMonitorGone marks a result discarded because its monitor was deleted or
// deactivated while the probe was in flight.
var ErrMonitorGone = errors.New("monitor deleted or inactive")

// maintenanceExclusion filters check records falling inside an active
// maintenance window out of aggregate queries.
const maintenanceExclusion = `NOT EXISTS (
	SELECT 1 FROM maintenance_windows mw
	WHERE mw.monitor_id = check_records.monitor_id
	AND mw.is_active
	AND mw.deleted_at IS NULL
	AND check_records.checked_at BETWEEN mw.start_time AND mw.end_time
)`

// Recorder is the single writer of CheckRecord rows.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record appends the probe outcome for a monitor. Results for monitors that
// were deleted or deactivated mid-flight are discarded.
func (r *Recorder) Record(monitorID uint, result types.CheckResult) (*models.CheckRecord, error) {
	var monitor models.Monitor

	if err := r.db.Where("id = ? AND is_active = ?", monitorID, true).First(&monitor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debug("discarding result for gone monitor", zap.Uint("monitor_id", monitorID))
			return nil, ErrMonitorGone
		}
		return nil, fmt.Errorf("load monitor %d: %w", monitorID, err)
	}

	record := models.CheckRecord{
		MonitorID:    monitorID,
		StatusCode:   result.StatusCode,
		ResponseTime: result.ResponseTime,
		IsUp:         result.IsUp,
		ErrorClass:   string(result.ErrorClass),
		ErrorMessage: result.ErrorMessage,
		CheckedAt:    result.CheckedAt,
	}

	if result.Telemetry != nil {
		record.CPUUsage = &result.Telemetry.CPUUsage
		record.RAMUsage = &result.Telemetry.RAMUsage
		record.DiskUsage = &result.Telemetry.DiskUsage
		record.SystemUptime = result.Telemetry.SystemUptime
	}

	if err := r.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("store check record for monitor %d: %w", monitorID, err)
	}

	return &record, nil
}

// Uptime computes the uptime percentage over the trailing window, excluding
// records inside active maintenance windows. A monitor with no records counts
// as fully up while active, fully down otherwise.
func (r *Recorder) Uptime(monitor *models.Monitor, window time.Duration) float64 {
	since := time.Now().Add(-window)

	var total, up int64

	r.db.Model(&models.CheckRecord{}).
		Where("monitor_id = ? AND checked_at >= ?", monitor.ID, since).
		Where(maintenanceExclusion).
		Count(&total)

	if total == 0 {
		if monitor.IsActive {
			return 100.0
		}
		return 0.0
	}

	r.db.Model(&models.CheckRecord{}).
		Where("monitor_id = ? AND checked_at >= ? AND is_up = ?", monitor.ID, since, true).
		Where(maintenanceExclusion).
		Count(&up)

	return math.Round(float64(up)/float64(total)*100*100) / 100
}

// Stats aggregates successful response times in milliseconds.
type Stats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r *Recorder) ResponseStats(monitorID uint) Stats {
	var row struct {
		Avg *float64
		Min *float64
		Max *float64
	}

	r.db.Model(&models.CheckRecord{}).
		Select("AVG(response_time) AS avg, MIN(response_time) AS min, MAX(response_time) AS max").
		Where("monitor_id = ? AND is_up = ?", monitorID, true).
		Scan(&row)

	toMs := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return math.Round(*v*1000*10) / 10
	}

	return Stats{Avg: toMs(row.Avg), Min: toMs(row.Min), Max: toMs(row.Max)}
}

// ResponseTimesHistory returns the last 30 successful response times in
// milliseconds, oldest first.
func (r *Recorder) ResponseTimesHistory(monitorID uint) []float64 {
	var records []models.CheckRecord

	r.db.Where("monitor_id = ? AND is_up = ?", monitorID, true).
		Order("checked_at DESC").
		Limit(30).
		Find(&records)

	history := make([]float64, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		history = append(history, math.Round(records[i].ResponseTime*1000*10)/10)
	}

	return history
}

// LastRecord returns the most recent check for a monitor, nil when none.
func (r *Recorder) LastRecord(monitorID uint) *models.CheckRecord {
	var record models.CheckRecord

	if err := r.db.Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		First(&record).Error; err != nil {
		return nil
	}

	return &record
}

// InMaintenance reports whether an active maintenance window covers the
// monitor at the given time.
func (r *Recorder) InMaintenance(monitorID uint, at time.Time) bool {
	var count int64

	r.db.Model(&models.MaintenanceWindow{}).
		Where("monitor_id = ? AND is_active = ? AND start_time <= ? AND end_time >= ?", monitorID, true, at, at).
		Count(&count)

	return count > 0
}
