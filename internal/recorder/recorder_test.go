package recorder

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	return conn
}

func newTestMonitor(t *testing.T, conn *gorm.DB, active bool) models.Monitor {
	t.Helper()

	monitor := models.Monitor{
		Name:        "example",
		URL:         "https://example.com",
		MonitorType: types.MonitorHTTP,
		Interval:    5,
		Timeout:     30,
		IsActive:    active,
	}
	require.NoError(t, conn.Create(&monitor).Error)

	return monitor
}

func upResult(at time.Time, responseTime float64) types.CheckResult {
	code := 200
	return types.CheckResult{
		IsUp:         true,
		StatusCode:   &code,
		ResponseTime: responseTime,
		CheckedAt:    at,
	}
}

func downResult(at time.Time) types.CheckResult {
	return types.CheckResult{
		IsUp:         false,
		ErrorClass:   types.ClassTimeout,
		ErrorMessage: "request timed out",
		CheckedAt:    at,
	}
}

func TestRecordDiscardsGoneMonitor(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())

	inactive := newTestMonitor(t, conn, false)

	_, err := rec.Record(inactive.ID, upResult(time.Now(), 0.1))
	assert.ErrorIs(t, err, ErrMonitorGone)

	_, err = rec.Record(9999, upResult(time.Now(), 0.1))
	assert.ErrorIs(t, err, ErrMonitorGone)

	var count int64
	conn.Model(&models.CheckRecord{}).Count(&count)
	assert.Zero(t, count)
}

func TestRecordStoresTelemetry(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())
	monitor := newTestMonitor(t, conn, true)

	result := upResult(time.Now(), 0.05)
	result.Telemetry = &types.SSHTelemetry{
		CPUUsage:     12.5,
		RAMUsage:     61.2,
		DiskUsage:    48.0,
		SystemUptime: "up 3 days, 4 hours",
	}

	record, err := rec.Record(monitor.ID, result)
	require.NoError(t, err)
	require.NotNil(t, record.CPUUsage)
	assert.Equal(t, 12.5, *record.CPUUsage)
	assert.Equal(t, "up 3 days, 4 hours", record.SystemUptime)
}

func TestUptimeMath(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())
	monitor := newTestMonitor(t, conn, true)

	now := time.Now()
	for i := 0; i < 4; i++ {
		_, err := rec.Record(monitor.ID, upResult(now.Add(-time.Duration(i)*time.Minute), 0.1))
		require.NoError(t, err)
	}
	_, err := rec.Record(monitor.ID, downResult(now.Add(-5*time.Minute)))
	require.NoError(t, err)

	assert.Equal(t, 80.0, rec.Uptime(&monitor, 24*time.Hour))
}

func TestUptimeEmptyWindow(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())

	active := newTestMonitor(t, conn, true)
	assert.Equal(t, 100.0, rec.Uptime(&active, 24*time.Hour))

	inactive := newTestMonitor(t, conn, false)
	assert.Equal(t, 0.0, rec.Uptime(&inactive, 24*time.Hour))
}

func TestUptimeExcludesMaintenance(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())
	monitor := newTestMonitor(t, conn, true)

	now := time.Now()

	window := models.MaintenanceWindow{
		MonitorID: monitor.ID,
		Title:     "planned upgrade",
		StartTime: now.Add(-30 * time.Minute),
		EndTime:   now.Add(30 * time.Minute),
		IsActive:  true,
	}
	require.NoError(t, conn.Create(&window).Error)

	// Down checks inside the window must not drag uptime below 100.
	_, err := rec.Record(monitor.ID, downResult(now.Add(-10*time.Minute)))
	require.NoError(t, err)
	_, err = rec.Record(monitor.ID, upResult(now.Add(-2*time.Hour), 0.1))
	require.NoError(t, err)

	assert.Equal(t, 100.0, rec.Uptime(&monitor, 24*time.Hour))
}

func TestResponseStatsMilliseconds(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())
	monitor := newTestMonitor(t, conn, true)

	now := time.Now()
	_, err := rec.Record(monitor.ID, upResult(now.Add(-2*time.Minute), 0.1))
	require.NoError(t, err)
	_, err = rec.Record(monitor.ID, upResult(now.Add(-time.Minute), 0.3))
	require.NoError(t, err)
	// Failed checks never count toward response stats.
	_, err = rec.Record(monitor.ID, downResult(now))
	require.NoError(t, err)

	stats := rec.ResponseStats(monitor.ID)
	assert.Equal(t, 200.0, stats.Avg)
	assert.Equal(t, 100.0, stats.Min)
	assert.Equal(t, 300.0, stats.Max)
}

func TestResponseTimesHistoryOrderAndLimit(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())
	monitor := newTestMonitor(t, conn, true)

	now := time.Now()
	for i := 0; i < 35; i++ {
		result := upResult(now.Add(-time.Duration(35-i)*time.Minute), float64(i)/1000)
		_, err := rec.Record(monitor.ID, result)
		require.NoError(t, err)
	}

	history := rec.ResponseTimesHistory(monitor.ID)
	require.Len(t, history, 30)
	assert.Equal(t, 5.0, history[0])
	assert.Equal(t, 34.0, history[len(history)-1])
}

func TestLastRecord(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())
	monitor := newTestMonitor(t, conn, true)

	assert.Nil(t, rec.LastRecord(monitor.ID))

	now := time.Now()
	_, err := rec.Record(monitor.ID, upResult(now.Add(-time.Minute), 0.1))
	require.NoError(t, err)
	_, err = rec.Record(monitor.ID, downResult(now))
	require.NoError(t, err)

	last := rec.LastRecord(monitor.ID)
	require.NotNil(t, last)
	assert.False(t, last.IsUp)
}

func TestInMaintenance(t *testing.T) {
	conn := newTestDB(t)
	rec := New(conn, zap.NewNop())
	monitor := newTestMonitor(t, conn, true)

	now := time.Now()

	window := models.MaintenanceWindow{
		MonitorID: monitor.ID,
		Title:     "patching",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		IsActive:  true,
	}
	require.NoError(t, conn.Create(&window).Error)

	assert.True(t, rec.InMaintenance(monitor.ID, now))
	assert.False(t, rec.InMaintenance(monitor.ID, now.Add(2*time.Hour)))

	require.NoError(t, conn.Model(&window).Update("is_active", false).Error)
	assert.False(t, rec.InMaintenance(monitor.ID, now))
}
