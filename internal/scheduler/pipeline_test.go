package scheduler

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/incidents"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/recorder"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

type countingHub struct {
	refreshes int
}

func (h *countingHub) Refresh(event string) {
	h.refreshes++
}

type noopNotifier struct{}

func (noopNotifier) IncidentOpened(monitor models.Monitor, incident models.Incident)   {}
func (noopNotifier) IncidentResolved(monitor models.Monitor, incident models.Incident) {}

func newPipelineTest(t *testing.T) (*gorm.DB, *Pipeline, *countingHub) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	rec := recorder.New(conn, zap.NewNop())
	engine := incidents.NewEngine(conn, zap.NewNop(), noopNotifier{}, rec, incidents.Options{Debounce: 2})
	hub := &countingHub{}

	return conn, NewPipeline(rec, engine, zap.NewNop(), hub), hub
}

func TestPipelineRecordsThenAppliesIncidentLogic(t *testing.T) {
	conn, pipeline, hub := newPipelineTest(t)

	monitor := testMonitor(0, 5)
	require.NoError(t, conn.Create(&monitor).Error)

	pipeline.Process(monitor, types.CheckResult{
		IsUp:         false,
		ErrorClass:   types.ClassTimeout,
		ErrorMessage: "request timed out",
		CheckedAt:    time.Now(),
	})

	var records int64
	conn.Model(&models.CheckRecord{}).Count(&records)
	assert.Equal(t, int64(1), records)

	var incidentCount int64
	conn.Model(&models.Incident{}).Where("status = ?", types.IncidentOpen).Count(&incidentCount)
	assert.Equal(t, int64(1), incidentCount)

	assert.Equal(t, 1, hub.refreshes)
}

func TestPipelineDiscardsResultsForGoneMonitor(t *testing.T) {
	conn, pipeline, hub := newPipelineTest(t)

	monitor := testMonitor(0, 5)
	monitor.IsActive = false
	require.NoError(t, conn.Create(&monitor).Error)

	pipeline.Process(monitor, types.CheckResult{
		IsUp:         false,
		ErrorClass:   types.ClassTimeout,
		ErrorMessage: "request timed out",
		CheckedAt:    time.Now(),
	})

	var records int64
	conn.Model(&models.CheckRecord{}).Count(&records)
	assert.Zero(t, records)

	var incidentCount int64
	conn.Model(&models.Incident{}).Count(&incidentCount)
	assert.Zero(t, incidentCount)

	assert.Zero(t, hub.refreshes)
}
