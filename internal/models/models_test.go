package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

func TestProbeTimeoutCappedBelowInterval(t *testing.T) {
	m := Monitor{Interval: 1, Timeout: 120}
	assert.Equal(t, 59*time.Second, m.ProbeTimeout())

	m = Monitor{Interval: 5, Timeout: 30}
	assert.Equal(t, 30*time.Second, m.ProbeTimeout())

	m = Monitor{Interval: 5}
	assert.Equal(t, 30*time.Second, m.ProbeTimeout())
}

func TestIncidentDuration(t *testing.T) {
	started := time.Now().Add(-time.Hour)
	resolved := started.Add(30 * time.Minute)

	fixed := Incident{StartedAt: started, ResolvedAt: &resolved}
	assert.Equal(t, 30*time.Minute, fixed.Duration())

	live := Incident{StartedAt: started}
	assert.InDelta(t, time.Hour.Seconds(), live.Duration().Seconds(), 1)
}

func TestMaintenanceWindowCovers(t *testing.T) {
	now := time.Now()

	w := MaintenanceWindow{
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		IsActive:  true,
	}

	assert.True(t, w.Covers(now))
	assert.True(t, w.Covers(w.StartTime))
	assert.True(t, w.Covers(w.EndTime))
	assert.False(t, w.Covers(now.Add(2*time.Hour)))

	w.IsActive = false
	assert.False(t, w.Covers(now))
}

func TestUserCapabilities(t *testing.T) {
	admin := User{Role: types.RoleSuperAdmin}
	assert.True(t, admin.Can("create"))
	assert.True(t, admin.Can("delete"))

	user := User{Role: types.RoleUser, CanCreate: true}
	assert.True(t, user.Can("create"))
	assert.False(t, user.Can("edit"))
	assert.False(t, user.Can("delete"))
	assert.False(t, user.Can("unknown"))
}
