package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

type staticProber struct {
	result types.CheckResult
}

func (p *staticProber) Probe(ctx context.Context, monitor models.Monitor) types.CheckResult {
	return p.result
}

func testMonitor(id uint, intervalMinutes int) models.Monitor {
	monitor := models.Monitor{
		Name:        "example",
		URL:         "https://example.com",
		MonitorType: types.MonitorHTTP,
		Interval:    intervalMinutes,
		Timeout:     30,
		IsActive:    true,
	}
	monitor.ID = id
	return monitor
}

func TestDispatchDueEnqueuesAndReschedules(t *testing.T) {
	s := New(nil, zap.NewNop(), &staticProber{}, nil, Options{Workers: 2})

	s.AddMonitor(testMonitor(1, 5))

	now := time.Now()
	s.dispatchDue(now)

	select {
	case monitor := <-s.tasks:
		assert.Equal(t, uint(1), monitor.ID)
	default:
		t.Fatal("expected a queued probe")
	}

	// Not due again until the interval elapses.
	s.dispatchDue(now.Add(time.Minute))
	select {
	case <-s.tasks:
		t.Fatal("monitor dispatched before its interval")
	default:
	}

	s.dispatchDue(now.Add(6 * time.Minute))
	select {
	case monitor := <-s.tasks:
		assert.Equal(t, uint(1), monitor.ID)
	default:
		t.Fatal("expected the monitor to be due again")
	}
}

func TestDispatchDueDefersWhenQueueFull(t *testing.T) {
	s := New(nil, zap.NewNop(), &staticProber{}, nil, Options{Workers: 1})

	// Fill the queue so nothing else fits.
	for i := 0; i < cap(s.tasks); i++ {
		s.tasks <- testMonitor(uint(100+i), 5)
	}

	s.AddMonitor(testMonitor(1, 5))
	s.dispatchDue(time.Now())

	// Drain and confirm the deferred monitor goes out on the next tick.
	for i := 0; i < cap(s.tasks); i++ {
		<-s.tasks
	}

	s.dispatchDue(time.Now())

	select {
	case monitor := <-s.tasks:
		assert.Equal(t, uint(1), monitor.ID)
	default:
		t.Fatal("deferred monitor was never dispatched")
	}
}

func TestRemoveMonitorStopsScheduling(t *testing.T) {
	s := New(nil, zap.NewNop(), &staticProber{}, nil, Options{Workers: 1})

	s.AddMonitor(testMonitor(1, 5))
	require.True(t, s.Tracked(1))

	s.RemoveMonitor(1)
	assert.False(t, s.Tracked(1))

	s.dispatchDue(time.Now())
	select {
	case <-s.tasks:
		t.Fatal("removed monitor was dispatched")
	default:
	}
}

func TestUpdateMonitorMakesItDueImmediately(t *testing.T) {
	s := New(nil, zap.NewNop(), &staticProber{}, nil, Options{Workers: 1})

	s.AddMonitor(testMonitor(1, 5))
	s.dispatchDue(time.Now())
	select {
	case <-s.tasks:
	default:
		t.Fatal("added monitor was not dispatched")
	}

	updated := testMonitor(1, 10)
	s.UpdateMonitor(updated)

	s.dispatchDue(time.Now())
	select {
	case monitor := <-s.tasks:
		assert.Equal(t, 10, monitor.Interval)
	default:
		t.Fatal("updated monitor was not rescheduled immediately")
	}
}

func TestIntervalFloor(t *testing.T) {
	assert.Equal(t, time.Minute, interval(testMonitor(1, 0)))
	assert.Equal(t, 5*time.Minute, interval(testMonitor(1, 5)))
}
