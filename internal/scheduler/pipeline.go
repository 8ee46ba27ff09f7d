package scheduler

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/incidents"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/recorder"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

// Refresher is notified after each processed result so live dashboards can
// re-fetch. Optional.
type Refresher interface {
	Refresh(event string)
}

// Pipeline feeds probe outcomes through the recorder and the incident engine.
// Results for the same monitor are serialized with a per-monitor lock so the
// one-open-incident invariant and monotonic record history hold; results for
// different monitors proceed in parallel.
type Pipeline struct {
	recorder *recorder.Recorder
	engine   *incidents.Engine
	logger   *zap.Logger
	hub      Refresher

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewPipeline(rec *recorder.Recorder, engine *incidents.Engine, logger *zap.Logger, hub Refresher) *Pipeline {
	return &Pipeline{
		recorder: rec,
		engine:   engine,
		logger:   logger,
		hub:      hub,
		locks:    make(map[uint]*sync.Mutex),
	}
}

func (p *Pipeline) Process(monitor models.Monitor, result types.CheckResult) {
	lock := p.lockFor(monitor.ID)
	lock.Lock()
	defer lock.Unlock()

	// History must be durable before incident logic runs.
	if _, err := p.recorder.Record(monitor.ID, result); err != nil {
		if errors.Is(err, recorder.ErrMonitorGone) {
			p.engine.Forget(monitor.ID)
			return
		}

		p.logger.Error("record check result",
			zap.Uint("monitor_id", monitor.ID),
			zap.Error(err),
		)
		return
	}

	p.engine.Apply(monitor, result)

	if p.hub != nil {
		p.hub.Refresh("check")
	}
}

func (p *Pipeline) lockFor(monitorID uint) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[monitorID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[monitorID] = lock
	}

	return lock
}
