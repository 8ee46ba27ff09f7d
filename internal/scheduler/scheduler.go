package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

// Prober executes a probe for a monitor under its timeout.
type Prober interface {
	Probe(ctx context.Context, monitor models.Monitor) types.CheckResult
}

// Options tune the tick granularity and the probe worker pool.
type Options struct {
	Tick    time.Duration
	Workers int
}

type entry struct {
	monitor models.Monitor
	nextDue time.Time
}

// Scheduler tracks per-monitor due times and dispatches due probes to a
// bounded worker pool. The tick loop never blocks on a probe.
type Scheduler struct {
	db       *gorm.DB
	logger   *zap.Logger
	prober   Prober
	pipeline *Pipeline
	opts     Options

	mu       sync.RWMutex
	monitors map[uint]*entry

	tasks  chan models.Monitor
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(db *gorm.DB, logger *zap.Logger, prober Prober, pipeline *Pipeline, opts Options) *Scheduler {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}

	if opts.Workers <= 0 {
		opts.Workers = 16
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		db:       db,
		logger:   logger,
		prober:   prober,
		pipeline: pipeline,
		opts:     opts,
		monitors: make(map[uint]*entry),
		tasks:    make(chan models.Monitor, opts.Workers*4),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start loads all active monitors and begins scheduling. Every loaded monitor
// is due immediately, so a fresh fleet spreads out by creation rather than
// aligning to a shared clock.
func (s *Scheduler) Start() error {
	var monitorsList []models.Monitor
	if err := s.db.Where("is_active = ?", true).Find(&monitorsList).Error; err != nil {
		return err
	}

	now := time.Now()

	s.mu.Lock()
	for _, monitor := range monitorsList {
		s.monitors[monitor.ID] = &entry{monitor: monitor, nextDue: now}
	}
	s.mu.Unlock()

	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("scheduler started",
		zap.Int("monitors", len(monitorsList)),
		zap.Int("workers", s.opts.Workers),
		zap.Duration("tick", s.opts.Tick),
	)

	return nil
}

// Stop shuts the tick loop and workers down and waits for in-flight probes.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.dispatchDue(now)
		}
	}
}

func (s *Scheduler) dispatchDue(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.monitors {
		if now.Before(e.nextDue) {
			continue
		}

		select {
		case s.tasks <- e.monitor:
			e.nextDue = now.Add(interval(e.monitor))
		default:
			// Pool saturated; leave the monitor due and retry next tick.
			s.logger.Warn("probe queue full, deferring", zap.Uint("monitor_id", e.monitor.ID))
		}
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case monitor := <-s.tasks:
			result := s.prober.Probe(s.ctx, monitor)
			s.pipeline.Process(monitor, result)
		}
	}
}

// AddMonitor schedules a monitor, due immediately.
func (s *Scheduler) AddMonitor(monitor models.Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.monitors[monitor.ID] = &entry{monitor: monitor, nextDue: time.Now()}
	s.logger.Info("monitor scheduled", zap.Uint("monitor_id", monitor.ID), zap.String("name", monitor.Name))
}

// UpdateMonitor replaces a monitor's config; the next probe is due
// immediately so edits take effect without waiting an interval.
func (s *Scheduler) UpdateMonitor(monitor models.Monitor) {
	s.AddMonitor(monitor)
}

// RemoveMonitor stops scheduling a monitor. An in-flight probe is not
// cancelled; its result is discarded by the recorder.
func (s *Scheduler) RemoveMonitor(monitorID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.monitors[monitorID]; exists {
		delete(s.monitors, monitorID)
		s.logger.Info("monitor unscheduled", zap.Uint("monitor_id", monitorID))
	}
}

// Tracked reports whether a monitor is currently scheduled.
func (s *Scheduler) Tracked(monitorID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.monitors[monitorID]
	return ok
}

func interval(monitor models.Monitor) time.Duration {
	minutes := monitor.Interval
	if minutes < 1 {
		minutes = 1
	}

	return time.Duration(minutes) * time.Minute
}

// Global scheduler instance, wired at startup and driven by the handlers.
var globalScheduler *Scheduler

func Initialize(s *Scheduler) error {
	globalScheduler = s
	return globalScheduler.Start()
}

func Shutdown() {
	if globalScheduler != nil {
		globalScheduler.Stop()
	}
}

func AddMonitor(monitor models.Monitor) {
	if globalScheduler != nil {
		globalScheduler.AddMonitor(monitor)
	}
}

func UpdateMonitor(monitor models.Monitor) {
	if globalScheduler != nil {
		globalScheduler.UpdateMonitor(monitor)
	}
}

func RemoveMonitor(monitorID uint) {
	if globalScheduler != nil {
		globalScheduler.RemoveMonitor(monitorID)
	}
}
