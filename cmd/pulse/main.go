package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/alerts"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/auth"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/config"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/handlers"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/incidents"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/probes"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/recorder"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/router"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/scheduler"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/watchers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		logger.Fatal("jwt secret", zap.Error(err))
	}

	if err := db.ConnectDatabase(cfg.DatabaseDSN); err != nil {
		logger.Fatal("database connection", zap.Error(err))
	}

	if err := db.MigrateDatabase(); err != nil {
		logger.Fatal("database migration", zap.Error(err))
	}

	if _, err := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPass); err != nil {
		logger.Fatal("redis connection", zap.Error(err))
	}

	if err := seedAdmin(cfg, logger); err != nil {
		logger.Fatal("admin seed", zap.Error(err))
	}

	mailer := alerts.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	rec := recorder.New(db.DB, logger)

	dispatcher := alerts.NewDispatcher(db.DB, logger, mailer, alerts.Options{
		RetryCeiling: cfg.AlertRetryCeiling,
		RetryBackoff: cfg.AlertRetryBackoff,
	})

	engine := incidents.NewEngine(db.DB, logger, dispatcher, rec, incidents.Options{
		Debounce:            cfg.IncidentDebounce,
		DegradedLogInterval: cfg.DegradedLogInterval,
	})

	handlers.Configure(rec, mailer)
	handlers.SetHubLogger(logger)

	pipeline := scheduler.NewPipeline(rec, engine, logger, handlers.DashboardHub())

	sched := scheduler.New(db.DB, logger, probes.NewRegistry(), pipeline, scheduler.Options{
		Tick:    cfg.SchedulerTick,
		Workers: cfg.WorkerPoolSize,
	})

	if err := scheduler.Initialize(sched); err != nil {
		logger.Fatal("scheduler start", zap.Error(err))
	}

	watcher := watchers.NewExpiryWatcher(db.DB, logger, dispatcher, cfg.ExpiryCronSpec)
	if err := watcher.Start(); err != nil {
		logger.Fatal("expiry watcher start", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.NewRouter(),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	watcher.Stop()
	scheduler.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

// seedAdmin guarantees a SUPERADMIN exists on first boot so the portal is
// never locked out.
func seedAdmin(cfg *config.Config, logger *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing models.User

	err := db.DB.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     "admin",
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         types.RoleSuperAdmin,
		CanCreate:    true,
		CanEdit:      true,
		CanDelete:    true,
	}

	if err := db.DB.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("seeded admin account", zap.String("email", cfg.AdminEmail))
	return nil
}
