package handlers

import (
	"github.com/marketbytes-devops/server-monitoring-portal/internal/alerts"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/recorder"
)

// Package-level collaborators, wired once at startup.
var (
	rec    *recorder.Recorder
	mailer alerts.Mailer
)

func Configure(r *recorder.Recorder, m alerts.Mailer) {
	rec = r
	mailer = m
}
