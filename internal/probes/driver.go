package probes

import (
	"context"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

// Driver executes one health check against a monitor. Implementations never
// return an error past this boundary; all faults are folded into the result
// with IsUp=false and a classified error.
type Driver interface {
	Probe(ctx context.Context, monitor models.Monitor) types.CheckResult
}

// Registry dispatches monitors to their drivers by type.
type Registry struct {
	httpDriver *HTTPDriver
	pingDriver *PingDriver
	portDriver *PortDriver
	sshDriver  *SSHDriver
}

func NewRegistry() *Registry {
	return &Registry{
		httpDriver: NewHTTPDriver(),
		pingDriver: NewPingDriver(),
		portDriver: NewPortDriver(),
		sshDriver:  NewSSHDriver(),
	}
}

// ForMonitor resolves the driver for a monitor. CRON and API monitors share
// the HTTP driver; SSH-category monitors always probe over SSH; anything
// unrecognized falls back to ping.
func (r *Registry) ForMonitor(monitor models.Monitor) Driver {
	if monitor.Category == types.CategorySSH || monitor.MonitorType == types.MonitorSSH {
		return r.sshDriver
	}

	switch monitor.MonitorType {
	case types.MonitorHTTP, types.MonitorAPI, types.MonitorCron, types.MonitorKeyword:
		return r.httpDriver
	case types.MonitorPort:
		return r.portDriver
	case types.MonitorPing:
		return r.pingDriver
	default:
		return r.pingDriver
	}
}

// Probe runs the monitor against its resolved driver under the monitor's
// probe timeout.
func (r *Registry) Probe(ctx context.Context, monitor models.Monitor) types.CheckResult {
	probeCtx, cancel := context.WithTimeout(ctx, monitor.ProbeTimeout())
	defer cancel()

	return r.ForMonitor(monitor).Probe(probeCtx, monitor)
}
