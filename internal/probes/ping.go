package probes

import (
	"context"
	"net"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/utils"
)

// PingDriver sends a single ICMP echo, falling back to a TCP dial when ICMP
// is unavailable (unprivileged environments, filtered networks).
type PingDriver struct {
	dialer *net.Dialer
}

func NewPingDriver() *PingDriver {
	return &PingDriver{dialer: &net.Dialer{}}
}

func (d *PingDriver) Probe(ctx context.Context, monitor models.Monitor) types.CheckResult {
	start := time.Now()

	host, err := utils.ExtractHost(monitor.URL)

	if err != nil {
		return failure(start, types.ClassDriverFault, err.Error())
	}

	pinger, err := probing.NewPinger(host)

	if err == nil {
		pinger.Count = 1
		pinger.SetPrivileged(false)

		if deadline, ok := ctx.Deadline(); ok {
			pinger.Timeout = time.Until(deadline)
		} else {
			pinger.Timeout = 5 * time.Second
		}

		if runErr := pinger.RunWithContext(ctx); runErr == nil {
			stats := pinger.Statistics()
			if stats.PacketsRecv > 0 {
				return types.CheckResult{
					IsUp:         true,
					ResponseTime: stats.AvgRtt.Seconds(),
					CheckedAt:    start,
				}
			}
		}
	}

	// ICMP failed or was unavailable, try a TCP handshake instead
	return d.tcpFallback(ctx, start, host)
}

func (d *PingDriver) tcpFallback(ctx context.Context, start time.Time, host string) types.CheckResult {
	conn, err := d.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "80"))
	elapsed := time.Since(start)

	if err != nil {
		return types.CheckResult{
			IsUp:         false,
			ResponseTime: elapsed.Seconds(),
			ErrorClass:   types.ClassifyNetError(err),
			ErrorMessage: "Ping timeout",
			CheckedAt:    start,
		}
	}

	conn.Close()

	return types.CheckResult{
		IsUp:         true,
		ResponseTime: elapsed.Seconds(),
		CheckedAt:    start,
	}
}
