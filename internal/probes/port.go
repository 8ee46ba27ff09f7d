package probes

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/utils"
)

// PortDriver checks plain TCP reachability of target:port.
type PortDriver struct {
	dialer *net.Dialer
}

func NewPortDriver() *PortDriver {
	return &PortDriver{dialer: &net.Dialer{}}
}

func (d *PortDriver) Probe(ctx context.Context, monitor models.Monitor) types.CheckResult {
	start := time.Now()

	host, err := utils.ExtractHost(monitor.URL)

	if err != nil {
		return failure(start, types.ClassDriverFault, err.Error())
	}

	port := 80
	if monitor.Port != nil && *monitor.Port > 0 {
		port = *monitor.Port
	}

	conn, err := d.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	elapsed := time.Since(start)

	if err != nil {
		class := types.ClassifyNetError(err)
		message := err.Error()
		if class == types.ClassConnectionRefused {
			message = fmt.Sprintf("Port %d connection refused", port)
		}

		return types.CheckResult{
			IsUp:         false,
			ResponseTime: elapsed.Seconds(),
			ErrorClass:   class,
			ErrorMessage: message,
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
