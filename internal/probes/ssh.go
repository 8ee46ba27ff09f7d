package probes

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/utils"
)

// telemetryCommand gathers load, ram %, disk %, cpu % and uptime in one round
// trip, one value per line.
const telemetryCommand = `cat /proc/loadavg | awk '{print $1}'; ` +
	`free -m | awk 'NR==2{printf "%.2f\n", $3*100/$2 }'; ` +
	`df -h / | awk 'NR==2{print $5}' | sed 's/%//'; ` +
	`top -bn1 | grep 'Cpu(s)' | sed 's/.*, *\([0-9.]*\)%* id.*/\1/' | awk '{print 100 - $1}'; ` +
	`uptime -p`

// SSHDriver authenticates against the target host and collects server
// telemetry. Failure reasons distinguish unreachable hosts, rejected
// credentials and failed commands.
type SSHDriver struct{}

func NewSSHDriver() *SSHDriver {
	return &SSHDriver{}
}

func (d *SSHDriver) Probe(ctx context.Context, monitor models.Monitor) types.CheckResult {
	start := time.Now()

	host, err := utils.ExtractHost(monitor.URL)

	if err != nil {
		return failure(start, types.ClassDriverFault, err.Error())
	}

	port := 22
	if monitor.Port != nil && *monitor.Port > 0 {
		port = *monitor.Port
	}

	username := monitor.SSHUsername
	if username == "" {
		username = "root"
	}

	authMethods, err := buildAuthMethods(monitor)

	if err != nil {
		return failure(start, types.ClassDriverFault, err.Error())
	}

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	clientConfig := &ssh.ClientConfig{
		User:            username,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, clientConfig)

	if err != nil {
		elapsed := time.Since(start)
		class := types.ClassUnreachable
		if strings.Contains(err.Error(), "unable to authenticate") || strings.Contains(err.Error(), "handshake failed") {
			class = types.ClassSSHAuthFailed
		} else {
			class = types.ClassifyNetError(err)
			if class == types.ClassDriverFault {
				class = types.ClassUnreachable
			}
		}

		return types.CheckResult{
			IsUp:         false,
			ResponseTime: elapsed.Seconds(),
			ErrorClass:   class,
			ErrorMessage: fmt.Sprintf("SSH sync failure: %v", err),
			CheckedAt:    start,
		}
	}

	defer client.Close()

	session, err := client.NewSession()

	if err != nil {
		return failure(start, types.ClassSSHCommandFailed, fmt.Sprintf("SSH session failure: %v", err))
	}

	defer session.Close()

	output, err := session.CombinedOutput(telemetryCommand)
	elapsed := time.Since(start)

	if err != nil {
		return types.CheckResult{
			IsUp:         false,
			ResponseTime: elapsed.Seconds(),
			ErrorClass:   types.ClassSSHCommandFailed,
			ErrorMessage: fmt.Sprintf("SSH command failure: %v", err),
			CheckedAt:    start,
		}
	}

	result := types.CheckResult{
		IsUp:         true,
		ResponseTime: elapsed.Seconds(),
		CheckedAt:    start,
	}

	if telemetry := parseTelemetry(string(output)); telemetry != nil {
		result.Telemetry = telemetry
	}

	return result
}

func buildAuthMethods(monitor models.Monitor) ([]ssh.AuthMethod, error) {
	if monitor.SSHKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(monitor.SSHKey))

		if err != nil {
			return nil, fmt.Errorf("invalid SSH private key: %w", err)
		}

		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	if monitor.SSHPassword != "" {
		return []ssh.AuthMethod{ssh.Password(monitor.SSHPassword)}, nil
	}

	return nil, fmt.Errorf("SSH credentials missing")
}

// parseTelemetry expects five lines: loadavg, ram %, disk %, cpu %, uptime.
func parseTelemetry(output string) *types.SSHTelemetry {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	if len(lines) < 5 {
		return nil
	}

	parse := func(s string) float64 {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		return v
	}

	return &types.SSHTelemetry{
		RAMUsage:     parse(lines[1]),
		DiskUsage:    parse(lines[2]),
		CPUUsage:     parse(lines[3]),
		SystemUptime: strings.TrimSpace(lines[4]),
	}
}
