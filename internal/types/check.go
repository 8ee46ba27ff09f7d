package types

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"os"
	"syscall"
	"time"
)

// ErrorClass identifies why a probe failed. Classes are stable strings so
// the incident engine and the API can match on them.
type ErrorClass string

const (
	ClassNone              ErrorClass = ""
	ClassTimeout           ErrorClass = "timeout"
	ClassConnectionRefused ErrorClass = "connection_refused"
	ClassDNSFailure        ErrorClass = "dns_failure"
	ClassTLSError          ErrorClass = "tls_error"
	ClassHTTPStatus        ErrorClass = "http_status"
	ClassKeywordMissing    ErrorClass = "keyword_missing"
	ClassSSHAuthFailed     ErrorClass = "ssh_auth_failed"
	ClassSSHCommandFailed  ErrorClass = "ssh_command_failed"
	ClassUnreachable       ErrorClass = "unreachable"
	ClassDriverFault       ErrorClass = "driver_fault"
)

// Immediate returns true for classes that open an incident without waiting
// for the debounce counter.
func (c ErrorClass) Immediate() bool {
	return c == ClassTimeout || c == ClassConnectionRefused
}

// SSHTelemetry carries the metrics gathered by an SSH probe.
type SSHTelemetry struct {
	CPUUsage     float64 `json:"cpu_usage"`
	RAMUsage     float64 `json:"ram_usage"`
	DiskUsage    float64 `json:"disk_usage"`
	SystemUptime string  `json:"system_uptime"`
}

// CheckResult is the outcome of a single probe. Drivers never return errors;
// every fault is folded into IsUp=false with a class and message.
type CheckResult struct {
	IsUp         bool
	StatusCode   *int
	ResponseTime float64 // seconds
	ErrorClass   ErrorClass
	ErrorMessage string
	Telemetry    *SSHTelemetry
	CheckedAt    time.Time
}

// ClassifyNetError maps a transport error to an ErrorClass.
func ClassifyNetError(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassDNSFailure
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ClassConnectionRefused
	}

	var certErr *x509.CertificateInvalidError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return ClassTLSError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassUnreachable
	}

	return ClassDriverFault
}
