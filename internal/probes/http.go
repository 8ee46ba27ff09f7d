package probes

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

const maxBodyBytes = 1 << 20

// HTTPDriver serves HTTP, API, CRON and KEYWORD monitors.
type HTTPDriver struct {
	// client used when the monitor verifies TLS
	strict *http.Client
	// client used when ssl error checking is disabled
	lenient *http.Client
}

func NewHTTPDriver() *HTTPDriver {
	return &HTTPDriver{
		strict: &http.Client{},
		lenient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

func (d *HTTPDriver) Probe(ctx context.Context, monitor models.Monitor) types.CheckResult {
	start := time.Now()

	method := monitor.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if monitor.PostData != "" && method != http.MethodGet {
		body = strings.NewReader(monitor.PostData)
	}

	req, err := http.NewRequestWithContext(ctx, method, monitor.URL, body)

	if err != nil {
		return failure(start, types.ClassDriverFault, err.Error())
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if len(monitor.RequestHeaders) > 0 {
		var headers map[string]string
		if err := json.Unmarshal(monitor.RequestHeaders, &headers); err == nil {
			for key, value := range headers {
				req.Header.Set(key, value)
			}
		}
	}

	client := d.lenient
	if monitor.CheckSSLErrors {
		client = d.strict
	}

	resp, err := client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		class := types.ClassifyNetError(err)
		return types.CheckResult{
			IsUp:         false,
			ResponseTime: elapsed.Seconds(),
			ErrorClass:   class,
			ErrorMessage: err.Error(),
			CheckedAt:    start,
		}
	}

	defer resp.Body.Close()

	result := types.CheckResult{
		StatusCode:   &resp.StatusCode,
		ResponseTime: elapsed.Seconds(),
		CheckedAt:    start,
	}

	if !statusAccepted(monitor, resp.StatusCode) {
		result.ErrorClass = types.ClassHTTPStatus
		result.ErrorMessage = fmt.Sprintf("HTTP Status %d", resp.StatusCode)
		return result
	}

	if monitor.MonitorType == types.MonitorKeyword {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

		if err != nil {
			result.ErrorClass = types.ClassifyNetError(err)
			result.ErrorMessage = err.Error()
			return result
		}

		if !strings.Contains(string(data), monitor.Keyword) {
			result.ErrorClass = types.ClassKeywordMissing
			result.ErrorMessage = fmt.Sprintf("Keyword '%s' missing", monitor.Keyword)
			return result
		}
	}

	result.IsUp = true
	return result
}

// statusAccepted applies the expected status code if set, otherwise the
// default 200-399 acceptance window.
func statusAccepted(monitor models.Monitor, code int) bool {
	if monitor.ExpectedStatusCode != nil && *monitor.ExpectedStatusCode != 0 {
		return code == *monitor.ExpectedStatusCode
	}

	return code >= 200 && code < 400
}

func failure(start time.Time, class types.ErrorClass, message string) types.CheckResult {
	return types.CheckResult{
		IsUp:         false,
		ResponseTime: time.Since(start).Seconds(),
		ErrorClass:   class,
		ErrorMessage: message,
		CheckedAt:    start,
	}
}
