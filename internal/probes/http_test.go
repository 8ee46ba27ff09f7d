package probes

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

func httpMonitor(url string) models.Monitor {
	return models.Monitor{
		Name:        "example",
		URL:         url,
		MonitorType: types.MonitorHTTP,
		Interval:    5,
		Timeout:     30,
		IsActive:    true,
	}
}

func TestHTTPProbeUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := NewHTTPDriver().Probe(context.Background(), httpMonitor(srv.URL))

	assert.True(t, result.IsUp)
	require.NotNil(t, result.StatusCode)
	assert.Equal(t, http.StatusOK, *result.StatusCode)
	assert.Empty(t, string(result.ErrorClass))
}

func TestHTTPProbeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := NewHTTPDriver().Probe(context.Background(), httpMonitor(srv.URL))

	assert.False(t, result.IsUp)
	assert.Equal(t, types.ClassHTTPStatus, result.ErrorClass)
	assert.Equal(t, "HTTP Status 500", result.ErrorMessage)
}

func TestHTTPProbeExpectedStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	monitor := httpMonitor(srv.URL)
	expected := http.StatusTeapot
	monitor.ExpectedStatusCode = &expected

	result := NewHTTPDriver().Probe(context.Background(), monitor)
	assert.True(t, result.IsUp)

	// The same response fails once a different code is expected.
	expected = http.StatusOK
	result = NewHTTPDriver().Probe(context.Background(), monitor)
	assert.False(t, result.IsUp)
	assert.Equal(t, types.ClassHTTPStatus, result.ErrorClass)
}

func TestHTTPProbeSendsMethodBodyAndHeaders(t *testing.T) {
	var gotMethod, gotBody, gotHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		gotHeader = r.Header.Get("X-Api-Key")
	}))
	defer srv.Close()

	monitor := httpMonitor(srv.URL)
	monitor.HTTPMethod = http.MethodPost
	monitor.PostData = `{"ping":true}`
	monitor.RequestHeaders = datatypes.JSON(`{"X-Api-Key":"secret"}`)

	result := NewHTTPDriver().Probe(context.Background(), monitor)

	assert.True(t, result.IsUp)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"ping":true}`, gotBody)
	assert.Equal(t, "secret", gotHeader)
}

func TestKeywordProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>All systems operational</body></html>"))
	}))
	defer srv.Close()

	monitor := httpMonitor(srv.URL)
	monitor.MonitorType = types.MonitorKeyword
	monitor.Keyword = "operational"

	result := NewHTTPDriver().Probe(context.Background(), monitor)
	assert.True(t, result.IsUp)

	monitor.Keyword = "maintenance"
	result = NewHTTPDriver().Probe(context.Background(), monitor)
	assert.False(t, result.IsUp)
	assert.Equal(t, types.ClassKeywordMissing, result.ErrorClass)
	assert.Equal(t, "Keyword 'maintenance' missing", result.ErrorMessage)
}

func TestHTTPProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := NewHTTPDriver().Probe(ctx, httpMonitor(srv.URL))

	assert.False(t, result.IsUp)
	assert.Equal(t, types.ClassTimeout, result.ErrorClass)
}

func TestPortProbe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := listener.Addr().(*net.TCPAddr).Port

	monitor := models.Monitor{
		Name:        "tcp check",
		URL:         "127.0.0.1",
		MonitorType: types.MonitorPort,
		Port:        &port,
		Interval:    5,
		Timeout:     30,
		IsActive:    true,
	}

	result := NewPortDriver().Probe(context.Background(), monitor)
	assert.True(t, result.IsUp)

	listener.Close()
	result = NewPortDriver().Probe(context.Background(), monitor)
	assert.False(t, result.IsUp)
	assert.Equal(t, types.ClassConnectionRefused, result.ErrorClass)
	assert.Equal(t, fmt.Sprintf("Port %d connection refused", port), result.ErrorMessage)
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()

	cases := []struct {
		monitor models.Monitor
		want    Driver
	}{
		{models.Monitor{MonitorType: types.MonitorHTTP}, registry.httpDriver},
		{models.Monitor{MonitorType: types.MonitorAPI}, registry.httpDriver},
		{models.Monitor{MonitorType: types.MonitorCron}, registry.httpDriver},
		{models.Monitor{MonitorType: types.MonitorKeyword}, registry.httpDriver},
		{models.Monitor{MonitorType: types.MonitorPort}, registry.portDriver},
		{models.Monitor{MonitorType: types.MonitorPing}, registry.pingDriver},
		{models.Monitor{MonitorType: types.MonitorSSH}, registry.sshDriver},
		{models.Monitor{Category: types.CategorySSH}, registry.sshDriver},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, registry.ForMonitor(tc.monitor))
	}
}
