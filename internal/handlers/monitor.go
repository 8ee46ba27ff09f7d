package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/scheduler"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

type MonitorRequest struct {
	Category            string            `json:"category"`
	Name                string            `json:"name" binding:"required"`
	URL                 string            `json:"url" binding:"required"`
	MonitorType         string            `json:"monitor_type"`
	Keyword             string            `json:"keyword"`
	Port                *int              `json:"port"`
	HTTPMethod          string            `json:"http_method"`
	PostData            string            `json:"post_data"`
	ExpectedStatusCode  *int              `json:"expected_status_code"`
	RequestHeaders      map[string]string `json:"request_headers"`
	SSHUsername         string            `json:"ssh_username"`
	SSHPassword         string            `json:"ssh_password"`
	SSHKey              string            `json:"ssh_key"`
	Interval            int               `json:"interval"`
	Timeout             int               `json:"timeout"`
	DNSMonitoring       bool              `json:"dns_monitoring"`
	CheckSSLErrors      bool              `json:"check_ssl_errors"`
	CheckSSLExpiry      *bool             `json:"check_ssl_expiry"`
	CheckDomainExpiry   bool              `json:"check_domain_expiry"`
	NotifyEmail         *bool             `json:"notify_email"`
	NotifyPhone         bool              `json:"notify_phone"`
	VisibleOnStatusPage *bool             `json:"visible_on_status_page"`
	IsActive            *bool             `json:"is_active"`
	AlertContactIDs     []uint            `json:"alert_contacts"`
}

// MonitorPatch is the partial-update payload. Omitted fields keep the
// monitor's current values.
type MonitorPatch struct {
	Category            *string           `json:"category"`
	Name                *string           `json:"name"`
	URL                 *string           `json:"url"`
	MonitorType         *string           `json:"monitor_type"`
	Keyword             *string           `json:"keyword"`
	Port                *int              `json:"port"`
	HTTPMethod          *string           `json:"http_method"`
	PostData            *string           `json:"post_data"`
	ExpectedStatusCode  *int              `json:"expected_status_code"`
	RequestHeaders      map[string]string `json:"request_headers"`
	SSHUsername         *string           `json:"ssh_username"`
	SSHPassword         *string           `json:"ssh_password"`
	SSHKey              *string           `json:"ssh_key"`
	Interval            *int              `json:"interval"`
	Timeout             *int              `json:"timeout"`
	DNSMonitoring       *bool             `json:"dns_monitoring"`
	CheckSSLErrors      *bool             `json:"check_ssl_errors"`
	CheckSSLExpiry      *bool             `json:"check_ssl_expiry"`
	CheckDomainExpiry   *bool             `json:"check_domain_expiry"`
	NotifyEmail         *bool             `json:"notify_email"`
	NotifyPhone         *bool             `json:"notify_phone"`
	VisibleOnStatusPage *bool             `json:"visible_on_status_page"`
	IsActive            *bool             `json:"is_active"`
	AlertContactIDs     []uint            `json:"alert_contacts"`
}

// overlay copies the fields present in the patch onto a full request, so the
// merged result goes through the same validation as a full update.
func (p *MonitorPatch) overlay(req *MonitorRequest) {
	if p.Category != nil {
		req.Category = *p.Category
	}
	if p.Name != nil {
		req.Name = *p.Name
	}
	if p.URL != nil {
		req.URL = *p.URL
	}
	if p.MonitorType != nil {
		req.MonitorType = *p.MonitorType
	}
	if p.Keyword != nil {
		req.Keyword = *p.Keyword
	}
	if p.Port != nil {
		req.Port = p.Port
	}
	if p.HTTPMethod != nil {
		req.HTTPMethod = *p.HTTPMethod
	}
	if p.PostData != nil {
		req.PostData = *p.PostData
	}
	if p.ExpectedStatusCode != nil {
		req.ExpectedStatusCode = p.ExpectedStatusCode
	}
	if p.RequestHeaders != nil {
		req.RequestHeaders = p.RequestHeaders
	}
	if p.SSHUsername != nil {
		req.SSHUsername = *p.SSHUsername
	}
	if p.SSHPassword != nil {
		req.SSHPassword = *p.SSHPassword
	}
	if p.SSHKey != nil {
		req.SSHKey = *p.SSHKey
	}
	if p.Interval != nil {
		req.Interval = *p.Interval
	}
	if p.Timeout != nil {
		req.Timeout = *p.Timeout
	}
	if p.DNSMonitoring != nil {
		req.DNSMonitoring = *p.DNSMonitoring
	}
	if p.CheckSSLErrors != nil {
		req.CheckSSLErrors = *p.CheckSSLErrors
	}
	if p.CheckSSLExpiry != nil {
		req.CheckSSLExpiry = p.CheckSSLExpiry
	}
	if p.CheckDomainExpiry != nil {
		req.CheckDomainExpiry = *p.CheckDomainExpiry
	}
	if p.NotifyEmail != nil {
		req.NotifyEmail = p.NotifyEmail
	}
	if p.NotifyPhone != nil {
		req.NotifyPhone = *p.NotifyPhone
	}
	if p.VisibleOnStatusPage != nil {
		req.VisibleOnStatusPage = p.VisibleOnStatusPage
	}
	if p.IsActive != nil {
		req.IsActive = p.IsActive
	}
}

// requestFromMonitor seeds a full request with the monitor's stored config.
// Write-only secrets and alert contacts stay empty; apply keeps them as-is.
func requestFromMonitor(monitor *models.Monitor) MonitorRequest {
	return MonitorRequest{
		Category:           monitor.Category,
		Name:               monitor.Name,
		URL:                monitor.URL,
		MonitorType:        monitor.MonitorType,
		Keyword:            monitor.Keyword,
		Port:               monitor.Port,
		HTTPMethod:         monitor.HTTPMethod,
		PostData:           monitor.PostData,
		ExpectedStatusCode: monitor.ExpectedStatusCode,
		SSHUsername:        monitor.SSHUsername,
		Interval:           monitor.Interval,
		Timeout:            monitor.Timeout,
		DNSMonitoring:      monitor.DNSMonitoring,
		CheckSSLErrors:     monitor.CheckSSLErrors,
		CheckDomainExpiry:  monitor.CheckDomainExpiry,
		NotifyPhone:        monitor.NotifyPhone,
	}
}

// validate enforces the one-parameter-set-per-type invariant at configuration
// time, so invalid monitors never reach the probe layer.
func (r *MonitorRequest) validate() error {
	if r.MonitorType == "" {
		r.MonitorType = types.MonitorHTTP
	}

	if r.Category == "" {
		r.Category = types.CategorySites
	}

	valid := false
	for _, t := range types.MonitorTypes {
		if r.MonitorType == t {
			valid = true
			break
		}
	}

	if !valid {
		return errors.New("unsupported monitor type: " + r.MonitorType)
	}

	if r.Interval <= 0 {
		r.Interval = 5
	}

	if r.Timeout <= 0 {
		r.Timeout = 30
	}

	if r.Timeout >= r.Interval*60 {
		return errors.New("timeout must be less than the check interval")
	}

	switch r.MonitorType {
	case types.MonitorKeyword:
		if r.Keyword == "" {
			return errors.New("keyword is required for KEYWORD monitors")
		}
	case types.MonitorPort:
		if r.Port == nil || *r.Port <= 0 || *r.Port > 65535 {
			return errors.New("a valid port is required for PORT monitors")
		}
	case types.MonitorSSH:
		if r.SSHUsername == "" {
			return errors.New("ssh_username is required for SSH monitors")
		}
		if r.SSHKey == "" && r.SSHPassword == "" {
			return errors.New("an SSH key or password is required for SSH monitors")
		}
	}

	if r.MonitorType != types.MonitorKeyword && r.Keyword != "" {
		return errors.New("keyword is only valid for KEYWORD monitors")
	}

	if r.MonitorType != types.MonitorPort && r.MonitorType != types.MonitorSSH && r.Port != nil {
		return errors.New("port is only valid for PORT and SSH monitors")
	}

	if r.Category == types.CategorySSH && r.MonitorType != types.MonitorSSH {
		return errors.New("SSH category requires an SSH monitor type")
	}

	return nil
}

func (r *MonitorRequest) apply(monitor *models.Monitor) error {
	monitor.Category = r.Category
	monitor.Name = r.Name
	monitor.URL = r.URL
	monitor.MonitorType = r.MonitorType
	monitor.Keyword = r.Keyword
	monitor.Port = r.Port
	monitor.HTTPMethod = r.HTTPMethod
	monitor.PostData = r.PostData
	monitor.ExpectedStatusCode = r.ExpectedStatusCode
	monitor.SSHUsername = r.SSHUsername
	monitor.Interval = r.Interval
	monitor.Timeout = r.Timeout
	monitor.DNSMonitoring = r.DNSMonitoring
	monitor.CheckSSLErrors = r.CheckSSLErrors
	monitor.CheckDomainExpiry = r.CheckDomainExpiry
	monitor.NotifyPhone = r.NotifyPhone

	if monitor.HTTPMethod == "" {
		monitor.HTTPMethod = "GET"
	}

	if r.SSHPassword != "" {
		monitor.SSHPassword = r.SSHPassword
	}

	if r.SSHKey != "" {
		monitor.SSHKey = r.SSHKey
	}

	if r.CheckSSLExpiry != nil {
		monitor.CheckSSLExpiry = *r.CheckSSLExpiry
	}

	if r.NotifyEmail != nil {
		monitor.NotifyEmail = *r.NotifyEmail
	}

	if r.VisibleOnStatusPage != nil {
		monitor.VisibleOnStatusPage = *r.VisibleOnStatusPage
	}

	if r.IsActive != nil {
		monitor.IsActive = *r.IsActive
	}

	if r.RequestHeaders != nil {
		headers, err := json.Marshal(r.RequestHeaders)
		if err != nil {
			return errors.New("invalid request headers")
		}
		monitor.RequestHeaders = datatypes.JSON(headers)
	}

	return nil
}

func ListMonitors(ctx *gin.Context) {
	var monitors []models.Monitor

	if err := db.DB.Order("created_at DESC").Find(&monitors).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitors"})
		return
	}

	responses := make([]MonitorResponse, 0, len(monitors))
	for _, monitor := range monitors {
		responses = append(responses, serializeMonitor(monitor))
	}

	ctx.JSON(http.StatusOK, responses)
}

func GetMonitor(ctx *gin.Context) {
	monitor, ok := findMonitor(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, serializeMonitor(*monitor))
}

func CreateMonitor(ctx *gin.Context) {
	var req MonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	monitor := models.Monitor{
		CheckSSLExpiry:      true,
		NotifyEmail:         true,
		VisibleOnStatusPage: true,
		IsActive:            true,
	}

	if err := req.apply(&monitor); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Create(&monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create monitor"})
		return
	}

	if err := setAlertContacts(&monitor, req.AlertContactIDs); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if monitor.IsActive {
		scheduler.AddMonitor(monitor)
	}

	ctx.JSON(http.StatusCreated, serializeMonitor(monitor))
}

func UpdateMonitor(ctx *gin.Context) {
	monitor, ok := findMonitor(ctx)

	if !ok {
		return
	}

	var req MonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.apply(monitor); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Save(monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update monitor"})
		return
	}

	if req.AlertContactIDs != nil {
		if err := setAlertContacts(monitor, req.AlertContactIDs); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if monitor.IsActive {
		scheduler.UpdateMonitor(*monitor)
	} else {
		scheduler.RemoveMonitor(monitor.ID)
	}

	ctx.JSON(http.StatusOK, serializeMonitor(*monitor))
}

// PatchMonitor updates only the fields present in the request body. The
// merged config still has to pass full validation.
func PatchMonitor(ctx *gin.Context) {
	monitor, ok := findMonitor(ctx)

	if !ok {
		return
	}

	var patch MonitorPatch

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := requestFromMonitor(monitor)
	patch.overlay(&req)

	if err := req.validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.apply(monitor); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Save(monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update monitor"})
		return
	}

	if patch.AlertContactIDs != nil {
		if err := setAlertContacts(monitor, patch.AlertContactIDs); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if monitor.IsActive {
		scheduler.UpdateMonitor(*monitor)
	} else {
		scheduler.RemoveMonitor(monitor.ID)
	}

	ctx.JSON(http.StatusOK, serializeMonitor(*monitor))
}

// DeleteMonitor deactivates the monitor immediately so in-flight probe
// results are discarded, then soft-deletes it; check records and open
// incidents cascade.
func DeleteMonitor(ctx *gin.Context) {
	monitor, ok := findMonitor(ctx)

	if !ok {
		return
	}

	scheduler.RemoveMonitor(monitor.ID)

	if err := db.DB.Model(monitor).Update("is_active", false).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete monitor"})
		return
	}

	// Soft-close any open incident before the cascade.
	db.DB.Model(&models.Incident{}).
		Where("monitor_id = ? AND status = ?", monitor.ID, types.IncidentOpen).
		Updates(map[string]interface{}{"status": types.IncidentResolved, "resolved_at": gorm.Expr("CURRENT_TIMESTAMP")})

	if err := db.DB.Delete(monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete monitor"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func findMonitor(ctx *gin.Context) (*models.Monitor, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid monitor ID"})
		return nil, false
	}

	var monitor models.Monitor

	if err := db.DB.First(&monitor, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitor"})
		}
		return nil, false
	}

	return &monitor, true
}

func setAlertContacts(monitor *models.Monitor, ids []uint) error {
	if ids == nil {
		return nil
	}

	var contacts []models.AlertContact

	if len(ids) > 0 {
		if err := db.DB.Find(&contacts, ids).Error; err != nil {
			return errors.New("failed to resolve alert contacts")
		}

		if len(contacts) != len(ids) {
			return errors.New("one or more alert contacts do not exist")
		}
	}

	return db.DB.Model(monitor).Association("AlertContacts").Replace(contacts)
}
