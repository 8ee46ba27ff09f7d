package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
)

type AlertContactRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactType string `json:"contact_type" binding:"required"`
	Value       string `json:"value" binding:"required"`
}

func (r *AlertContactRequest) validate() error {
	switch r.ContactType {
	case types.ContactEmail:
		if _, err := mail.ParseAddress(r.Value); err != nil {
			return errors.New("value must be a valid email address")
		}
	case types.ContactWebhook, types.ContactSlack, types.ContactDiscord:
		parsed, err := url.Parse(r.Value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return errors.New("value must be a valid http(s) URL")
		}
	default:
		return errors.New("unsupported contact type: " + r.ContactType)
	}

	return nil
}

func ListAlertContacts(ctx *gin.Context) {
	var contacts []models.AlertContact

	if err := db.DB.Order("created_at DESC").Find(&contacts).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alert contacts"})
		return
	}

	ctx.JSON(http.StatusOK, contacts)
}

func CreateAlertContact(ctx *gin.Context) {
	var req AlertContactRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contact := models.AlertContact{
		Name:        req.Name,
		ContactType: req.ContactType,
		Value:       req.Value,
	}

	if err := db.DB.Create(&contact).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert contact"})
		return
	}

	ctx.JSON(http.StatusCreated, contact)
}

// DeleteAlertContact detaches the contact from every monitor before removing
// it, so monitor configurations stay valid.
func DeleteAlertContact(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert contact ID"})
		return
	}

	var contact models.AlertContact

	if err := db.DB.First(&contact, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Alert contact not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alert contact"})
		}
		return
	}

	if err := db.DB.Model(&contact).Association("Monitors").Clear(); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detach alert contact"})
		return
	}

	if err := db.DB.Delete(&contact).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete alert contact"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
