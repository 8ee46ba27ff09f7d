package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/types"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/utils"
)

type TeamMemberRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role"`
	CanCreate *bool  `json:"can_create"`
	CanEdit   *bool  `json:"can_edit"`
	CanDelete *bool  `json:"can_delete"`
}

func ListTeamMembers(ctx *gin.Context) {
	var users []models.User

	if err := db.DB.Order("created_at ASC").Find(&users).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team members"})
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// CreateTeamMember provisions a new user with a random initial password and
// mails the credentials to them.
func CreateTeamMember(ctx *gin.Context) {
	var req TeamMemberRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = types.RoleUser
	}

	if role != types.RoleUser && role != types.RoleSuperAdmin {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unsupported role: " + role})
		return
	}

	password, err := generatePassword()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team member"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team member"})
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if req.CanCreate != nil {
		user.CanCreate = *req.CanCreate
	}
	if req.CanEdit != nil {
		user.CanEdit = *req.CanEdit
	}
	if req.CanDelete != nil {
		user.CanDelete = *req.CanDelete
	}

	if err := db.DB.Create(&user).Error; err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
		return
	}

	go func() {
		body := fmt.Sprintf(
			"Hi %s,\n\nAn account has been created for you on MarketBytes Pulse.\n\nEmail: %s\nPassword: %s\n\nPlease log in and change your password.",
			user.Username, user.Email, password,
		)
		if err := mailer.Send(user.Email, "Welcome to MarketBytes Pulse", body); err != nil {
			zap.L().Error("onboarding email failed", zap.String("email", user.Email), zap.Error(err))
		}
	}()

	ctx.JSON(http.StatusCreated, user)
}

func UpdateTeamMember(ctx *gin.Context) {
	user, ok := findTeamMember(ctx)

	if !ok {
		return
	}

	var req TeamMemberRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.Username = req.Username
	user.Email = req.Email

	if req.Role != "" {
		if req.Role != types.RoleUser && req.Role != types.RoleSuperAdmin {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "unsupported role: " + req.Role})
			return
		}
		user.Role = req.Role
	}

	if req.CanCreate != nil {
		user.CanCreate = *req.CanCreate
	}
	if req.CanEdit != nil {
		user.CanEdit = *req.CanEdit
	}
	if req.CanDelete != nil {
		user.CanDelete = *req.CanDelete
	}

	if err := db.DB.Save(user).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update team member"})
		return
	}

	ctx.JSON(http.StatusOK, user)
}

func DeleteTeamMember(ctx *gin.Context) {
	user, ok := findTeamMember(ctx)

	if !ok {
		return
	}

	if current, err := utils.GetCurrentUser(ctx); err == nil && current.ID == user.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	if err := db.DB.Delete(user).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team member"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func findTeamMember(ctx *gin.Context) (*models.User, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return nil, false
	}

	var user models.User

	if err := db.DB.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return nil, false
	}

	return &user, true
}

func generatePassword() (string, error) {
	raw := make([]byte, 12)

	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}
