package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/marketbytes-devops/server-monitoring-portal/db"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/auth"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
)

const otpTTL = 10 * time.Minute

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User

	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokens, err := auth.GenerateTokenPair(&user)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access":   tokens.Access,
		"refresh":  tokens.Refresh,
		"role":     user.Role,
		"email":    user.Email,
		"username": user.Username,
		"permissions": gin.H{
			"can_create": user.CanCreate,
			"can_edit":   user.CanEdit,
			"can_delete": user.CanDelete,
		},
	})
}

// Logout blacklists the refresh token until its natural expiry.
func Logout(ctx *gin.Context) {
	var req LogoutRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	_, jti, expiry, err := auth.VerifyRefresh(req.Refresh)

	if err != nil || jti == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	ttl := time.Until(expiry)
	if ttl <= 0 {
		ttl = time.Minute
	}

	if err := db.Redis().Set(db.Ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke token"})
		return
	}

	ctx.JSON(http.StatusResetContent, gin.H{"message": "Successfully logged out"})
}

func RefreshToken(ctx *gin.Context) {
	var req RefreshRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	userID, jti, _, err := auth.VerifyRefresh(req.Refresh)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	if jti != "" {
		revoked, err := db.Redis().Exists(db.Ctx, blacklistKey(jti)).Result()
		if err == nil && revoked > 0 {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}
	}

	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	tokens, err := auth.GenerateTokenPair(&user)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"access": tokens.Access})
}

func ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User

	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	code, err := generateOTP()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}

	if err := db.Redis().Set(db.Ctx, otpKey(email), code, otpTTL).Err(); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store OTP"})
		return
	}

	if mailer != nil {
		go func() {
			if err := mailer.Send(email, "Password Reset OTP", fmt.Sprintf("Your OTP is: %s", code)); err != nil {
				zap.L().Error("send otp mail", zap.String("email", email), zap.Error(err))
			}
		}()
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "OTP sent to email"})
}

func VerifyOTP(ctx *gin.Context) {
	var req VerifyOTPRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	stored, err := db.Redis().Get(db.Ctx, otpKey(email)).Result()

	if err != nil || stored != req.Code {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
		return
	}

	var user models.User

	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user.PasswordHash = string(hash)

	if err := db.DB.Save(&user).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	db.Redis().Del(db.Ctx, otpKey(email))

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

func otpKey(email string) string {
	return "otp:" + email
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))

	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
