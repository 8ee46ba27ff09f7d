package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
)

const (
	accessTTL  = time.Hour
	refreshTTL = 7 * 24 * time.Hour
)

var jwtSecret string

func InitJWTSecret(secret string) error {
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}

	if secret == "" {
		return fmt.Errorf("JWT secret is not set")
	}

	jwtSecret = secret
	return nil
}

// TokenPair is the login response token set.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// GenerateTokenPair issues an access token carrying the user's role and
// capability flags, plus a refresh token with a jti for blacklisting.
func GenerateTokenPair(user *models.User) (TokenPair, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"user_id":    user.ID,
		"email":      user.Email,
		"role":       user.Role,
		"can_create": user.CanCreate,
		"can_edit":   user.CanEdit,
		"can_delete": user.CanDelete,
		"token_type": "access",
		"exp":        now.Add(accessTTL).Unix(),
		"iat":        now.Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(jwtSecret))

	if err != nil {
		return TokenPair{}, err
	}

	refreshClaims := jwt.MapClaims{
		"user_id":    user.ID,
		"token_type": "refresh",
		"jti":        uuid.NewString(),
		"exp":        now.Add(refreshTTL).Unix(),
		"iat":        now.Unix(),
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(jwtSecret))

	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	return token, nil
}

// VerifyRefresh validates a refresh token and returns its user id and jti.
func VerifyRefresh(tokenString string) (uint, string, time.Time, error) {
	token, err := VerifyJWT(tokenString)

	if err != nil {
		return 0, "", time.Time{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return 0, "", time.Time{}, fmt.Errorf("invalid token claims")
	}

	if tokenType, _ := claims["token_type"].(string); tokenType != "refresh" {
		return 0, "", time.Time{}, fmt.Errorf("not a refresh token")
	}

	userIDFloat, ok := claims["user_id"].(float64)

	if !ok {
		return 0, "", time.Time{}, fmt.Errorf("invalid user id in token claims")
	}

	jti, _ := claims["jti"].(string)

	var expiry time.Time
	if expFloat, ok := claims["exp"].(float64); ok {
		expiry = time.Unix(int64(expFloat), 0)
	}

	return uint(userIDFloat), jti, expiry, nil
}
