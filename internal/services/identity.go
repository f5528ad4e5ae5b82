package services

import (
	"fmt"
	"time"

	"party-radar-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const jwtExpDays = 365

// IdentityService issues and validates the bearer tokens that carry the
// caller's identity and profile hints. Every write path resolves the current
// user through a token minted here.
type IdentityService struct {
	jwtSecret string
}

// NewIdentityService creates a new identity service
func NewIdentityService(jwtSecret string) *IdentityService {
	return &IdentityService{jwtSecret: jwtSecret}
}

// NewAnonymousUser mints a fresh identity with optional profile hints
func (s *IdentityService) NewAnonymousUser(email, displayName, avatarURL string) *models.AuthUser {
	return &models.AuthUser{
		ID:              uuid.New().String(),
		Email:           email,
		DisplayNameHint: displayName,
		AvatarHint:      avatarURL,
	}
}

// IssueToken generates a JWT for a user
func (s *IdentityService) IssueToken(user *models.AuthUser) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}
	if user.DisplayNameHint != "" {
		claims["name"] = user.DisplayNameHint
	}
	if user.AvatarHint != "" {
		claims["avatar"] = user.AvatarHint
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT and returns the identity it carries
func (s *IdentityService) ValidateToken(tokenString string) (*models.AuthUser, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("user_id not found in token")
	}

	user := &models.AuthUser{ID: userID}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		user.DisplayNameHint = name
	}
	if avatar, ok := claims["avatar"].(string); ok {
		user.AvatarHint = avatar
	}

	return user, nil
}
