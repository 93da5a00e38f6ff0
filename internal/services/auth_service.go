package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/models"
	"github.com/genrefy/backend/pkg/crypto"
	jwtpkg "github.com/genrefy/backend/pkg/jwt"
	"github.com/genrefy/backend/pkg/validation"
)

type AuthService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
	email *EmailService
}

func NewAuthService(db *gorm.DB, redis *redis.Client, cfg *config.Config, email *EmailService) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
		cfg:   cfg,
		email: email,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(username, password string) (string, string, *models.User, error) {
	var user models.User

	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, errors.New("invalid credentials")
		}
		return "", "", nil, err
	}

	if !user.IsActive {
		return "", "", nil, errors.New("account is deactivated")
	}

	if !crypto.CheckPassword(password, user.Password) {
		return "", "", nil, errors.New("invalid credentials")
	}

	accessToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", "", nil, err
	}

	refreshToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.RefreshToken, s.cfg.JWTSecret, s.cfg.JWTRefreshTokenDuration)
	if err != nil {
		return "", "", nil, err
	}

	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshTokenDuration),
	}

	if err := s.db.Create(refreshTokenModel).Error; err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, &user, nil
}

// Register creates a new user account with its profile. The profile is
// created in the same transaction as the user.
func (s *AuthService) Register(username, email, password, name string) (*models.User, error) {
	username = validation.SanitizeString(username)
	email = validation.SanitizeString(email)
	name = validation.SanitizeString(name)

	if !validation.ValidateUsername(username) {
		return nil, errors.New("invalid username")
	}
	if !validation.ValidateEmail(email) {
		return nil, errors.New("invalid email address")
	}
	if !validation.ValidatePassword(password) {
		return nil, errors.New("password must be at least 8 characters with upper, lower and numeric characters")
	}

	var existingUser models.User
	if err := s.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error; err == nil {
		if existingUser.Username == username {
			return nil, errors.New("username already taken")
		}
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Name:     name,
	}

	tx := s.db.Begin()

	if err := tx.Create(user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	profile := &models.UserProfile{UserID: user.ID}
	if err := tx.Create(profile).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	user.Profile = profile

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(user.Email, user.Name); err != nil {
			log.Printf("[Auth] welcome email to %s failed: %v", user.Email, err)
		}
	}

	return user, nil
}

// RefreshToken generates new access token from refresh token
func (s *AuthService) RefreshToken(refreshToken string) (string, error) {
	claims, err := jwtpkg.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return "", errors.New("invalid refresh token")
	}

	if claims.TokenType != jwtpkg.RefreshToken {
		return "", errors.New("invalid token type")
	}

	var tokenModel models.RefreshToken
	if err := s.db.Where("token = ?", refreshToken).First(&tokenModel).Error; err != nil {
		return "", errors.New("refresh token not found")
	}

	if time.Now().After(tokenModel.ExpiresAt) {
		return "", errors.New("refresh token expired")
	}

	accessToken, err := jwtpkg.GenerateToken(claims.UserID, jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

// Logout deletes the user's refresh tokens and blacklists the current
// access token for the remainder of its lifetime.
func (s *AuthService) Logout(userID uuid.UUID, accessToken string) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}

	if accessToken != "" {
		ttl := blacklistTTL(accessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
		if ttl > 0 {
			ctx := context.Background()
			blacklistKey := fmt.Sprintf("blacklist:token:%s", accessToken)
			if err := s.redis.Set(ctx, blacklistKey, "1", ttl).Err(); err != nil {
				log.Printf("WARN: Could not blacklist token in Redis: %v", err)
			}
		}
	}
	return nil
}

// blacklistTTL keeps the blacklist entry alive only as long as the token
// itself. Tokens that cannot be parsed fall back to the full access
// lifetime.
func blacklistTTL(token, secret string, fallback time.Duration) time.Duration {
	claims, err := jwtpkg.ValidateToken(token, secret)
	if err != nil || claims.ExpiresAt == nil {
		return fallback
	}
	return time.Until(claims.ExpiresAt.Time)
}

// ValidateAccessToken validates an access token and returns claims
func (s *AuthService) ValidateAccessToken(token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != jwtpkg.AccessToken {
		return nil, errors.New("invalid token type")
	}

	// If redis is down, the request is allowed to proceed
	ctx := context.Background()
	blacklistKey := fmt.Sprintf("blacklist:token:%s", token)
	exists, err := s.redis.Exists(ctx, blacklistKey).Result()
	if err != nil {
		log.Printf("WARN: Could not connect to Redis to check token blacklist: %v", err)
	} else if exists > 0 {
		return nil, errors.New("token is blacklisted")
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CleanupExpiredTokens removes expired refresh tokens
func (s *AuthService) CleanupExpiredTokens() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}
