package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/config"
	"posdesk/internal/core/domain"
	"posdesk/internal/pkg/jwt"
	"posdesk/internal/pkg/password"

	"gorm.io/gorm"
)

// Auth errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// AuthService handles staff authentication
type AuthService struct {
	userRepo repositories.UserRepository
	access   *AccessResolver
	cfg      *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	access *AccessResolver,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		access:   access,
		cfg:      cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *models.UserResponse      `json:"user"`
	AccessToken string                    `json:"access_token"`
	ExpiresAt   time.Time                 `json:"expires_at"`
	Permissions domain.PermissionSnapshot `json:"permissions"`
}

// Login authenticates a staff member
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password before revealing account state
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 4. Generate token
	token, expiresAt, err := jwt.GenerateAccessToken(
		user.ID,
		user.Email,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	// 5. Start from a fresh permission session
	s.access.Discard(user.ID)
	view := s.access.View(ctx, user.ID)

	log.Printf("✅ User logged in: %s", user.Email)

	return &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Permissions: view.Snapshot,
	}, nil
}

// Logout drops the actor's permission session, including any preview
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	s.access.Discard(userID)
	log.Printf("✅ User logged out: %d", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
