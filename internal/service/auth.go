package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"messenger/internal/config"
	"messenger/internal/domain"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/jwt"
	"messenger/pkg/logger"
)

type AuthService interface {
	SignUp(ctx context.Context, input SignUpInput) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	// ValidateToken resolves a bearer token to its user. It does not apply
	// the two-factor rule; see Admit.
	ValidateToken(ctx context.Context, tokenString string) (*domain.User, *jwt.Claims, error)
	IssueToken(user *domain.User, twoFactor bool) (string, error)
}

type SignUpInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

type AuthResponse struct {
	User  *domain.User `json:"user,omitempty"`
	Token string       `json:"user_token"`
}

type authService struct {
	userRepo repository.UserRepository
	audit    AuditService
	jwtCfg   config.JWTConfig
	log      logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, audit AuditService, jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		audit:    audit,
		jwtCfg:   jwtCfg,
		log:      log,
	}
}

func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*AuthResponse, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("user with email %q: %w", input.Email, apperrors.ErrUserAlreadyExists)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	salt, hash, err := hashPassword(input.Password)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return nil, err
	}

	ts := now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		FirstName:    &input.FirstName,
		LastName:     &input.LastName,
		PasswordHash: hash,
		Salt:         salt,
		AuthStatus:   domain.AuthStatusHaveAccount,
		LastSeen:     ts,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.log.Error("Failed to create user", "error", err, "email", user.Email)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	record(ctx, s.audit, s.log, user.ID, nil, domain.EventTypeUserSignedUp, map[string]interface{}{"two_factor": false})

	token, err := s.IssueToken(user, false)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user.Sanitize(), Token: token}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(password, user.Salt, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	twoFactor := user.AuthStatus != domain.AuthStatusNotAuthenticated && user.Is2faEnabled
	token, err := s.IssueToken(user, twoFactor)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token}, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, *jwt.Claims, error) {
	claims, err := jwt.ValidateToken(tokenString, s.jwtCfg.Secret)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("token user is gone: %w", apperrors.ErrInvalidToken)
		}
		return nil, nil, err
	}
	return user, claims, nil
}

func (s *authService) IssueToken(user *domain.User, twoFactor bool) (string, error) {
	token, err := jwt.GenerateToken(user.ID, user.Email, twoFactor, s.jwtCfg.Secret, s.jwtCfg.Issuer, s.jwtCfg.TTL)
	if err != nil {
		s.log.Error("Failed to generate token", "error", err)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// Admit applies the two-factor guard: users without 2FA are always
// admitted, users with it only on a token that carries the two_factor claim.
func Admit(user *domain.User, claims *jwt.Claims) bool {
	return !user.Is2faEnabled || claims.TwoFactor
}
