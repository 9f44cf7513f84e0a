package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"messenger/internal/domain"
	"messenger/internal/mailer"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
	"messenger/pkg/otp"
)

type TwoFactorService interface {
	SignUpWith2fa(ctx context.Context, email string) (*TwoFactorResponse, error)
	Resend2faCode(ctx context.Context, userID uuid.UUID, counter int) (int, error)
	Verify2faCode(ctx context.Context, userID uuid.UUID, code string, counter int) (*AuthResponse, error)
}

type TwoFactorResponse struct {
	Token   string `json:"user_token"`
	Counter int    `json:"counter"`
}

type emailInput struct {
	Email string `validate:"required,email,max=255"`
}

type twoFactorService struct {
	userRepo repository.UserRepository
	auth     AuthService
	audit    AuditService
	mail     mailer.Mailer
	log      logger.Logger
}

func NewTwoFactorService(userRepo repository.UserRepository, auth AuthService, audit AuditService, mail mailer.Mailer, log logger.Logger) TwoFactorService {
	return &twoFactorService{
		userRepo: userRepo,
		auth:     auth,
		audit:    audit,
		mail:     mail,
		log:      log,
	}
}

// SignUpWith2fa starts or restarts a code based signup. A user that already
// passed code verification may restart, one further along may not.
func (s *twoFactorService) SignUpWith2fa(ctx context.Context, email string) (*TwoFactorResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateInput(emailInput{Email: email}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		user, err = s.createPending(ctx, email)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !user.Is2faEnabled:
		return nil, fmt.Errorf("user with email %q: %w", email, apperrors.ErrUserAlreadyExists)
	case user.AuthStatus != domain.AuthStatusNotAuthenticated && user.AuthStatus != domain.AuthStatusAuthenticated:
		return nil, fmt.Errorf("user with email %q: %w", email, apperrors.ErrUserAlreadyExists)
	}

	secret, err := otp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	user.TwoFactorSecret = secret
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error("Failed to store 2fa secret", "user_id", user.ID, "error", err)
		return nil, err
	}

	if err := s.sendCode(ctx, user, 0); err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(user, false)
	if err != nil {
		return nil, err
	}
	return &TwoFactorResponse{Token: token, Counter: 0}, nil
}

func (s *twoFactorService) createPending(ctx context.Context, email string) (*domain.User, error) {
	ts := now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Is2faEnabled: true,
		AuthStatus:   domain.AuthStatusNotAuthenticated,
		LastSeen:     ts,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.log.Error("Failed to create 2fa user", "email", email, "error", err)
		return nil, err
	}
	record(ctx, s.audit, s.log, user.ID, nil, domain.EventTypeUserSignedUp, map[string]interface{}{"two_factor": true})
	return user, nil
}

func (s *twoFactorService) Resend2faCode(ctx context.Context, userID uuid.UUID, counter int) (int, error) {
	if counter < 0 {
		return 0, fmt.Errorf("counter must not be negative: %w", apperrors.ErrValidation)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user.TwoFactorSecret == "" {
		return 0, fmt.Errorf("no code was issued for user %s: %w", userID, apperrors.ErrValidation)
	}

	next := counter + 1
	if err := s.sendCode(ctx, user, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *twoFactorService) Verify2faCode(ctx context.Context, userID uuid.UUID, code string, counter int) (*AuthResponse, error) {
	if counter < 0 {
		return nil, fmt.Errorf("counter must not be negative: %w", apperrors.ErrValidation)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorSecret == "" || !otp.Verify(code, user.TwoFactorSecret, uint64(counter)) {
		return nil, apperrors.ErrInvalidCode
	}

	next, err := user.AuthStatus.Transition(domain.AuthStatusAuthenticated)
	if err != nil {
		return nil, err
	}
	user.AuthStatus = next
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(user, true)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user.Sanitize(), Token: token}, nil
}

func (s *twoFactorService) sendCode(ctx context.Context, user *domain.User, counter int) error {
	code, err := otp.Code(user.TwoFactorSecret, uint64(counter))
	if err != nil {
		return err
	}
	if err := s.mail.SendSignupCode(ctx, user.Email, code); err != nil {
		s.log.Error("Failed to mail signup code", "user_id", user.ID, "error", err)
		if !errors.Is(err, apperrors.ErrMailDelivery) {
			err = fmt.Errorf("%v: %w", err, apperrors.ErrMailDelivery)
		}
		return err
	}
	return nil
}
