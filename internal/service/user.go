package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"messenger/internal/domain"
	"messenger/internal/pubsub"
	"messenger/internal/repository"
	"messenger/internal/uploads"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
	"messenger/pkg/pagination"
)

const defaultUsersTake = 30

type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUsers(ctx context.Context, viewerID uuid.UUID, filter UsersFilter, params pagination.Params) (pagination.Page[*domain.User], error)
	CreateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*domain.User, error)
	CreateUserPassword(ctx context.Context, userID uuid.UUID, password string) (*domain.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, input UpdateUserInput) (*domain.User, error)
	Activate(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GoOut(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	GetFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
	IsFriend(ctx context.Context, userID, currentUserID uuid.UUID) (bool, error)
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*domain.User, error)
	RemoveFriend(ctx context.Context, friendID, userID uuid.UUID) (*domain.User, error)
}

type UsersFilter struct {
	OrderBy        string `form:"order_by"`
	OrderDirection string `form:"order_direction"`
	Name           string `form:"name"`
}

type ProfileInput struct {
	FirstName string         `json:"first_name" validate:"required,max=100"`
	LastName  string         `json:"last_name" validate:"required,max=100"`
	Upload    *domain.Upload `json:"upload,omitempty"`
}

// UpdateUserInput changes only the fields that are set.
type UpdateUserInput struct {
	FirstName *string        `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string        `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Email     *string        `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password  *string        `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	Avatar    *domain.Upload `json:"avatar,omitempty"`
}

type passwordInput struct {
	Password string `validate:"required,min=8,max=128"`
}

type userService struct {
	userRepo repository.UserRepository
	audit    AuditService
	uploader uploads.Uploader
	bus      pubsub.Publisher
	log      logger.Logger
}

func NewUserService(userRepo repository.UserRepository, audit AuditService, uploader uploads.Uploader, bus pubsub.Publisher, log logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		audit:    audit,
		uploader: uploader,
		bus:      bus,
		log:      log,
	}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *userService) GetUsers(ctx context.Context, viewerID uuid.UUID, filter UsersFilter, params pagination.Params) (pagination.Page[*domain.User], error) {
	params = params.WithDefaults(defaultUsersTake)

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = domain.UsersOrderByFirstName
	}
	if orderBy != domain.UsersOrderByFirstName && orderBy != domain.UsersOrderByLastName {
		return pagination.Page[*domain.User]{}, fmt.Errorf("unknown order %q: %w", orderBy, apperrors.ErrValidation)
	}
	dir, err := parseDirection(filter.OrderDirection, domain.OrderASC)
	if err != nil {
		return pagination.Page[*domain.User]{}, err
	}

	users, total, err := s.userRepo.List(ctx, domain.UserFilter{
		ExcludeID:      viewerID,
		AuthStatus:     domain.AuthStatusHaveAccount,
		Name:           filter.Name,
		OrderBy:        orderBy,
		OrderDirection: dir,
		Offset:         params.Offset(),
		Limit:          params.Take,
	})
	if err != nil {
		return pagination.Page[*domain.User]{}, err
	}
	return pagination.New(sanitizeAll(users), params, total), nil
}

func (s *userService) CreateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*domain.User, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AuthStatus != domain.AuthStatusAuthenticated {
		return nil, fmt.Errorf("%w: profile needs %s, user is %s", apperrors.ErrInvalidAuthTransition, domain.AuthStatusAuthenticated, user.AuthStatus)
	}

	var avatar *string
	if input.Upload != nil {
		url, err := s.uploader.Upload(ctx, input.Upload.Base64, input.Upload.Ext)
		if err != nil {
			return nil, err
		}
		avatar = &url
	}

	next, err := user.AuthStatus.Transition(domain.AuthStatusHaveProfile)
	if err != nil {
		return nil, err
	}
	user.FirstName = &input.FirstName
	user.LastName = &input.LastName
	user.Avatar = avatar
	user.AuthStatus = next
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *userService) CreateUserPassword(ctx context.Context, userID uuid.UUID, password string) (*domain.User, error) {
	if err := validateInput(passwordInput{Password: password}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AuthStatus != domain.AuthStatusHaveProfile {
		return nil, fmt.Errorf("%w: password needs %s, user is %s", apperrors.ErrInvalidAuthTransition, domain.AuthStatusHaveProfile, user.AuthStatus)
	}
	next, err := user.AuthStatus.Transition(domain.AuthStatusHaveAccount)
	if err != nil {
		return nil, err
	}

	salt, hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user.Salt = salt
	user.PasswordHash = hash
	user.AuthStatus = next
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Avatar != nil {
		url, err := s.uploader.Upload(ctx, input.Avatar.Base64, input.Avatar.Ext)
		if err != nil {
			return nil, err
		}
		user.Avatar = &url
	}
	if input.Password != nil {
		salt, hash, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.Salt = salt
		user.PasswordHash = hash
	}
	if input.FirstName != nil {
		user.FirstName = input.FirstName
	}
	if input.LastName != nil {
		user.LastName = input.LastName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *userService) Activate(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.setActivity(ctx, userID, true)
}

func (s *userService) GoOut(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.setActivity(ctx, userID, false)
}

func (s *userService) setActivity(ctx context.Context, userID uuid.UUID, active bool) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	user.LastSeen = now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	out := user.Sanitize()
	s.bus.Publish(pubsub.Event{Kind: pubsub.KindUserActivityChanged, Payload: out})
	return out, nil
}

func (s *userService) GetFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	friends, err := s.userRepo.GetFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(friends), nil
}

func (s *userService) IsFriend(ctx context.Context, userID, currentUserID uuid.UUID) (bool, error) {
	return s.userRepo.IsFriend(ctx, currentUserID, userID)
}

func (s *userService) AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*domain.User, error) {
	if userID == friendID {
		return nil, fmt.Errorf("cannot befriend yourself: %w", apperrors.ErrValidation)
	}
	friend, err := s.userRepo.GetByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.AddFriend(ctx, userID, friendID); err != nil {
		s.log.Error("Failed to add friend", "user_id", userID, "friend_id", friendID, "error", err)
		return nil, err
	}
	record(ctx, s.audit, s.log, userID, nil, domain.EventTypeFriendAdded, map[string]interface{}{"friend_id": friendID.String()})
	return friend.Sanitize(), nil
}

func (s *userService) RemoveFriend(ctx context.Context, friendID, userID uuid.UUID) (*domain.User, error) {
	friend, err := s.userRepo.GetByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.RemoveFriend(ctx, userID, friendID); err != nil {
		s.log.Error("Failed to remove friend", "user_id", userID, "friend_id", friendID, "error", err)
		return nil, err
	}
	record(ctx, s.audit, s.log, userID, nil, domain.EventTypeFriendRemoved, map[string]interface{}{"friend_id": friendID.String()})
	return friend.Sanitize(), nil
}

func sanitizeAll(users []*domain.User) []*domain.User {
	return lo.Map(users, func(u *domain.User, _ int) *domain.User { return u.Sanitize() })
}

func parseDirection(dir, fallback string) (string, error) {
	switch strings.ToUpper(dir) {
	case "":
		return fallback, nil
	case domain.OrderASC:
		return domain.OrderASC, nil
	case domain.OrderDESC:
		return domain.OrderDESC, nil
	}
	return "", fmt.Errorf("unknown order direction %q: %w", dir, apperrors.ErrValidation)
}
