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
)

type ChatService interface {
	FindChat(ctx context.Context, id uuid.UUID, relations ...domain.ChatRelation) (*domain.Chat, error)
	GetUsers(ctx context.Context, chatID uuid.UUID) ([]*domain.User, error)
	CreatePersonalChat(ctx context.Context, initiatorID, targetID uuid.UUID) (*domain.Chat, error)
	CreateChat(ctx context.Context, initiatorID uuid.UUID, input CreateChatInput) (*domain.Chat, error)
	AddToChat(ctx context.Context, actingID, chatID, targetID uuid.UUID) (*domain.Chat, error)
	RemoveFromChat(ctx context.Context, actingID, chatID, targetID uuid.UUID) (*domain.Chat, error)
	GetFriend(ctx context.Context, chatID, viewerID uuid.UUID) (*domain.User, error)
	GetAdmin(ctx context.Context, chatID uuid.UUID) (*domain.User, error)
	MyChats(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error)
	FriendsChats(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error)
	IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
}

type CreateChatInput struct {
	Name  string         `json:"name" validate:"required,max=100"`
	Image *domain.Upload `json:"image,omitempty"`
}

type chatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	audit    AuditService
	uploader uploads.Uploader
	bus      pubsub.Publisher
	log      logger.Logger
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, audit AuditService, uploader uploads.Uploader, bus pubsub.Publisher, log logger.Logger) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		audit:    audit,
		uploader: uploader,
		bus:      bus,
		log:      log,
	}
}

func (s *chatService) FindChat(ctx context.Context, id uuid.UUID, relations ...domain.ChatRelation) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, rel := range lo.Uniq(relations) {
		switch rel {
		case domain.ChatRelationUsers:
			users, err := s.chatRepo.GetMembers(ctx, id)
			if err != nil {
				return nil, err
			}
			chat.Users = sanitizeAll(users)
		case domain.ChatRelationAdmin:
			admin, err := s.loadAdmin(ctx, chat)
			if err != nil {
				return nil, err
			}
			chat.Admin = admin
		default:
			return nil, fmt.Errorf("unknown chat relation %q: %w", rel, apperrors.ErrValidation)
		}
	}
	return chat, nil
}

func (s *chatService) GetUsers(ctx context.Context, chatID uuid.UUID) ([]*domain.User, error) {
	chat, err := s.FindChat(ctx, chatID, domain.ChatRelationUsers)
	if err != nil {
		return nil, err
	}
	return chat.Users, nil
}

func (s *chatService) CreatePersonalChat(ctx context.Context, initiatorID, targetID uuid.UUID) (*domain.Chat, error) {
	if initiatorID == targetID {
		return nil, fmt.Errorf("personal chat needs two users: %w", apperrors.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	chat, created, err := s.chatRepo.GetOrCreateFriendsChat(ctx, initiatorID, targetID)
	if err != nil {
		s.log.Error("Failed to get or create personal chat", "user_id", initiatorID, "target_id", targetID, "error", err)
		return nil, err
	}
	if created {
		record(ctx, s.audit, s.log, initiatorID, &chat.ID, domain.EventTypePersonalChatCreated, map[string]interface{}{"target_id": targetID.String()})
		s.log.Info("Personal chat created", "chat_id", chat.ID)
	}
	return chat, nil
}

// CreateChat uploads the image first so a failed upload persists nothing.
func (s *chatService) CreateChat(ctx context.Context, initiatorID uuid.UUID, input CreateChatInput) (*domain.Chat, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	initiator, err := s.userRepo.GetByID(ctx, initiatorID)
	if err != nil {
		return nil, err
	}

	var imgURL *string
	if input.Image != nil {
		url, err := s.uploader.Upload(ctx, input.Image.Base64, input.Image.Ext)
		if err != nil {
			return nil, err
		}
		imgURL = &url
	}

	chat := &domain.Chat{
		ID:      uuid.New(),
		Name:    &input.Name,
		ImgURL:  imgURL,
		AdminID: &initiatorID,
	}
	if err := s.chatRepo.Create(ctx, chat, []uuid.UUID{initiatorID}); err != nil {
		s.log.Error("Failed to create chat", "user_id", initiatorID, "error", err)
		return nil, err
	}
	chat.Users = []*domain.User{initiator.Sanitize()}
	chat.Admin = initiator.Sanitize()

	record(ctx, s.audit, s.log, initiatorID, &chat.ID, domain.EventTypeChatCreated, map[string]interface{}{"name": input.Name})
	s.bus.Publish(pubsub.Event{
		Kind:         pubsub.KindChatCreated,
		Payload:      chat,
		RecipientIDs: []uuid.UUID{initiatorID},
	})
	return chat, nil
}

func (s *chatService) AddToChat(ctx context.Context, actingID, chatID, targetID uuid.UUID) (*domain.Chat, error) {
	if _, err := s.adminChat(ctx, actingID, chatID, targetID); err != nil {
		return nil, err
	}
	if err := s.chatRepo.AddMember(ctx, chatID, targetID); err != nil {
		return nil, err
	}
	record(ctx, s.audit, s.log, actingID, &chatID, domain.EventTypeChatMemberAdded, map[string]interface{}{"user_id": targetID.String()})
	return s.FindChat(ctx, chatID, domain.ChatRelationUsers)
}

func (s *chatService) RemoveFromChat(ctx context.Context, actingID, chatID, targetID uuid.UUID) (*domain.Chat, error) {
	if _, err := s.adminChat(ctx, actingID, chatID, targetID); err != nil {
		return nil, err
	}
	if err := s.chatRepo.RemoveMember(ctx, chatID, targetID); err != nil {
		return nil, err
	}
	record(ctx, s.audit, s.log, actingID, &chatID, domain.EventTypeChatMemberRemoved, map[string]interface{}{"user_id": targetID.String()})
	return s.FindChat(ctx, chatID, domain.ChatRelationUsers)
}

// adminChat loads the chat and target and checks that actingID administers
// the chat. Friend chats have no admin, so they always fail the check.
func (s *chatService) adminChat(ctx context.Context, actingID, chatID, targetID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	if !chat.IsAdmin(actingID) {
		return nil, fmt.Errorf("user %s does not administer chat %s: %w", actingID, chatID, apperrors.ErrForbidden)
	}
	return chat, nil
}

func (s *chatService) GetFriend(ctx context.Context, chatID, viewerID uuid.UUID) (*domain.User, error) {
	chat, err := s.FindChat(ctx, chatID, domain.ChatRelationUsers)
	if err != nil {
		return nil, err
	}
	if !chat.IsFriendsChat {
		return nil, nil
	}
	if !lo.ContainsBy(chat.Users, func(u *domain.User) bool { return u.ID == viewerID }) {
		return nil, nil
	}
	friend, ok := lo.Find(chat.Users, func(u *domain.User) bool { return u.ID != viewerID })
	if !ok {
		return nil, nil
	}
	return friend, nil
}

func (s *chatService) GetAdmin(ctx context.Context, chatID uuid.UUID) (*domain.User, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.loadAdmin(ctx, chat)
}

func (s *chatService) loadAdmin(ctx context.Context, chat *domain.Chat) (*domain.User, error) {
	if chat.AdminID == nil {
		return nil, nil
	}
	admin, err := s.userRepo.GetByID(ctx, *chat.AdminID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return admin.Sanitize(), nil
}

func (s *chatService) MyChats(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	return s.chatRepo.ListByUser(ctx, userID)
}

func (s *chatService) FriendsChats(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	return s.chatRepo.ListFriendsChats(ctx, userID)
}

func (s *chatService) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	return s.chatRepo.IsMember(ctx, chatID, userID)
}
