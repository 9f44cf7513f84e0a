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
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
	"messenger/pkg/pagination"
)

const defaultMessagesTake = 50

type MessageService interface {
	CreateMessage(ctx context.Context, chatID, authorID uuid.UUID, content string) (*domain.Message, error)
	GetMessages(ctx context.Context, chatID uuid.UUID, filter MessagesFilter, params pagination.Params) (pagination.Page[*domain.Message], error)
	UpdateMessage(ctx context.Context, messageID, actingID uuid.UUID, content string) (*domain.Message, error)
	// GetChatsMessages returns the newest messages first; limit 0 means all.
	GetChatsMessages(ctx context.Context, chatID uuid.UUID, limit int) ([]*domain.Message, error)
	GetChat(ctx context.Context, messageID uuid.UUID) (*domain.Chat, error)
	GetAuthor(ctx context.Context, messageID uuid.UUID) (*domain.User, error)
}

type MessagesFilter struct {
	OrderBy        string `form:"order_by"`
	OrderDirection string `form:"order_direction"`
}

type contentInput struct {
	Content string `validate:"required,max=4096"`
}

type messageService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	readState   ReadStateService
	bus         pubsub.Publisher
	log         logger.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, chatRepo repository.ChatRepository, userRepo repository.UserRepository, readState ReadStateService, bus pubsub.Publisher, log logger.Logger) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		readState:   readState,
		bus:         bus,
		log:         log,
	}
}

func (s *messageService) CreateMessage(ctx context.Context, chatID, authorID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if err := validateInput(contentInput{Content: content}); err != nil {
		return nil, err
	}

	if _, err := s.chatRepo.GetByID(ctx, chatID); err != nil {
		return nil, err
	}
	members, err := s.chatRepo.GetMembers(ctx, chatID)
	if err != nil {
		return nil, err
	}
	recipients := lo.Map(members, func(u *domain.User, _ int) uuid.UUID { return u.ID })
	if !lo.Contains(recipients, authorID) {
		return nil, fmt.Errorf("user %s is not in chat %s: %w", authorID, chatID, apperrors.ErrForbidden)
	}

	ts := now()
	message := &domain.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.readState.Seed(message)
	if err := s.messageRepo.Create(ctx, message); err != nil {
		s.log.Error("Failed to create message", "chat_id", chatID, "error", err)
		return nil, err
	}

	s.bus.Publish(pubsub.Event{Kind: pubsub.KindMessageCreated, Payload: message, RecipientIDs: recipients})

	caught, err := s.readState.CatchUpAuthor(ctx, message)
	if err != nil {
		s.log.Warn("Failed to catch up author read state", "message_id", message.ID, "error", err)
	} else if len(caught) > 0 {
		s.bus.Publish(pubsub.Event{Kind: pubsub.KindMessageUpdated, Payload: caught, RecipientIDs: recipients})
	}
	return message, nil
}

func (s *messageService) GetMessages(ctx context.Context, chatID uuid.UUID, filter MessagesFilter, params pagination.Params) (pagination.Page[*domain.Message], error) {
	params = params.WithDefaults(defaultMessagesTake)

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = domain.MessageOrderByCreatedAt
	}
	if orderBy != domain.MessageOrderByCreatedAt && orderBy != domain.MessageOrderByUpdatedAt {
		return pagination.Page[*domain.Message]{}, fmt.Errorf("unknown order %q: %w", orderBy, apperrors.ErrValidation)
	}
	dir, err := parseDirection(filter.OrderDirection, domain.OrderDESC)
	if err != nil {
		return pagination.Page[*domain.Message]{}, err
	}

	messages, total, err := s.messageRepo.List(ctx, domain.MessageQuery{
		ChatID:         chatID,
		OrderBy:        orderBy,
		OrderDirection: dir,
		Offset:         params.Offset(),
		Limit:          params.Take,
	})
	if err != nil {
		return pagination.Page[*domain.Message]{}, err
	}
	return pagination.New(messages, params, total), nil
}

func (s *messageService) UpdateMessage(ctx context.Context, messageID, actingID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if err := validateInput(contentInput{Content: content}); err != nil {
		return nil, err
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.AuthorID != actingID {
		return nil, fmt.Errorf("only the author may edit message %s: %w", messageID, apperrors.ErrForbidden)
	}

	message.Content = content
	if err := s.messageRepo.UpdateContent(ctx, message); err != nil {
		return nil, err
	}

	members, err := s.chatRepo.GetMembers(ctx, message.ChatID)
	if err != nil {
		s.log.Warn("Failed to load chat members for update event", "chat_id", message.ChatID, "error", err)
		return message, nil
	}
	s.bus.Publish(pubsub.Event{
		Kind:         pubsub.KindMessageUpdated,
		Payload:      []*domain.Message{message},
		RecipientIDs: lo.Map(members, func(u *domain.User, _ int) uuid.UUID { return u.ID }),
	})
	return message, nil
}

func (s *messageService) GetChatsMessages(ctx context.Context, chatID uuid.UUID, limit int) ([]*domain.Message, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative: %w", apperrors.ErrValidation)
	}
	return s.messageRepo.ListRecent(ctx, chatID, limit)
}

func (s *messageService) GetChat(ctx context.Context, messageID uuid.UUID) (*domain.Chat, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return s.chatRepo.GetByID(ctx, message.ChatID)
}

func (s *messageService) GetAuthor(ctx context.Context, messageID uuid.UUID) (*domain.User, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, message.AuthorID)
	if err != nil {
		return nil, err
	}
	return author.Sanitize(), nil
}
