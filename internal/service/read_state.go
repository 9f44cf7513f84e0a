package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"messenger/internal/domain"
	"messenger/internal/pubsub"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

// ReadStateService owns every change to a message's seen-by set.
type ReadStateService interface {
	// Seed initialises the seen-by set of a message that is about to be stored.
	Seed(message *domain.Message)
	// CatchUpAuthor marks every earlier message of the chat as seen by the
	// author of message and returns the messages that changed.
	CatchUpAuthor(ctx context.Context, message *domain.Message) ([]*domain.Message, error)
	NotSeenCount(ctx context.Context, chatID, userID uuid.UUID) (int, error)
	ReadMessages(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) (*ReadResult, error)
	// UsersSeen is visible to chat members only.
	UsersSeen(ctx context.Context, messageID, viewerID uuid.UUID) ([]*domain.User, error)
}

type ReadResult struct {
	Messages     []*domain.Message `json:"messages"`
	Latest       *domain.Message   `json:"message"`
	RecipientIDs []uuid.UUID       `json:"-"`
}

type readStateService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	bus         pubsub.Publisher
	log         logger.Logger
}

func NewReadStateService(messageRepo repository.MessageRepository, chatRepo repository.ChatRepository, bus pubsub.Publisher, log logger.Logger) ReadStateService {
	return &readStateService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		bus:         bus,
		log:         log,
	}
}

func (s *readStateService) Seed(message *domain.Message) {
	message.SeenBy = []uuid.UUID{message.AuthorID}
}

func (s *readStateService) CatchUpAuthor(ctx context.Context, message *domain.Message) ([]*domain.Message, error) {
	earlier, err := s.messageRepo.ListBefore(ctx, message.ChatID, message.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s.markSeen(ctx, earlier, message.AuthorID)
}

func (s *readStateService) NotSeenCount(ctx context.Context, chatID, userID uuid.UUID) (int, error) {
	return s.messageRepo.CountNotSeen(ctx, chatID, userID)
}

// ReadMessages marks everything in the chat up to the newest of ids as
// seen by viewerID. All ids must belong to one chat.
func (s *readStateService) ReadMessages(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) (*ReadResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no messages to read: %w", apperrors.ErrValidation)
	}

	resolved, err := s.messageRepo.GetByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("none of the messages exist: %w", apperrors.ErrNotFound)
	}

	latest := resolved[0]
	for _, m := range resolved[1:] {
		if m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}

	chatIDs := lo.Uniq(lo.Map(resolved, func(m *domain.Message, _ int) uuid.UUID { return m.ChatID }))
	if len(chatIDs) > 1 {
		return nil, fmt.Errorf("messages span %d chats: %w", len(chatIDs), apperrors.ErrValidation)
	}
	chatID := chatIDs[0]
	if err := s.requireMember(ctx, chatID, viewerID); err != nil {
		return nil, err
	}

	earlier, err := s.messageRepo.ListBefore(ctx, chatID, latest.CreatedAt)
	if err != nil {
		return nil, err
	}
	candidates := lo.UniqBy(append(earlier, resolved...), func(m *domain.Message) uuid.UUID { return m.ID })

	updated, err := s.markSeen(ctx, candidates, viewerID)
	if err != nil {
		return nil, err
	}

	members, err := s.chatRepo.GetMembers(ctx, chatID)
	if err != nil {
		return nil, err
	}
	recipients := lo.Map(members, func(u *domain.User, _ int) uuid.UUID { return u.ID })

	if len(updated) > 0 {
		s.bus.Publish(pubsub.Event{Kind: pubsub.KindMessageUpdated, Payload: updated, RecipientIDs: recipients})
	}
	return &ReadResult{Messages: updated, Latest: latest, RecipientIDs: recipients}, nil
}

func (s *readStateService) UsersSeen(ctx context.Context, messageID, viewerID uuid.UUID) ([]*domain.User, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, message.ChatID, viewerID); err != nil {
		return nil, err
	}
	users, err := s.messageRepo.GetSeenBy(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

func (s *readStateService) requireMember(ctx context.Context, chatID, userID uuid.UUID) error {
	ok, err := s.chatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s is not in chat %s: %w", userID, chatID, apperrors.ErrForbidden)
	}
	return nil
}

// markSeen adds userID to the seen-by set of every message that lacks it,
// in one write, and returns those messages as they are after the write.
func (s *readStateService) markSeen(ctx context.Context, messages []*domain.Message, userID uuid.UUID) ([]*domain.Message, error) {
	unseen := lo.Filter(messages, func(m *domain.Message, _ int) bool { return !m.SeenByUser(userID) })
	if len(unseen) == 0 {
		return []*domain.Message{}, nil
	}

	ids := lo.Map(unseen, func(m *domain.Message, _ int) uuid.UUID { return m.ID })
	if err := s.messageRepo.AddSeen(ctx, userID, ids); err != nil {
		s.log.Error("Failed to mark messages seen", "user_id", userID, "count", len(ids), "error", err)
		return nil, err
	}
	for _, m := range unseen {
		m.SeenBy = append(m.SeenBy, userID)
	}
	return unseen, nil
}
