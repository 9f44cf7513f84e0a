package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
)

type messageRepo Store

func (r *messageRepo) Create(_ context.Context, message *domain.Message) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[message.ChatID]; !ok {
		return fmt.Errorf("chat %s: %w", message.ChatID, apperrors.ErrNotFound)
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	}
	if message.UpdatedAt.IsZero() {
		message.UpdatedAt = message.CreatedAt
	}
	s.messages[message.ID] = copyMessage(message)
	s.chatMessages[message.ChatID] = append(s.chatMessages[message.ChatID], message.ID)
	return nil
}

func (r *messageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, apperrors.ErrNotFound)
	}
	return copyMessage(m), nil
}

func (r *messageRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Message, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{}, len(ids))
	messages := []*domain.Message{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if m, ok := s.messages[id]; ok {
			messages = append(messages, copyMessage(m))
		}
	}
	sortByCreation(messages, false)
	return messages, nil
}

func (r *messageRepo) List(_ context.Context, q domain.MessageQuery) ([]*domain.Message, int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.chatSnapshot(q.ChatID)
	desc := !strings.EqualFold(q.OrderDirection, domain.OrderASC)
	if q.OrderBy == domain.MessageOrderByUpdatedAt {
		sort.SliceStable(messages, func(i, j int) bool {
			a, b := messages[i], messages[j]
			if a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.ID.String() < b.ID.String()
			}
			if desc {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.UpdatedAt.Before(b.UpdatedAt)
		})
	} else {
		sortByCreation(messages, desc)
	}
	return window(messages, q.Offset, q.Limit), len(messages), nil
}

func (r *messageRepo) ListRecent(_ context.Context, chatID uuid.UUID, limit int) ([]*domain.Message, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.chatSnapshot(chatID)
	sortByCreation(messages, true)
	return window(messages, 0, limit), nil
}

func (r *messageRepo) ListBefore(_ context.Context, chatID uuid.UUID, t time.Time) ([]*domain.Message, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := []*domain.Message{}
	for _, m := range s.chatSnapshot(chatID) {
		if m.CreatedAt.Before(t) {
			messages = append(messages, m)
		}
	}
	sortByCreation(messages, false)
	return messages, nil
}

func (r *messageRepo) UpdateContent(_ context.Context, message *domain.Message) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.messages[message.ID]
	if !ok {
		return fmt.Errorf("message %s: %w", message.ID, apperrors.ErrNotFound)
	}
	stored.Content = message.Content
	stored.UpdatedAt = s.now()
	message.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *messageRepo) CountNotSeen(_ context.Context, chatID, userID uuid.UUID) (int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, id := range s.chatMessages[chatID] {
		m := s.messages[id]
		if m.AuthorID != userID && !m.SeenByUser(userID) {
			count++
		}
	}
	return count, nil
}

func (r *messageRepo) AddSeen(_ context.Context, userID uuid.UUID, messageIDs []uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate first so a missing id leaves every set untouched.
	for _, id := range messageIDs {
		if _, ok := s.messages[id]; !ok {
			return fmt.Errorf("message %s: %w", id, apperrors.ErrNotFound)
		}
	}
	for _, id := range messageIDs {
		m := s.messages[id]
		if !m.SeenByUser(userID) {
			m.SeenBy = append(m.SeenBy, userID)
		}
	}
	return nil
}

func (r *messageRepo) GetSeenBy(_ context.Context, messageID uuid.UUID) ([]*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", messageID, apperrors.ErrNotFound)
	}
	users := []*domain.User{}
	for _, id := range m.SeenBy {
		if u, ok := s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	sortUsersByCreation(users)
	return users, nil
}

// chatSnapshot must be called with the lock held.
func (s *Store) chatSnapshot(chatID uuid.UUID) []*domain.Message {
	ids := s.chatMessages[chatID]
	messages := make([]*domain.Message, 0, len(ids))
	for _, id := range ids {
		messages = append(messages, copyMessage(s.messages[id]))
	}
	return messages
}

func sortByCreation(messages []*domain.Message, desc bool) {
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.String() < b.ID.String()
		}
		if desc {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
