package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
)

type chatRepo Store

func (r *chatRepo) Create(_ context.Context, chat *domain.Chat, memberIDs []uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertChat(chat, memberIDs)
	return nil
}

func (s *Store) insertChat(chat *domain.Chat, memberIDs []uuid.UUID) {
	s.chats[chat.ID] = copyChat(chat)
	members := make(map[uuid.UUID]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}
	s.chatUsers[chat.ID] = members
}

func (r *chatRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Chat, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", id, apperrors.ErrNotFound)
	}
	return copyChat(c), nil
}

func (r *chatRepo) GetMembers(_ context.Context, chatID uuid.UUID) ([]*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []*domain.User{}
	for id := range s.chatUsers[chatID] {
		if u, ok := s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	sortUsersByCreation(users)
	return users, nil
}

func (r *chatRepo) IsMember(_ context.Context, chatID, userID uuid.UUID) (bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.chatUsers[chatID][userID]
	return ok, nil
}

func (r *chatRepo) GetOrCreateFriendsChat(_ context.Context, userID, friendID uuid.UUID) (*domain.Chat, bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.chats {
		if !c.IsFriendsChat {
			continue
		}
		members := s.chatUsers[id]
		_, hasUser := members[userID]
		_, hasFriend := members[friendID]
		if hasUser && hasFriend {
			return copyChat(c), false, nil
		}
	}

	chat := &domain.Chat{ID: uuid.New(), IsFriendsChat: true}
	s.insertChat(chat, []uuid.UUID{userID, friendID})
	return copyChat(chat), true, nil
}

func (r *chatRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	return (*Store)(r).listChats(userID, false), nil
}

func (r *chatRepo) ListFriendsChats(_ context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	return (*Store)(r).listChats(userID, true), nil
}

func (s *Store) listChats(userID uuid.UUID, friendsOnly bool) []*domain.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := []*domain.Chat{}
	for id, members := range s.chatUsers {
		if _, ok := members[userID]; !ok {
			continue
		}
		c := s.chats[id]
		if friendsOnly && !c.IsFriendsChat {
			continue
		}
		chats = append(chats, copyChat(c))
	}
	sort.Slice(chats, func(i, j int) bool {
		ni, nj := deref(chats[i].Name), deref(chats[j].Name)
		if ni == nj {
			return chats[i].ID.String() < chats[j].ID.String()
		}
		return ni < nj
	})
	return chats
}

func (r *chatRepo) AddMember(_ context.Context, chatID, userID uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.chatUsers[chatID]
	if !ok {
		return fmt.Errorf("chat %s: %w", chatID, apperrors.ErrNotFound)
	}
	members[userID] = struct{}{}
	return nil
}

func (r *chatRepo) RemoveMember(_ context.Context, chatID, userID uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chatUsers[chatID], userID)
	return nil
}
