package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
)

type userRepo Store

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.ErrUserAlreadyExists
		}
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, apperrors.ErrNotFound)
}

func (r *userRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []*domain.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	sortUsersByCreation(users)
	return users, nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, apperrors.ErrNotFound)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for id, u := range s.users {
		if id != user.ID && u.Email == user.Email {
			return apperrors.ErrUserAlreadyExists
		}
	}
	user.UpdatedAt = s.now()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepo) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := strings.ToLower(strings.ReplaceAll(filter.Name, " ", ""))
	var matched []*domain.User
	for _, u := range s.users {
		if u.ID == filter.ExcludeID || u.AuthStatus != filter.AuthStatus {
			continue
		}
		if name != "" && !matchesName(u, name) {
			continue
		}
		matched = append(matched, copyUser(u))
	}

	key := func(u *domain.User) string {
		if filter.OrderBy == domain.UsersOrderByLastName {
			return deref(u.LastName)
		}
		return deref(u.FirstName)
	}
	desc := strings.EqualFold(filter.OrderDirection, domain.OrderDESC)
	sort.SliceStable(matched, func(i, j int) bool {
		ki, kj := key(matched[i]), key(matched[j])
		if ki == kj {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		if desc {
			return ki > kj
		}
		return ki < kj
	})

	total := len(matched)
	return window(matched, filter.Offset, filter.Limit), total, nil
}

func (r *userRepo) GetFriends(_ context.Context, userID uuid.UUID) ([]*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	friends := []*domain.User{}
	for p := range s.friends {
		if p.a != userID {
			continue
		}
		if u, ok := s.users[p.b]; ok {
			friends = append(friends, copyUser(u))
		}
	}
	sort.Slice(friends, func(i, j int) bool {
		fi, fj := deref(friends[i].FirstName), deref(friends[j].FirstName)
		if fi == fj {
			return friends[i].ID.String() < friends[j].ID.String()
		}
		return fi < fj
	})
	return friends, nil
}

func (r *userRepo) IsFriend(_ context.Context, userID, otherID uuid.UUID) (bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.friends[pair{userID, otherID}]
	return ok, nil
}

func (r *userRepo) AddFriend(_ context.Context, userID, friendID uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.friends[pair{userID, friendID}] = struct{}{}
	s.friends[pair{friendID, userID}] = struct{}{}
	return nil
}

func (r *userRepo) RemoveFriend(_ context.Context, userID, friendID uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.friends, pair{userID, friendID})
	delete(s.friends, pair{friendID, userID})
	return nil
}

func matchesName(u *domain.User, name string) bool {
	first := strings.ToLower(deref(u.FirstName))
	last := strings.ToLower(deref(u.LastName))
	return strings.Contains(first, name) || strings.Contains(last, name) || strings.Contains(first+last, name)
}

func sortUsersByCreation(users []*domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID.String() < users[j].ID.String()
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
