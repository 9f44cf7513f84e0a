// Package memory is an in-process implementation of the repository
// interfaces. A single lock guards all tables, so every method is atomic
// and readers get copies, never shared records.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"messenger/internal/domain"
	"messenger/internal/repository"
	"messenger/pkg/logger"
)

type pair struct{ a, b uuid.UUID }

type Store struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*domain.User
	friends      map[pair]struct{}
	chats        map[uuid.UUID]*domain.Chat
	chatUsers    map[uuid.UUID]map[uuid.UUID]struct{}
	messages     map[uuid.UUID]*domain.Message
	chatMessages map[uuid.UUID][]uuid.UUID
	audit        []*domain.AuditLog
	counters     map[string]*counter

	now func() time.Time
	log logger.Logger
}

type counter struct {
	value     int64
	expiresAt time.Time
}

func NewStore(log logger.Logger) *Store {
	return &Store{
		users:        make(map[uuid.UUID]*domain.User),
		friends:      make(map[pair]struct{}),
		chats:        make(map[uuid.UUID]*domain.Chat),
		chatUsers:    make(map[uuid.UUID]map[uuid.UUID]struct{}),
		messages:     make(map[uuid.UUID]*domain.Message),
		chatMessages: make(map[uuid.UUID][]uuid.UUID),
		counters:     make(map[string]*counter),
		now:          time.Now,
		log:          log,
	}
}

// NewRepositories wires a fresh store into the repository set.
func NewRepositories(log logger.Logger) *repository.Repositories {
	store := NewStore(log)
	log.Info("In-memory repositories initialized")
	return store.Repositories()
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:      (*userRepo)(s),
		Chat:      (*chatRepo)(s),
		Message:   (*messageRepo)(s),
		Audit:     (*auditRepo)(s),
		RateLimit: (*rateLimitRepo)(s),
	}
}

// AuditLogs returns a snapshot of everything audited so far.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditLog, len(s.audit))
	for i, l := range s.audit {
		out[i] = *l
	}
	return out
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyChat(c *domain.Chat) *domain.Chat {
	out := *c
	out.Users = nil
	out.Admin = nil
	return &out
}

func copyMessage(m *domain.Message) *domain.Message {
	out := *m
	out.SeenBy = append([]uuid.UUID(nil), m.SeenBy...)
	return &out
}
