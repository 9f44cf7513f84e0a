package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"messenger/internal/config"
	"messenger/internal/domain"
	"messenger/internal/mocks"
	"messenger/internal/pubsub"
	"messenger/internal/repository"
	"messenger/internal/repository/memory"
	"messenger/pkg/logger"
)

type recordingBus struct {
	mu     sync.Mutex
	events []pubsub.Event
}

func (b *recordingBus) Publish(e pubsub.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) ofKind(kind pubsub.Kind) []pubsub.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []pubsub.Event
	for _, e := range b.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	repos    *repository.Repositories
	bus      *recordingBus
	uploader *mocks.MockUploader
	mailer   *mocks.MockMailer
	svc      *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	useTickingClock(t)

	ctrl := gomock.NewController(t)
	store := memory.NewStore(logger.Nop())
	f := &fixture{
		ctx:      context.Background(),
		store:    store,
		repos:    store.Repositories(),
		bus:      &recordingBus{},
		uploader: mocks.NewMockUploader(ctrl),
		mailer:   mocks.NewMockMailer(ctrl),
	}
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "messenger"}}
	f.svc = NewServices(f.repos, Collaborators{Bus: f.bus, Uploader: f.uploader, Mailer: f.mailer}, cfg, logger.Nop())
	return f
}

// useTickingClock makes every call to now one millisecond later than the last.
func useTickingClock(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	prev := now
	now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	t.Cleanup(func() { now = prev })
}

func strPtr(s string) *string { return &s }

func (f *fixture) user(t *testing.T, first string, status domain.AuthStatus) *domain.User {
	t.Helper()
	ts := now()
	u := &domain.User{
		ID:         uuid.New(),
		Email:      first + "@example.com",
		FirstName:  strPtr(first),
		LastName:   strPtr("Tester"),
		AuthStatus: status,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	require.NoError(t, f.repos.User.Create(f.ctx, u))
	return u
}

func (f *fixture) groupChat(t *testing.T, admin *domain.User, members ...*domain.User) *domain.Chat {
	t.Helper()
	chat, err := f.svc.Chat.CreateChat(f.ctx, admin.ID, CreateChatInput{Name: "group"})
	require.NoError(t, err)
	for _, m := range members {
		_, err := f.svc.Chat.AddToChat(f.ctx, admin.ID, chat.ID, m.ID)
		require.NoError(t, err)
	}
	return chat
}

func (f *fixture) send(t *testing.T, chat *domain.Chat, author *domain.User, content string) *domain.Message {
	t.Helper()
	m, err := f.svc.Message.CreateMessage(f.ctx, chat.ID, author.ID, content)
	require.NoError(t, err)
	return m
}

func (f *fixture) message(t *testing.T, id uuid.UUID) *domain.Message {
	t.Helper()
	m, err := f.repos.Message.GetByID(f.ctx, id)
	require.NoError(t, err)
	return m
}

func ids(messages []*domain.Message) []uuid.UUID {
	out := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}
