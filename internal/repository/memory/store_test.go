package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(logger.Nop())
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, s *Store, email, first string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: email, FirstName: strPtr(first), AuthStatus: domain.AuthStatusHaveAccount}
	require.NoError(t, s.Repositories().User.Create(context.Background(), u))
	return u
}

func TestUserRepo_CreateRejectsDuplicateEmail(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repo := s.Repositories().User
	ctx := context.Background()

	seedUser(t, s, "Ann@Example.com", "Ann")
	err := repo.Create(ctx, &domain.User{ID: uuid.New(), Email: "ann@example.com"})
	req.ErrorIs(err, apperrors.ErrUserAlreadyExists)

	got, err := repo.GetByEmail(ctx, " ANN@example.com")
	req.NoError(err)
	req.Equal("ann@example.com", got.Email)
}

func TestUserRepo_ListFiltersAndPages(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repo := s.Repositories().User
	ctx := context.Background()

	viewer := seedUser(t, s, "viewer@example.com", "Viewer")
	seedUser(t, s, "bob@example.com", "Bob")
	seedUser(t, s, "alice@example.com", "Alice")
	seedUser(t, s, "carl@example.com", "Carl")
	pending := &domain.User{ID: uuid.New(), Email: "p@example.com", FirstName: strPtr("Aaron"), AuthStatus: domain.AuthStatusHaveProfile}
	req.NoError(repo.Create(ctx, pending))

	users, total, err := repo.List(ctx, domain.UserFilter{
		ExcludeID:  viewer.ID,
		AuthStatus: domain.AuthStatusHaveAccount,
		OrderBy:    domain.UsersOrderByFirstName,
		Limit:      2,
	})
	req.NoError(err)
	req.Equal(3, total)
	req.Len(users, 2)
	req.Equal("Alice", *users[0].FirstName)
	req.Equal("Bob", *users[1].FirstName)

	users, total, err = repo.List(ctx, domain.UserFilter{
		ExcludeID:  viewer.ID,
		AuthStatus: domain.AuthStatusHaveAccount,
		Name:       "ca rl",
	})
	req.NoError(err)
	req.Equal(1, total)
	req.Equal("Carl", *users[0].FirstName)
}

func TestUserRepo_FriendshipIsSymmetric(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repo := s.Repositories().User
	ctx := context.Background()

	a := seedUser(t, s, "a@example.com", "A")
	b := seedUser(t, s, "b@example.com", "B")

	req.NoError(repo.AddFriend(ctx, a.ID, b.ID))
	ok, err := repo.IsFriend(ctx, b.ID, a.ID)
	req.NoError(err)
	req.True(ok)

	friends, err := repo.GetFriends(ctx, b.ID)
	req.NoError(err)
	req.Len(friends, 1)
	req.Equal(a.ID, friends[0].ID)

	req.NoError(repo.RemoveFriend(ctx, b.ID, a.ID))
	ok, err = repo.IsFriend(ctx, a.ID, b.ID)
	req.NoError(err)
	req.False(ok)
}

func TestChatRepo_GetOrCreateFriendsChatIsIdempotent(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repo := s.Repositories().Chat
	ctx := context.Background()

	a := seedUser(t, s, "a@example.com", "A")
	b := seedUser(t, s, "b@example.com", "B")

	first, created, err := repo.GetOrCreateFriendsChat(ctx, a.ID, b.ID)
	req.NoError(err)
	req.True(created)
	req.True(first.IsFriendsChat)

	second, created, err := repo.GetOrCreateFriendsChat(ctx, b.ID, a.ID)
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, second.ID)

	chats, err := repo.ListFriendsChats(ctx, a.ID)
	req.NoError(err)
	req.Len(chats, 1)
}

func TestChatRepo_MembershipIsASet(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repo := s.Repositories().Chat
	ctx := context.Background()

	a := seedUser(t, s, "a@example.com", "A")
	b := seedUser(t, s, "b@example.com", "B")
	chat := &domain.Chat{ID: uuid.New(), Name: strPtr("team"), AdminID: &a.ID}
	req.NoError(repo.Create(ctx, chat, []uuid.UUID{a.ID}))

	req.NoError(repo.AddMember(ctx, chat.ID, b.ID))
	req.NoError(repo.AddMember(ctx, chat.ID, b.ID))
	members, err := repo.GetMembers(ctx, chat.ID)
	req.NoError(err)
	req.Len(members, 2)

	req.NoError(repo.RemoveMember(ctx, chat.ID, b.ID))
	ok, err := repo.IsMember(ctx, chat.ID, b.ID)
	req.NoError(err)
	req.False(ok)

	req.ErrorIs(repo.AddMember(ctx, uuid.New(), b.ID), apperrors.ErrNotFound)
}

func seedMessages(t *testing.T, s *Store, chatID, authorID uuid.UUID, n int) []*domain.Message {
	t.Helper()
	out := make([]*domain.Message, 0, n)
	for i := 0; i < n; i++ {
		m := &domain.Message{ID: uuid.New(), ChatID: chatID, AuthorID: authorID, Content: "hi", SeenBy: []uuid.UUID{authorID}}
		require.NoError(t, s.Repositories().Message.Create(context.Background(), m))
		out = append(out, m)
	}
	return out
}

func TestMessageRepo_ListBeforeIsStrict(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	a := seedUser(t, s, "a@example.com", "A")
	chat := &domain.Chat{ID: uuid.New()}
	req.NoError(repos.Chat.Create(ctx, chat, []uuid.UUID{a.ID}))
	msgs := seedMessages(t, s, chat.ID, a.ID, 3)

	before, err := repos.Message.ListBefore(ctx, chat.ID, msgs[2].CreatedAt)
	req.NoError(err)
	req.Len(before, 2)
	req.Equal(msgs[0].ID, before[0].ID)
	req.Equal(msgs[1].ID, before[1].ID)

	recent, err := repos.Message.ListRecent(ctx, chat.ID, 0)
	req.NoError(err)
	req.Len(recent, 3)
	req.Equal(msgs[2].ID, recent[0].ID)

	recent, err = repos.Message.ListRecent(ctx, chat.ID, 1)
	req.NoError(err)
	req.Len(recent, 1)
}

func TestMessageRepo_AddSeen(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	a := seedUser(t, s, "a@example.com", "A")
	b := seedUser(t, s, "b@example.com", "B")
	chat := &domain.Chat{ID: uuid.New()}
	req.NoError(repos.Chat.Create(ctx, chat, []uuid.UUID{a.ID, b.ID}))
	msgs := seedMessages(t, s, chat.ID, a.ID, 2)

	count, err := repos.Message.CountNotSeen(ctx, chat.ID, b.ID)
	req.NoError(err)
	req.Equal(2, count)

	t.Run("missing id writes nothing", func(t *testing.T) {
		err := repos.Message.AddSeen(ctx, b.ID, []uuid.UUID{msgs[0].ID, uuid.New()})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		count, _ := repos.Message.CountNotSeen(ctx, chat.ID, b.ID)
		assert.Equal(t, 2, count)
	})

	t.Run("repeat is a no-op", func(t *testing.T) {
		ids := []uuid.UUID{msgs[0].ID, msgs[1].ID}
		require.NoError(t, repos.Message.AddSeen(ctx, b.ID, ids))
		require.NoError(t, repos.Message.AddSeen(ctx, b.ID, ids))
		got, err := repos.Message.GetByID(ctx, msgs[0].ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, got.SeenBy)

		seen, err := repos.Message.GetSeenBy(ctx, msgs[1].ID)
		require.NoError(t, err)
		assert.Len(t, seen, 2)
	})

	count, err = repos.Message.CountNotSeen(ctx, chat.ID, b.ID)
	req.NoError(err)
	req.Zero(count)
}

func TestMessageRepo_ListPagesNewestFirst(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	a := seedUser(t, s, "a@example.com", "A")
	chat := &domain.Chat{ID: uuid.New()}
	req.NoError(repos.Chat.Create(ctx, chat, []uuid.UUID{a.ID}))
	msgs := seedMessages(t, s, chat.ID, a.ID, 5)

	page, total, err := repos.Message.List(ctx, domain.MessageQuery{ChatID: chat.ID, Offset: 1, Limit: 2})
	req.NoError(err)
	req.Equal(5, total)
	req.Len(page, 2)
	req.Equal(msgs[3].ID, page[0].ID)
	req.Equal(msgs[2].ID, page[1].ID)

	page, _, err = repos.Message.List(ctx, domain.MessageQuery{ChatID: chat.ID, OrderDirection: domain.OrderASC, Limit: 1})
	req.NoError(err)
	req.Equal(msgs[0].ID, page[0].ID)
}

func TestMessageRepo_UpdateContentBumpsUpdatedAt(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	a := seedUser(t, s, "a@example.com", "A")
	chat := &domain.Chat{ID: uuid.New()}
	req.NoError(repos.Chat.Create(ctx, chat, []uuid.UUID{a.ID}))
	msg := seedMessages(t, s, chat.ID, a.ID, 1)[0]

	edit := &domain.Message{ID: msg.ID, Content: "edited"}
	req.NoError(repos.Message.UpdateContent(ctx, edit))

	got, err := repos.Message.GetByID(ctx, msg.ID)
	req.NoError(err)
	req.Equal("edited", got.Content)
	req.True(got.UpdatedAt.After(got.CreatedAt))
	req.Equal(msg.CreatedAt, got.CreatedAt)
}

func TestRateLimitRepo_WindowExpires(t *testing.T) {
	req := require.New(t)
	s := NewStore(logger.Nop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	repo := s.Repositories().RateLimit
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, err := repo.Increment(ctx, "k", time.Minute)
		req.NoError(err)
		req.Equal(want, count)
	}

	now = now.Add(2 * time.Minute)
	count, err := repo.Increment(ctx, "k", time.Minute)
	req.NoError(err)
	req.Equal(int64(1), count)
}

func TestAuditRepo_AssignsIDs(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	repo := s.Repositories().Audit
	ctx := context.Background()

	req.NoError(repo.CreateLog(ctx, &domain.AuditLog{EventType: domain.EventTypeChatCreated}))
	req.NoError(repo.CreateLog(ctx, &domain.AuditLog{EventType: domain.EventTypeFriendAdded}))

	logs := s.AuditLogs()
	req.Len(logs, 2)
	req.Equal(int64(2), logs[1].ID)
	req.Equal(domain.EventTypeFriendAdded, logs[1].EventType)
}
