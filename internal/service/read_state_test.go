package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/domain"
	"messenger/internal/pubsub"
	apperrors "messenger/pkg/errors"
)

func TestCreateMessage_AuthorSeesOwnMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.user(t, "alice", domain.AuthStatusHaveAccount)
	bob := f.user(t, "bob", domain.AuthStatusHaveAccount)
	chat := f.groupChat(t, alice, bob)

	m := f.send(t, chat, alice, "hi")

	req.Equal([]uuid.UUID{alice.ID}, f.message(t, m.ID).SeenBy)
	count, err := f.svc.ReadState.NotSeenCount(f.ctx, chat.ID, alice.ID)
	req.NoError(err)
	req.Zero(count)
	count, err = f.svc.ReadState.NotSeenCount(f.ctx, chat.ID, bob.ID)
	req.NoError(err)
	req.Equal(1, count)
}

// m1 by A, m2 by B, m3 by A, then B reads m3.
func TestReadMessages_Scenario(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	a := f.user(t, "anna", domain.AuthStatusHaveAccount)
	b := f.user(t, "boris", domain.AuthStatusHaveAccount)
	chat := f.groupChat(t, a, b)

	m1 := f.send(t, chat, a, "m1")

	// Given B replies, B catches up on m1
	m2 := f.send(t, chat, b, "m2")
	req.ElementsMatch([]uuid.UUID{a.ID, b.ID}, f.message(t, m1.ID).SeenBy)

	// Given A replies, A catches up on m2
	m3 := f.send(t, chat, a, "m3")
	req.ElementsMatch([]uuid.UUID{a.ID, b.ID}, f.message(t, m2.ID).SeenBy)
	req.Equal([]uuid.UUID{a.ID}, f.message(t, m3.ID).SeenBy)

	count, err := f.svc.ReadState.NotSeenCount(f.ctx, chat.ID, b.ID)
	req.NoError(err)
	req.Equal(1, count)

	// When B reads m3
	res, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{m3.ID}, b.ID)
	req.NoError(err)

	// Then only m3 changed and everyone is told
	req.Equal([]uuid.UUID{m3.ID}, ids(res.Messages))
	req.Equal(m3.ID, res.Latest.ID)
	req.ElementsMatch([]uuid.UUID{a.ID, b.ID}, res.RecipientIDs)
	count, err = f.svc.ReadState.NotSeenCount(f.ctx, chat.ID, b.ID)
	req.NoError(err)
	req.Zero(count)
}

func TestReadMessages_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	a := f.user(t, "anna", domain.AuthStatusHaveAccount)
	b := f.user(t, "boris", domain.AuthStatusHaveAccount)
	chat := f.groupChat(t, a, b)
	f.send(t, chat, a, "one")
	last := f.send(t, chat, a, "two")

	first, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{last.ID}, b.ID)
	req.NoError(err)
	req.Len(first.Messages, 2)
	updates := len(f.bus.ofKind(pubsub.KindMessageUpdated))

	second, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{last.ID}, b.ID)
	req.NoError(err)
	req.Empty(second.Messages)
	req.Equal(last.ID, second.Latest.ID)
	req.Len(f.bus.ofKind(pubsub.KindMessageUpdated), updates, "no event for a no-op read")
}

func TestReadMessages_SweepsEverythingBeforeLatest(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	a := f.user(t, "anna", domain.AuthStatusHaveAccount)
	b := f.user(t, "boris", domain.AuthStatusHaveAccount)
	chat := f.groupChat(t, a, b)
	msgs := []*domain.Message{f.send(t, chat, a, "1"), f.send(t, chat, a, "2"), f.send(t, chat, a, "3")}
	after := f.send(t, chat, a, "4")

	res, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{msgs[0].ID, msgs[2].ID}, b.ID)
	req.NoError(err)
	req.ElementsMatch(ids(msgs), ids(res.Messages))
	req.Equal(msgs[2].ID, res.Latest.ID)
	req.NotContains(f.message(t, after.ID).SeenBy, b.ID)
}

func TestReadMessages_Errors(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "anna", domain.AuthStatusHaveAccount)
	b := f.user(t, "boris", domain.AuthStatusHaveAccount)
	chat1 := f.groupChat(t, a, b)
	chat2 := f.groupChat(t, a, b)
	m1 := f.send(t, chat1, a, "in one")
	m2 := f.send(t, chat2, a, "in two")

	t.Run("empty list", func(t *testing.T) {
		_, err := f.svc.ReadState.ReadMessages(f.ctx, nil, b.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("nothing resolves", func(t *testing.T) {
		_, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{uuid.New()}, b.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("two chats write nothing", func(t *testing.T) {
		_, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{m1.ID, m2.ID}, b.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.NotContains(t, f.message(t, m1.ID).SeenBy, b.ID)
		assert.NotContains(t, f.message(t, m2.ID).SeenBy, b.ID)
	})

	t.Run("missing ids are dropped", func(t *testing.T) {
		res, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{m1.ID, uuid.New()}, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{m1.ID}, ids(res.Messages))
	})
}

func TestNotSeenCount_OnlyDropsAfterRead(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	a := f.user(t, "anna", domain.AuthStatusHaveAccount)
	b := f.user(t, "boris", domain.AuthStatusHaveAccount)
	chat := f.groupChat(t, a, b)

	counts := []int{}
	observe := func() {
		c, err := f.svc.ReadState.NotSeenCount(f.ctx, chat.ID, b.ID)
		req.NoError(err)
		counts = append(counts, c)
	}

	observe()
	f.send(t, chat, a, "1")
	observe()
	m := f.send(t, chat, a, "2")
	observe()
	_, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{m.ID}, b.ID)
	req.NoError(err)
	observe()

	req.Equal([]int{0, 1, 2, 0}, counts)
}

func TestUsersSeen(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	a := f.user(t, "anna", domain.AuthStatusHaveAccount)
	b := f.user(t, "boris", domain.AuthStatusHaveAccount)
	chat := f.groupChat(t, a, b)
	m := f.send(t, chat, a, "hello")

	_, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{m.ID}, b.ID)
	req.NoError(err)

	users, err := f.svc.ReadState.UsersSeen(f.ctx, m.ID, a.ID)
	req.NoError(err)
	req.Len(users, 2)
	for _, u := range users {
		req.Empty(u.PasswordHash)
	}

	_, err = f.svc.ReadState.UsersSeen(f.ctx, uuid.New(), a.ID)
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestReadState_OutsiderIsForbidden(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	a := f.user(t, "anna", domain.AuthStatusHaveAccount)
	b := f.user(t, "boris", domain.AuthStatusHaveAccount)
	eve := f.user(t, "eve", domain.AuthStatusHaveAccount)
	chat := f.groupChat(t, a, b)
	m := f.send(t, chat, a, "secret")
	before := len(f.bus.ofKind(pubsub.KindMessageUpdated))

	// When someone outside the chat reads its message
	res, err := f.svc.ReadState.ReadMessages(f.ctx, []uuid.UUID{m.ID}, eve.ID)

	// Then nothing is written, published or returned
	req.ErrorIs(err, apperrors.ErrForbidden)
	req.Nil(res)
	req.Equal([]uuid.UUID{a.ID}, f.message(t, m.ID).SeenBy)
	req.Len(f.bus.ofKind(pubsub.KindMessageUpdated), before)

	users, err := f.svc.ReadState.UsersSeen(f.ctx, m.ID, eve.ID)
	req.ErrorIs(err, apperrors.ErrForbidden)
	req.Nil(users)
}
