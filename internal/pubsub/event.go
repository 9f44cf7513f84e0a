package pubsub

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Kind string

const (
	KindMessageCreated      Kind = "MESSAGE_CREATED"
	KindMessageUpdated      Kind = "MESSAGE_UPDATED"
	KindChatCreated         Kind = "CHAT_CREATED"
	KindUserActivityChanged Kind = "USER_ACTIVITY_CHANGED"
)

var kinds = []Kind{KindMessageCreated, KindMessageUpdated, KindChatCreated, KindUserActivityChanged}

// ParseKind accepts both the constant form and the camel-case subscription
// names clients use, e.g. "messageCreated".
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "messageCreated":
		return KindMessageCreated, true
	case "messageUpdated":
		return KindMessageUpdated, true
	case "chatCreated":
		return KindChatCreated, true
	case "userActivityChanged":
		return KindUserActivityChanged, true
	}
	k := Kind(s)
	return k, lo.Contains(kinds, k)
}

// Event is what subscribers receive. RecipientIDs is the audience the
// publisher computed; RecipientFilter delivers an empty list to nobody,
// broadcast kinds are subscribed with AllFilter.
type Event struct {
	Kind         Kind        `json:"kind"`
	Payload      any         `json:"payload"`
	RecipientIDs []uuid.UUID `json:"-"`
}

// Params describe the subscriber.
type Params struct {
	UserID uuid.UUID
}

// Filter decides whether an event is delivered to a subscriber.
type Filter func(Event, Params) bool

// RecipientFilter delivers only to users named in the event's recipient list.
func RecipientFilter(e Event, p Params) bool {
	return lo.Contains(e.RecipientIDs, p.UserID)
}

func AllFilter(Event, Params) bool { return true }
