package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID          int64                  `json:"id"`
	EventTime   time.Time              `json:"event_time"`
	ActorUserID *uuid.UUID             `json:"actor_user_id,omitempty"`
	ChatID      *uuid.UUID             `json:"chat_id,omitempty"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload"`
}

const (
	EventTypeChatCreated         = "CHAT_CREATED"
	EventTypePersonalChatCreated = "PERSONAL_CHAT_CREATED"
	EventTypeChatMemberAdded     = "CHAT_MEMBER_ADDED"
	EventTypeChatMemberRemoved   = "CHAT_MEMBER_REMOVED"
	EventTypeFriendAdded         = "FRIEND_ADDED"
	EventTypeFriendRemoved       = "FRIEND_REMOVED"
	EventTypeUserSignedUp        = "USER_SIGNED_UP"
)
