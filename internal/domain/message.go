package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID   `json:"id"`
	ChatID    uuid.UUID   `json:"chat_id"`
	AuthorID  uuid.UUID   `json:"author_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	SeenBy    []uuid.UUID `json:"users_seen"`
}

func (m *Message) SeenByUser(userID uuid.UUID) bool {
	return slices.Contains(m.SeenBy, userID)
}

const (
	MessageOrderByCreatedAt = "createdAt"
	MessageOrderByUpdatedAt = "updatedAt"
)

// MessageQuery selects one offset page of a chat's messages.
type MessageQuery struct {
	ChatID         uuid.UUID
	OrderBy        string
	OrderDirection string
	Offset         int
	Limit          int
}
