package domain

import (
	"github.com/google/uuid"
)

type Chat struct {
	ID            uuid.UUID  `json:"id"`
	Name          *string    `json:"name,omitempty"`
	IsFriendsChat bool       `json:"is_friends_chat"`
	ImgURL        *string    `json:"img_url,omitempty"`
	AdminID       *uuid.UUID `json:"admin_id,omitempty"`

	// Loaded only on request.
	Users []*User `json:"users,omitempty"`
	Admin *User   `json:"admin,omitempty"`
}

// IsAdmin reports whether userID administers the chat. Friend chats have
// no admin.
func (c *Chat) IsAdmin(userID uuid.UUID) bool {
	return c.AdminID != nil && *c.AdminID == userID
}

// ChatRelation names an association that FindChat may eager-load.
type ChatRelation string

const (
	ChatRelationUsers ChatRelation = "users"
	ChatRelationAdmin ChatRelation = "admin"
)
