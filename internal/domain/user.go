package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	FirstName       *string    `json:"first_name,omitempty"`
	LastName        *string    `json:"last_name,omitempty"`
	Avatar          *string    `json:"avatar,omitempty"`
	PasswordHash    string     `json:"-"`
	Salt            string     `json:"-"`
	Is2faEnabled    bool       `json:"-"`
	TwoFactorSecret string     `json:"-"`
	AuthStatus      AuthStatus `json:"auth_status"`
	IsActive        bool       `json:"is_active"`
	LastSeen        time.Time  `json:"last_seen"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Sanitize returns a copy without credential material.
func (u User) Sanitize() *User {
	u.PasswordHash = ""
	u.Salt = ""
	u.TwoFactorSecret = ""
	return &u
}

// FullName is first and last name joined with a space, skipping blanks.
func (u *User) FullName() string {
	var parts []string
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}
	return strings.Join(parts, " ")
}

const (
	UsersOrderByFirstName = "firstName"
	UsersOrderByLastName  = "lastName"
)

const (
	OrderASC  = "ASC"
	OrderDESC = "DESC"
)

// UserFilter narrows the user directory listing.
type UserFilter struct {
	ExcludeID      uuid.UUID
	AuthStatus     AuthStatus
	Name           string
	OrderBy        string
	OrderDirection string
	Offset         int
	Limit          int
}
