package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "messenger/pkg/errors"
)

func TestAuthStatus_Transition(t *testing.T) {
	tests := []struct {
		from, to AuthStatus
		ok       bool
	}{
		{AuthStatusNotAuthenticated, AuthStatusAuthenticated, true},
		{AuthStatusAuthenticated, AuthStatusAuthenticated, true},
		{AuthStatusAuthenticated, AuthStatusHaveProfile, true},
		{AuthStatusHaveProfile, AuthStatusHaveAccount, true},
		{AuthStatusNotAuthenticated, AuthStatusHaveProfile, false},
		{AuthStatusHaveProfile, AuthStatusAuthenticated, false},
		{AuthStatusHaveAccount, AuthStatusNotAuthenticated, false},
		{AuthStatusHaveAccount, AuthStatusHaveAccount, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, err := tt.from.Transition(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, got)
				return
			}
			require.ErrorIs(t, err, apperrors.ErrInvalidAuthTransition)
			assert.Equal(t, tt.from, got)
		})
	}
}

func TestParseAuthStatus(t *testing.T) {
	s, err := ParseAuthStatus("HaveProfile")
	require.NoError(t, err)
	assert.Equal(t, AuthStatusHaveProfile, s)

	_, err = ParseAuthStatus("Admin")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUser_Sanitize(t *testing.T) {
	u := User{PasswordHash: "h", Salt: "s", TwoFactorSecret: "t", Email: "a@b.c"}
	clean := u.Sanitize()
	assert.Empty(t, clean.PasswordHash)
	assert.Empty(t, clean.Salt)
	assert.Empty(t, clean.TwoFactorSecret)
	assert.Equal(t, "a@b.c", clean.Email)
	assert.Equal(t, "h", u.PasswordHash)
}

func TestUser_FullName(t *testing.T) {
	first, last := "Ada", "Lovelace"
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: &first, LastName: &last}).FullName())
	assert.Equal(t, "Ada", (&User{FirstName: &first}).FullName())
	assert.Equal(t, "", (&User{}).FullName())
}
