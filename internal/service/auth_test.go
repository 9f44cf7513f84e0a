package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/jwt"
)

func TestSignUpAndLogin(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res, err := f.svc.Auth.SignUp(f.ctx, SignUpInput{FirstName: "Ann", LastName: "Lee", Email: " Ann@Example.com ", Password: "password1"})
	req.NoError(err)
	req.Equal("ann@example.com", res.User.Email)
	req.Equal(domain.AuthStatusHaveAccount, res.User.AuthStatus)
	req.Empty(res.User.PasswordHash)
	req.NotEmpty(res.Token)

	login, err := f.svc.Auth.Login(f.ctx, "ann@example.com", "password1")
	req.NoError(err)

	user, claims, err := f.svc.Auth.ValidateToken(f.ctx, login.Token)
	req.NoError(err)
	req.Equal(res.User.ID, user.ID)
	req.False(claims.TwoFactor)
	req.True(Admit(user, claims))
}

func TestSignUp_Errors(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.SignUp(f.ctx, SignUpInput{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input SignUpInput
		want  error
	}{
		{"duplicate email", SignUpInput{FirstName: "A", LastName: "B", Email: "ANN@example.com", Password: "password1"}, apperrors.ErrUserAlreadyExists},
		{"bad email", SignUpInput{FirstName: "A", LastName: "B", Email: "nope", Password: "password1"}, apperrors.ErrValidation},
		{"short password", SignUpInput{FirstName: "A", LastName: "B", Email: "b@example.com", Password: "short"}, apperrors.ErrValidation},
		{"missing name", SignUpInput{LastName: "B", Email: "c@example.com", Password: "password1"}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Auth.SignUp(f.ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.SignUp(f.ctx, SignUpInput{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.svc.Auth.Login(f.ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(f.ctx, "ghost@example.com", "password1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_TwoFactorClaim(t *testing.T) {
	tests := []struct {
		name      string
		status    domain.AuthStatus
		enabled   bool
		twoFactor bool
	}{
		{"no 2fa", domain.AuthStatusHaveAccount, false, false},
		{"2fa account", domain.AuthStatusHaveAccount, true, true},
		{"2fa not verified", domain.AuthStatusNotAuthenticated, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			f := newFixture(t)
			salt, hash, err := hashPassword("password1")
			req.NoError(err)
			u := f.user(t, "ann", tt.status)
			u.Salt, u.PasswordHash, u.Is2faEnabled = salt, hash, tt.enabled
			req.NoError(f.repos.User.Update(f.ctx, u))

			res, err := f.svc.Auth.Login(f.ctx, u.Email, "password1")
			req.NoError(err)
			claims, err := jwt.ValidateToken(res.Token, "test-secret")
			req.NoError(err)
			req.Equal(tt.twoFactor, claims.TwoFactor)
		})
	}
}

func TestAdmit(t *testing.T) {
	assert.True(t, Admit(&domain.User{}, &jwt.Claims{}))
	assert.False(t, Admit(&domain.User{Is2faEnabled: true}, &jwt.Claims{}))
	assert.True(t, Admit(&domain.User{Is2faEnabled: true}, &jwt.Claims{TwoFactor: true}))
}

func TestPasswordHash(t *testing.T) {
	req := require.New(t)
	salt, hash, err := hashPassword("secret-pass")
	req.NoError(err)
	req.Len(salt, 32)
	req.Len(hash, 128)
	req.True(checkPassword("secret-pass", salt, hash))
	req.False(checkPassword("other", salt, hash))
	req.False(checkPassword("secret-pass", "", ""))

	salt2, hash2, err := hashPassword("secret-pass")
	req.NoError(err)
	req.NotEqual(salt, salt2)
	req.NotEqual(hash, hash2)
}
