package domain

import (
	"fmt"

	apperrors "messenger/pkg/errors"
)

// AuthStatus is the signup lifecycle of a user. It only moves forward.
type AuthStatus string

const (
	AuthStatusNotAuthenticated AuthStatus = "NotAuthenticated"
	AuthStatusAuthenticated    AuthStatus = "Authenticated"
	AuthStatusHaveProfile      AuthStatus = "HaveProfile"
	AuthStatusHaveAccount      AuthStatus = "HaveAccount"
)

// authTransitions lists the allowed next states. Authenticated may be
// re-entered when a pending one-time-code signup is confirmed again.
var authTransitions = map[AuthStatus][]AuthStatus{
	AuthStatusNotAuthenticated: {AuthStatusAuthenticated},
	AuthStatusAuthenticated:    {AuthStatusAuthenticated, AuthStatusHaveProfile},
	AuthStatusHaveProfile:      {AuthStatusHaveAccount},
	AuthStatusHaveAccount:      {},
}

func (s AuthStatus) Valid() bool {
	_, ok := authTransitions[s]
	return ok
}

func (s AuthStatus) CanTransitionTo(next AuthStatus) bool {
	for _, allowed := range authTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is allowed.
func (s AuthStatus) Transition(next AuthStatus) (AuthStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidAuthTransition, s, next)
	}
	return next, nil
}

func ParseAuthStatus(s string) (AuthStatus, error) {
	status := AuthStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown auth status %q", apperrors.ErrValidation, s)
	}
	return status, nil
}
