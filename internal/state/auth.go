package state

import "github.com/abelbrown/harbor/internal/model"

// AuthState is the session as the rest of the client sees it.
type AuthState struct {
	Token string
	User  *model.User

	// Request tracks the in-flight login/register call.
	Request Resource[struct{}]
}

// IsAuthenticated reports whether a token is held.
func (a AuthState) IsAuthenticated() bool {
	return a.Token != ""
}

// Auth actions.
type (
	// SessionStarted installs a token and user (login, register, restore).
	SessionStarted struct {
		Token string
		User  *model.User
	}
	// SessionEnded drops the token and user.
	SessionEnded struct{}
	// UserChanged replaces the cached user (profile edit, /auth/me).
	UserChanged struct {
		User *model.User
	}
)

func reduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case SessionStarted:
		s.Token = a.Token
		s.User = a.User
		s.Request = Resource[struct{}]{}
	case SessionEnded:
		return AuthState{}
	case UserChanged:
		if s.IsAuthenticated() {
			s.User = a.User
		}
	}
	return s
}

// NewAuthStore creates an empty, logged-out auth store.
func NewAuthStore() *Store[AuthState] {
	return NewStore(func() AuthState { return AuthState{} }, reduceAuth)
}

// AuthRequest selects the auth store's request status.
func AuthRequest(s *AuthState) *Resource[struct{}] { return &s.Request }
