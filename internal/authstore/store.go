// Package authstore holds the signed-in restaurant's session: the profile,
// the bearer token and the loading/error flags commands report on. State is
// persisted through a Backend after every credential change.
package authstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/config"
)

// Backend persists the session between invocations. Load returns nil when
// nothing is stored.
type Backend interface {
	Load() (*config.Session, error)
	Save(config.Session) error
	Clear() error
}

// State is a snapshot of the store.
type State struct {
	User            *api.RestaurantProfile
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	LastRoute       string
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	backend Backend
	baseURL string
	state   State
}

// New creates an empty store. A nil backend keeps state in memory only.
func New(backend Backend, baseURL string) *Store {
	return &Store{backend: backend, baseURL: baseURL}
}

// Restore hydrates the store from the backend.
func (s *Store) Restore() error {
	if s.backend == nil {
		return nil
	}
	session, err := s.backend.Load()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		s.state = State{}
		return nil
	}
	s.state = State{
		User:            session.User,
		Token:           session.Token,
		IsAuthenticated: session.Token != "",
		LastRoute:       session.LastRoute,
	}
	if session.BaseURL != "" && s.baseURL == "" {
		s.baseURL = session.BaseURL
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// BaseURL is the API origin the session was created against.
func (s *Store) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// SetCredentials records a successful login.
func (s *Store) SetCredentials(user *api.RestaurantProfile, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	s.mu.Lock()
	s.state.User = user
	s.state.Token = token
	s.state.IsAuthenticated = true
	s.state.IsLoading = false
	s.state.Error = ""
	s.mu.Unlock()
	return s.persist()
}

// UpdateUserProfile replaces the cached profile after a successful update.
// It is a no-op for a nil profile.
func (s *Store) UpdateUserProfile(user *api.RestaurantProfile) error {
	if user == nil {
		return nil
	}
	s.mu.Lock()
	u := *user
	s.state.User = &u
	s.mu.Unlock()
	return s.persist()
}

// SetLoading toggles the in-flight flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.state.IsLoading = loading
	s.mu.Unlock()
}

// SetError records a user-facing error message and ends any loading state.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.state.Error = msg
	s.state.IsLoading = false
	s.mu.Unlock()
}

// ClearError drops the last error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

// ClearCredentials signs out locally. The saved route goes with it.
func (s *Store) ClearCredentials() error {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SaveRoute remembers where the user was. Routes are only kept for a
// signed-in user with a token.
func (s *Store) SaveRoute(route string) error {
	s.mu.Lock()
	if !ShouldPersistRoute(s.state) {
		s.mu.Unlock()
		return nil
	}
	s.state.LastRoute = route
	s.mu.Unlock()
	return s.persist()
}

// ShouldPersistRoute reports whether navigation state may be saved.
func ShouldPersistRoute(st State) bool {
	return st.User != nil && st.Token != ""
}

func (s *Store) persist() error {
	if s.backend == nil {
		return nil
	}
	s.mu.Lock()
	session := config.Session{
		BaseURL:   s.baseURL,
		Token:     s.state.Token,
		User:      s.state.User,
		LastRoute: s.state.LastRoute,
		SavedAt:   time.Now().UTC(),
	}
	s.mu.Unlock()
	if err := s.backend.Save(session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// TokenExpiry reads the exp claim without verifying the signature. ok is
// false when the token is not a JWT or carries no expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}
