package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artvinci/artvinci-go/internal/api"
	"github.com/artvinci/artvinci-go/internal/storage"
	"github.com/artvinci/artvinci-go/pkg/auth"
	"github.com/artvinci/artvinci-go/pkg/logger"
)

// Session is the locally persisted authentication snapshot.
type Session struct {
	User         *api.User `json:"user"`
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
}

// Authenticated is true once an access token is installed. User and tokens
// are always installed together, so the token is the single source of truth.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// State holds the current session and mirrors every change to storage.
// The in-memory snapshot stays authoritative; persistence failures are
// logged and never surface to callers.
type State struct {
	mu      sync.RWMutex
	current *Session

	storage storage.Store
	logg    *logger.Logger
}

// StateParams bundles the dependencies required to build session state.
type StateParams struct {
	Storage storage.Store
	Logger  *logger.Logger
}

// NewState loads any persisted session. A missing or corrupt snapshot
// leaves the state unauthenticated rather than failing.
func NewState(ctx context.Context, params StateParams) (*State, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &State{
		storage: params.Storage,
		logg:    params.Logger,
	}

	raw, err := params.Storage.Get(ctx, storage.KeySession)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		params.Logger.Warn(ctx, "could not load session snapshot, starting unauthenticated")
	default:
		var snapshot Session
		if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
			params.Logger.Warn(ctx, "corrupt session snapshot, starting unauthenticated")
		} else if snapshot.Authenticated() {
			s.current = &snapshot
		}
	}
	return s, nil
}

// Current returns a copy of the active session, or nil when signed out.
// The user record is copied too, so callers cannot reach the live state
// through the pointer.
func (s *State) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	if s.current.User != nil {
		user := *s.current.User
		snapshot.User = &user
	}
	return &snapshot
}

// Authenticated reports whether a session is installed.
func (s *State) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}

// AccessToken returns the current access token, or "" when signed out.
func (s *State) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// RefreshToken returns the current refresh token, or "" when signed out.
func (s *State) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.RefreshToken
}

// Claims parses the current access token without verifying the signature.
// Returns nil when signed out or the token is unparseable.
func (s *State) Claims() *auth.Claims {
	token := s.AccessToken()
	if token == "" {
		return nil
	}
	claims, err := auth.ParseClaims(token)
	if err != nil {
		return nil
	}
	return claims
}

// AccessTokenExpired reports whether the current access token has passed
// its expiry, allowing the given leeway. Signed out counts as expired.
func (s *State) AccessTokenExpired(now time.Time, leeway time.Duration) bool {
	claims := s.Claims()
	if claims == nil {
		return true
	}
	return claims.Expired(now, leeway)
}

// Install replaces the active session and persists it.
func (s *State) Install(ctx context.Context, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &session
	s.persist(ctx)
}

// ReplaceAccessToken swaps in a freshly minted access token, keeping the
// user and refresh token. No-op when signed out.
func (s *State) ReplaceAccessToken(ctx context.Context, access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.AccessToken = access
	s.persist(ctx)
}

// Clear drops the session locally. The pending-verification marker is a
// separate key and survives.
func (s *State) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.storage.Del(ctx, storage.KeySession); err != nil {
		s.logg.Error(ctx, "clearing session snapshot", err)
	}
}

// SetPendingVerification records the email awaiting OTP verification.
func (s *State) SetPendingVerification(ctx context.Context, email string) {
	if err := s.storage.Set(ctx, storage.KeyPendingVerification, email); err != nil {
		s.logg.Error(ctx, "persisting pending verification marker", err)
	}
}

// PendingVerificationEmail returns the email awaiting verification, or "".
func (s *State) PendingVerificationEmail(ctx context.Context) string {
	email, err := s.storage.Get(ctx, storage.KeyPendingVerification)
	if err != nil {
		return ""
	}
	return email
}

// ClearPendingVerification drops the marker once verification completes.
func (s *State) ClearPendingVerification(ctx context.Context) {
	if err := s.storage.Del(ctx, storage.KeyPendingVerification); err != nil {
		s.logg.Error(ctx, "clearing pending verification marker", err)
	}
}

func (s *State) persist(ctx context.Context) {
	payload, err := json.Marshal(s.current)
	if err != nil {
		s.logg.Error(ctx, "encoding session snapshot", err)
		return
	}
	if err := s.storage.Set(ctx, storage.KeySession, string(payload)); err != nil {
		s.logg.Error(ctx, "persisting session snapshot", err)
	}
}
