package session

import (
	"context"
	"fmt"

	"github.com/artvinci/artvinci-go/internal/api"
	"github.com/artvinci/artvinci-go/pkg/logger"
)

// authAPI is the slice of the backend client the manager drives.
type authAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	SendOTP(ctx context.Context, req api.SendOTPRequest) (*api.MessageResponse, error)
	VerifyOTP(ctx context.Context, req api.VerifyOTPRequest) (*api.AuthResponse, error)
	GoogleCallback(ctx context.Context, req api.GoogleCallbackRequest) (*api.AuthResponse, error)
	FaceLogin(ctx context.Context, req api.FaceImageRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context, req api.LogoutRequest) error
	Me(ctx context.Context) (*api.User, error)
}

// Manager runs the authentication flows and keeps State in sync.
type Manager struct {
	state *State
	api   authAPI
	logg  *logger.Logger
}

// ManagerParams bundles the dependencies required to build a manager.
type ManagerParams struct {
	State  *State
	API    authAPI
	Logger *logger.Logger
}

// RegisterResult reports whether signup yielded a session immediately or
// an email verification round-trip is still pending.
type RegisterResult struct {
	VerificationRequired bool
	Email                string
	Message              string
	Session              *Session
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.State == nil {
		return nil, fmt.Errorf("session state is required")
	}
	if params.API == nil {
		return nil, fmt.Errorf("auth api is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Manager{
		state: params.State,
		api:   params.API,
		logg:  params.Logger,
	}, nil
}

// Current returns a copy of the active session, or nil when signed out.
func (m *Manager) Current() *Session {
	return m.state.Current()
}

// Authenticated reports whether a session is installed.
func (m *Manager) Authenticated() bool {
	return m.state.Authenticated()
}

// Login exchanges credentials for tokens and installs the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return m.install(ctx, resp), nil
}

// Register creates an account. When the backend requires email
// verification no session is installed; the pending email is persisted so
// the OTP flow can resume after a restart.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) (*RegisterResult, error) {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{
		VerificationRequired: resp.VerificationRequired,
		Email:                resp.Email,
		Message:              resp.Message,
	}
	if resp.VerificationRequired {
		email := resp.Email
		if email == "" {
			email = req.Email
		}
		result.Email = email
		m.state.SetPendingVerification(ctx, email)
		return result, nil
	}

	result.Session = m.install(ctx, &api.AuthResponse{
		Access:  resp.Access,
		Refresh: resp.Refresh,
		User:    resp.User,
	})
	return result, nil
}

// SendOTP asks the backend to mail a fresh passcode.
func (m *Manager) SendOTP(ctx context.Context, email string) error {
	_, err := m.api.SendOTP(ctx, api.SendOTPRequest{Email: email})
	return err
}

// VerifyOTP redeems the passcode, installs the session, and drops the
// pending-verification marker.
func (m *Manager) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	resp, err := m.api.VerifyOTP(ctx, api.VerifyOTPRequest{Email: email, Code: code})
	if err != nil {
		return nil, err
	}
	session := m.install(ctx, resp)
	m.state.ClearPendingVerification(ctx)
	return session, nil
}

// LoginWithGoogle trades an OAuth code for tokens and installs the session.
func (m *Manager) LoginWithGoogle(ctx context.Context, code string) (*Session, error) {
	resp, err := m.api.GoogleCallback(ctx, api.GoogleCallbackRequest{Code: code})
	if err != nil {
		return nil, err
	}
	return m.install(ctx, resp), nil
}

// LoginWithFace authenticates from a captured frame and installs the session.
func (m *Manager) LoginWithFace(ctx context.Context, image string) (*Session, error) {
	resp, err := m.api.FaceLogin(ctx, api.FaceImageRequest{Image: image})
	if err != nil {
		return nil, err
	}
	return m.install(ctx, resp), nil
}

// AuthenticateWithTokens installs a session obtained out of band.
func (m *Manager) AuthenticateWithTokens(ctx context.Context, user *api.User, access, refresh string) *Session {
	return m.install(ctx, &api.AuthResponse{Access: access, Refresh: refresh, User: user})
}

// RefreshProfile re-fetches the profile and updates the stored snapshot.
func (m *Manager) RefreshProfile(ctx context.Context) (*api.User, error) {
	user, err := m.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	current := m.state.Current()
	if current != nil {
		current.User = user
		m.state.Install(ctx, *current)
	}
	return user, nil
}

// Logout asks the backend to blacklist the refresh token, then clears the
// local session. The local clear happens even when the backend call fails;
// signing out must always work offline.
func (m *Manager) Logout(ctx context.Context) error {
	refresh := m.state.RefreshToken()
	var backendErr error
	if refresh != "" {
		if err := m.api.Logout(ctx, api.LogoutRequest{Refresh: refresh}); err != nil {
			m.logg.Warn(ctx, "backend logout failed, clearing local session anyway")
			backendErr = err
		}
	}
	m.state.Clear(ctx)
	return backendErr
}

// ForcedLogout tears the session down without calling the backend. The
// transport invokes it when a refresh attempt dies. The pending
// verification marker survives so an interrupted signup can resume.
func (m *Manager) ForcedLogout(ctx context.Context) {
	m.state.Clear(ctx)
}

// ReplaceAccessToken swaps in a freshly minted access token.
func (m *Manager) ReplaceAccessToken(ctx context.Context, access string) {
	m.state.ReplaceAccessToken(ctx, access)
}

// PendingVerificationEmail returns the email awaiting verification, or "".
func (m *Manager) PendingVerificationEmail(ctx context.Context) string {
	return m.state.PendingVerificationEmail(ctx)
}

func (m *Manager) install(ctx context.Context, resp *api.AuthResponse) *Session {
	session := Session{
		User:         resp.User,
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
	}
	m.state.Install(ctx, session)
	if resp.User != nil {
		m.logg.Info(m.logg.WithUserID(ctx, fmt.Sprintf("%d", resp.User.ID)), "session installed")
	}
	return &session
}
