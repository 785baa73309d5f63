package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artvinci/artvinci-go/pkg/logger"
	"github.com/artvinci/artvinci-go/pkg/metrics"
)

const (
	refreshPath    = "/auth/token/refresh/"
	requestIDKey   = "X-Request-ID"
	refreshTimeout = 15 * time.Second
)

// sessionState is the slice of the session layer the transport needs:
// read tokens, swap in a refreshed access token, and tear the session
// down when refresh dies.
type sessionState interface {
	AccessToken() string
	RefreshToken() string
	ReplaceAccessToken(ctx context.Context, access string)
	Clear(ctx context.Context)
}

// Navigator is how the transport sends the user back to the login screen
// after a dead refresh token. OnAuthPage suppresses the redirect so a
// failed login attempt does not bounce the user around.
type Navigator interface {
	OnAuthPage() bool
	RedirectToLogin()
}

// AuthTransport decorates an http.RoundTripper with bearer attachment and
// the refresh-once protocol: a 401 triggers one token refresh through a
// bare client, then a single replay of the original request. The caller
// only ever sees the final response.
type AuthTransport struct {
	base      http.RoundTripper
	state     sessionState
	navigator Navigator
	refresh   *http.Client
	baseURL   string
	logg      *logger.Logger
	metrics   *metrics.HTTPClientMetrics
}

// Params bundles the dependencies required to build an auth transport.
type Params struct {
	// Base is the underlying round tripper; nil means http.DefaultTransport.
	Base http.RoundTripper
	// State supplies tokens and absorbs refresh results.
	State sessionState
	// Navigator is invoked after a forced logout; nil disables redirects.
	Navigator Navigator
	// BaseURL is the backend root the refresh endpoint hangs off.
	BaseURL string
	// RefreshClient posts the refresh request. It must not carry this
	// transport. Nil means a plain client with a short timeout.
	RefreshClient *http.Client
	Logger        *logger.Logger
	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.HTTPClientMetrics
}

func New(params Params) (*AuthTransport, error) {
	if params.State == nil {
		return nil, fmt.Errorf("session state is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(params.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base := params.Base
	if base == nil {
		base = http.DefaultTransport
	}
	refresh := params.RefreshClient
	if refresh == nil {
		refresh = &http.Client{Timeout: refreshTimeout}
	}
	if refresh.Transport != nil {
		if _, ok := refresh.Transport.(*AuthTransport); ok {
			return nil, fmt.Errorf("refresh client must not carry the auth transport")
		}
	}

	return &AuthTransport{
		base:      base,
		state:     params.State,
		navigator: params.Navigator,
		refresh:   refresh,
		baseURL:   baseURL,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// RoundTrip implements http.RoundTripper. The caller's request is never
// mutated; the retry decision lives entirely inside this frame.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	attempt, err := t.prepare(req)
	if err != nil {
		return nil, err
	}

	resp, err := t.send(attempt)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	// A 401 with no session at all is just a rejected anonymous request,
	// typically a failed login. Nothing to refresh, nothing to tear down.
	if t.state.AccessToken() == "" && t.state.RefreshToken() == "" {
		return resp, nil
	}

	// One refresh, one replay. A second 401 goes back to the caller as is.
	access, refreshed := t.refreshAccessToken(ctx)
	if !refreshed {
		t.forceLogout(ctx)
		return resp, nil
	}

	// The fresh token is already installed; if the body cannot be rebuilt
	// the caller gets the 401 back and the next request uses the new token.
	replay, ok := t.replayable(req)
	if !ok {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	replay.Header.Set("Authorization", "Bearer "+access)
	return t.send(replay)
}

// prepare clones the request and decorates the clone, leaving the
// caller's request untouched.
func (t *AuthTransport) prepare(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rebuilding request body: %w", err)
		}
		clone.Body = body
	}
	if token := t.state.AccessToken(); token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	if clone.Header.Get(requestIDKey) == "" {
		clone.Header.Set(requestIDKey, uuid.NewString())
	}
	return clone, nil
}

// replayable builds a second decorated clone for the retry. Requests
// whose body cannot be rebuilt are not replayed.
func (t *AuthTransport) replayable(req *http.Request) (*http.Request, bool) {
	if req.Body != nil && req.GetBody == nil {
		return nil, false
	}
	clone, err := t.prepare(req)
	if err != nil {
		return nil, false
	}
	return clone, true
}

func (t *AuthTransport) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.metrics.ObserveRequest(req.Method, resp.StatusCode, time.Since(start))
	return resp, nil
}

// refreshAccessToken trades the refresh token for a new access token using
// the bare client. On success the new token is installed in the session
// state before the replay.
func (t *AuthTransport) refreshAccessToken(ctx context.Context) (string, bool) {
	refreshToken := t.state.RefreshToken()
	if refreshToken == "" {
		return "", false
	}
	t.metrics.IncRefreshAttempt()

	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		t.metrics.IncRefreshFailure()
		return "", false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		t.metrics.IncRefreshFailure()
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.refresh.Do(req)
	if err != nil {
		t.logg.Warn(ctx, "token refresh request failed")
		t.metrics.IncRefreshFailure()
		return "", false
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.logg.Warn(ctx, "token refresh rejected")
		t.metrics.IncRefreshFailure()
		return "", false
	}

	var body struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Access == "" {
		t.logg.Warn(ctx, "token refresh returned an unusable body")
		t.metrics.IncRefreshFailure()
		return "", false
	}

	t.state.ReplaceAccessToken(ctx, body.Access)
	return body.Access, true
}

// forceLogout tears the local session down and sends the user to login,
// unless they are already on an auth page.
func (t *AuthTransport) forceLogout(ctx context.Context) {
	t.state.Clear(ctx)
	t.logg.Warn(ctx, "session expired, signing out")
	if t.navigator == nil || t.navigator.OnAuthPage() {
		return
	}
	t.navigator.RedirectToLogin()
}
