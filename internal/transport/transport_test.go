package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/artvinci/artvinci-go/pkg/logger"
	"github.com/rs/zerolog"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "transport-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

type fakeState struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared bool
}

func (s *fakeState) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *fakeState) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

func (s *fakeState) ReplaceAccessToken(ctx context.Context, access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
}

func (s *fakeState) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
	s.cleared = true
}

type fakeNavigator struct {
	onAuthPage bool
	redirects  int
}

func (n *fakeNavigator) OnAuthPage() bool  { return n.onAuthPage }
func (n *fakeNavigator) RedirectToLogin() { n.redirects++ }

func newTestTransport(t *testing.T, state *fakeState, nav Navigator, baseURL string) *http.Client {
	t.Helper()
	tr, err := New(Params{
		State:     state,
		Navigator: nav,
		BaseURL:   baseURL,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &http.Client{Transport: tr}
}

func TestAttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	state := &fakeState{access: "acc", refresh: "ref"}
	client := newTestTransport(t, state, nil, server.URL)

	resp, err := client.Get(server.URL + "/artworks/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer acc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("expected a request id header")
	}
}

func TestSignedOutRequestsCarryNoBearer(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestTransport(t, &fakeState{}, nil, server.URL)
	resp, err := client.Get(server.URL + "/artworks/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "" {
		t.Fatalf("expected no bearer header, got %q", gotAuth)
	}
}

func TestRefreshAndTransparentReplay(t *testing.T) {
	var mu sync.Mutex
	var seenTokens []string
	refreshCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path == "/auth/token/refresh/" {
			refreshCalls++
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"refresh":"ref"`) {
				t.Errorf("unexpected refresh body %s", body)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access":"fresh"}`))
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		seenTokens = append(seenTokens, token)
		if token != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	state := &fakeState{access: "stale", refresh: "ref"}
	nav := &fakeNavigator{}
	client := newTestTransport(t, state, nav, server.URL)

	resp, err := client.Get(server.URL + "/dashboard/artworks/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the caller to see the replayed 200, got %d", resp.StatusCode)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", body)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected exactly one refresh, got %d", refreshCalls)
	}
	if len(seenTokens) != 2 || seenTokens[0] != "stale" || seenTokens[1] != "fresh" {
		t.Fatalf("expected stale then fresh bearer, got %v", seenTokens)
	}
	if state.AccessToken() != "fresh" {
		t.Fatalf("expected fresh token installed, got %q", state.AccessToken())
	}
	if nav.redirects != 0 {
		t.Fatal("expected no redirect on successful refresh")
	}
}

func TestRefreshFailureClearsSessionAndRedirects(t *testing.T) {
	var mu sync.Mutex
	refreshCalls := 0
	apiCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path == "/auth/token/refresh/" {
			refreshCalls++
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"token blacklisted"}`))
			return
		}
		apiCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	state := &fakeState{access: "stale", refresh: "dead"}
	nav := &fakeNavigator{}
	client := newTestTransport(t, state, nav, server.URL)

	resp, err := client.Get(server.URL + "/dashboard/artworks/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected the original 401 back, got %d", resp.StatusCode)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected one refresh attempt, got %d", refreshCalls)
	}
	if apiCalls != 1 {
		t.Fatalf("expected no replay after failed refresh, got %d api calls", apiCalls)
	}
	if !state.cleared {
		t.Fatal("expected session cleared")
	}
	if nav.redirects != 1 {
		t.Fatalf("expected one redirect to login, got %d", nav.redirects)
	}
}

func TestNoRedirectOnAuthPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	state := &fakeState{access: "stale", refresh: "dead"}
	nav := &fakeNavigator{onAuthPage: true}
	client := newTestTransport(t, state, nav, server.URL)

	resp, err := client.Get(server.URL + "/auth/me/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if !state.cleared {
		t.Fatal("expected session cleared")
	}
	if nav.redirects != 0 {
		t.Fatalf("expected no redirect on auth page, got %d", nav.redirects)
	}
}

func TestAnonymous401PassesThrough(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	state := &fakeState{}
	nav := &fakeNavigator{}
	client := newTestTransport(t, state, nav, server.URL)

	resp, err := client.Get(server.URL + "/auth/me/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected the 401 back, got %d", resp.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("expected a single request, got %d", calls)
	}
	if state.cleared || nav.redirects != 0 {
		t.Fatal("expected a rejected anonymous request to leave everything alone")
	}
}

func TestNon401PassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"artists only"}`))
	}))
	defer server.Close()

	state := &fakeState{access: "acc", refresh: "ref"}
	nav := &fakeNavigator{}
	client := newTestTransport(t, state, nav, server.URL)

	resp, err := client.Get(server.URL + "/dashboard/artworks/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 to pass through, got %d", resp.StatusCode)
	}
	if string(body) != `{"error":"artists only"}` {
		t.Fatalf("unexpected body %s", body)
	}
	if state.cleared || nav.redirects != 0 {
		t.Fatal("expected non-401 to leave the session alone")
	}
}

func TestBodyReplayedIntact(t *testing.T) {
	var mu sync.Mutex
	var bodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path == "/auth/token/refresh/" {
			w.Write([]byte(`{"access":"fresh"}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	state := &fakeState{access: "stale", refresh: "ref"}
	client := newTestTransport(t, state, &fakeNavigator{}, server.URL)

	payload := `{"comment":"love the brushwork"}`
	resp, err := client.Post(server.URL+"/artworks/1/comments/", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 after replay, got %d", resp.StatusCode)
	}
	if len(bodies) != 2 || bodies[0] != payload || bodies[1] != payload {
		t.Fatalf("expected the body on both attempts, got %v", bodies)
	}
}

func TestNonReplayableBodyKeepsSessionAfterRefresh(t *testing.T) {
	var mu sync.Mutex
	refreshCalls := 0
	apiCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path == "/auth/token/refresh/" {
			refreshCalls++
			w.Write([]byte(`{"access":"fresh"}`))
			return
		}
		apiCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	state := &fakeState{access: "stale", refresh: "ref"}
	nav := &fakeNavigator{}
	tr, err := New(Params{
		State:     state,
		Navigator: nav,
		BaseURL:   server.URL,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// A pipe reader gives the request a body with no GetBody, so the
	// attempt cannot be replayed.
	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte(`{"comment":"streamed"}`))
		pw.Close()
	}()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/artworks/1/comments/", pr)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected the 401 back, got %d", resp.StatusCode)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected the refresh to still happen, got %d", refreshCalls)
	}
	if apiCalls != 1 {
		t.Fatalf("expected no replay, got %d api calls", apiCalls)
	}
	if state.cleared || nav.redirects != 0 {
		t.Fatal("expected the session to survive a non-replayable 401")
	}
	if state.AccessToken() != "fresh" {
		t.Fatalf("expected the fresh token installed for the next request, got %q", state.AccessToken())
	}
}

func TestCallerRequestNotMutated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	state := &fakeState{access: "acc"}
	tr, err := New(Params{
		State:   state,
		BaseURL: server.URL,
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, server.URL+"/artworks/", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()

	if req.Header.Get("Authorization") != "" {
		t.Fatal("expected the caller's request to stay untouched")
	}
	if req.Header.Get("X-Request-ID") != "" {
		t.Fatal("expected no request id on the caller's request")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Params{BaseURL: "https://api.test", Logger: testLogger()}); err == nil {
		t.Fatal("expected error for missing state")
	}
	if _, err := New(Params{State: &fakeState{}, BaseURL: "https://api.test"}); err == nil {
		t.Fatal("expected error for missing logger")
	}
	if _, err := New(Params{State: &fakeState{}, Logger: testLogger()}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
