package session

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/artvinci/artvinci-go/internal/api"
	"github.com/artvinci/artvinci-go/internal/storage"
	"github.com/artvinci/artvinci-go/pkg/logger"
	"github.com/rs/zerolog"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "session-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func newTestState(t *testing.T, store storage.Store) *State {
	t.Helper()
	state, err := NewState(context.Background(), StateParams{
		Storage: store,
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return state
}

func TestNewStateValidation(t *testing.T) {
	if _, err := NewState(context.Background(), StateParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected error for missing storage")
	}
	if _, err := NewState(context.Background(), StateParams{Storage: storage.NewMemoryStore()}); err == nil {
		t.Fatal("expected error for missing logger")
	}
}

func TestStateStartsSignedOut(t *testing.T) {
	state := newTestState(t, storage.NewMemoryStore())
	if state.Authenticated() {
		t.Fatal("expected fresh state to be signed out")
	}
	if state.Current() != nil {
		t.Fatal("expected nil session")
	}
	if state.AccessToken() != "" || state.RefreshToken() != "" {
		t.Fatal("expected empty tokens")
	}
}

func TestStateInstallAndReload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	state := newTestState(t, store)
	state.Install(ctx, Session{
		User:         &api.User{ID: 5, Username: "ada"},
		AccessToken:  "acc",
		RefreshToken: "ref",
	})

	if !state.Authenticated() {
		t.Fatal("expected authenticated after install")
	}

	// A new state over the same storage sees the persisted session.
	reloaded := newTestState(t, store)
	current := reloaded.Current()
	if current == nil || current.AccessToken != "acc" || current.RefreshToken != "ref" {
		t.Fatalf("unexpected reloaded session %+v", current)
	}
	if current.User == nil || current.User.Username != "ada" {
		t.Fatalf("unexpected reloaded user %+v", current.User)
	}
}

func TestStateCorruptSnapshotFailsOpen(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Set(ctx, storage.KeySession, "{not json"); err != nil {
		t.Fatalf("seeding snapshot: %v", err)
	}

	state := newTestState(t, store)
	if state.Authenticated() {
		t.Fatal("expected corrupt snapshot to leave state signed out")
	}
}

func TestStateReplaceAccessToken(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	state := newTestState(t, store)

	// No-op while signed out.
	state.ReplaceAccessToken(ctx, "fresh")
	if state.AccessToken() != "" {
		t.Fatal("expected replace to be a no-op while signed out")
	}

	state.Install(ctx, Session{AccessToken: "old", RefreshToken: "ref"})
	state.ReplaceAccessToken(ctx, "fresh")
	if state.AccessToken() != "fresh" {
		t.Fatalf("expected fresh access token, got %q", state.AccessToken())
	}
	if state.RefreshToken() != "ref" {
		t.Fatal("expected refresh token to survive")
	}

	raw, err := store.Get(ctx, storage.KeySession)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	var snapshot Session
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snapshot.AccessToken != "fresh" {
		t.Fatalf("expected persisted snapshot to carry fresh token, got %q", snapshot.AccessToken)
	}
}

func TestStateClearPreservesPendingMarker(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	state := newTestState(t, store)

	state.Install(ctx, Session{AccessToken: "acc", RefreshToken: "ref"})
	state.SetPendingVerification(ctx, "new@example.com")

	state.Clear(ctx)
	if state.Authenticated() {
		t.Fatal("expected signed out after clear")
	}
	if _, err := store.Get(ctx, storage.KeySession); err != storage.ErrNotFound {
		t.Fatalf("expected session key removed, got %v", err)
	}
	if got := state.PendingVerificationEmail(ctx); got != "new@example.com" {
		t.Fatalf("expected pending marker to survive clear, got %q", got)
	}

	state.ClearPendingVerification(ctx)
	if got := state.PendingVerificationEmail(ctx); got != "" {
		t.Fatalf("expected pending marker cleared, got %q", got)
	}
}

func TestStateCurrentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	state := newTestState(t, storage.NewMemoryStore())
	state.Install(ctx, Session{
		User:        &api.User{ID: 5, Username: "ada"},
		AccessToken: "acc",
	})

	snapshot := state.Current()
	snapshot.AccessToken = "tampered"
	snapshot.User.Username = "mallory"

	if state.AccessToken() != "acc" {
		t.Fatal("expected Current to return a copy")
	}
	if live := state.Current(); live.User.Username != "ada" {
		t.Fatalf("expected the user record to be copied too, got %q", live.User.Username)
	}
}
