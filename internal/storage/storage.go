package storage

import (
	"context"
	"errors"
)

// Keys for the persisted client snapshots. The names match the browser
// localStorage entries of the original web client so a migration can read
// either side.
const (
	KeyCart                = "artvinciCart"
	KeySession             = "artvinciSession"
	KeyPendingVerification = "pendingVerificationEmail"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key-value surface the cart and session snapshots
// persist through. Values are JSON documents.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}
