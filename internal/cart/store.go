package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/artvinci/artvinci-go/internal/storage"
	"github.com/artvinci/artvinci-go/pkg/logger"
	"github.com/shopspring/decimal"
)

// Store holds the artworks a visitor intends to purchase, independent of
// backend state, until checkout. Every mutation is persisted as a snapshot
// under a fixed key; the in-memory collection stays authoritative for the
// running client even when persistence fails.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	storage storage.Store
	logg    *logger.Logger
}

// StoreParams bundles the dependencies required to build a cart store.
type StoreParams struct {
	Storage storage.Store
	Logger  *logger.Logger
}

// NewStore loads the persisted snapshot and returns the store. A corrupt or
// missing snapshot yields an empty cart, never an error.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	s := &Store{
		storage: params.Storage,
		logg:    params.Logger,
	}
	s.lines = s.load(ctx)
	return s, nil
}

// Add appends a new line for the artwork or bumps the quantity of the
// existing one. Quantities below one are treated as one.
func (s *Store) Add(ctx context.Context, item Item, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID == item.ID {
			s.lines[i].Quantity += quantity
			s.persist(ctx)
			return
		}
	}
	s.lines = append(s.lines, Line{Item: item, Quantity: quantity})
	s.persist(ctx)
}

// Remove deletes the line matching the artwork id; absent ids are a no-op.
func (s *Store) Remove(ctx context.Context, artworkID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, artworkID)
}

// SetQuantity overwrites the line's quantity. Zero or negative removes the
// line entirely.
func (s *Store) SetQuantity(ctx context.Context, artworkID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity <= 0 {
		s.removeLocked(ctx, artworkID)
		return
	}
	for i := range s.lines {
		if s.lines[i].ID == artworkID {
			s.lines[i].Quantity = quantity
			s.persist(ctx)
			return
		}
	}
}

// Clear empties the collection.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.persist(ctx)
}

// Contains reports whether the artwork has a line in the cart.
func (s *Store) Contains(artworkID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID == artworkID {
			return true
		}
	}
	return false
}

// Quantity returns the line's quantity, or zero when absent.
func (s *Store) Quantity(artworkID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID == artworkID {
			return s.lines[i].Quantity
		}
	}
	return 0
}

// Count is the sum of quantities over all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for i := range s.lines {
		total += s.lines[i].Quantity
	}
	return total
}

// Total sums price times quantity over all lines. The arithmetic assumes a
// single currency; Currencies exposes what the cart actually holds so
// callers can detect mixed carts before trusting the figure.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for i := range s.lines {
		total = total.Add(s.lines[i].Subtotal())
	}
	return total
}

// Currencies lists the distinct currencies across lines, in cart order.
func (s *Store) Currencies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for i := range s.lines {
		cur := s.lines[i].Currency
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		out = append(out, cur)
	}
	return out
}

// Lines returns a copy of the collection.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) removeLocked(ctx context.Context, artworkID int64) {
	for i := range s.lines {
		if s.lines[i].ID == artworkID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

func (s *Store) load(ctx context.Context) []Line {
	raw, err := s.storage.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logg.Warn(ctx, "cart snapshot unreadable, starting empty")
		}
		return nil
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.logg.Warn(ctx, "cart snapshot corrupt, starting empty")
		return nil
	}
	return lines
}

func (s *Store) persist(ctx context.Context) {
	snapshot, err := json.Marshal(s.lines)
	if err != nil {
		s.logg.Error(ctx, "cart snapshot marshal failed", err)
		return
	}
	if err := s.storage.Set(ctx, storage.KeyCart, string(snapshot)); err != nil {
		s.logg.Error(ctx, "cart snapshot write failed", err)
	}
}
