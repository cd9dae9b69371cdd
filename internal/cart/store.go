// Package cart mutates the server-side cart and mirrors its authoritative
// state. The discipline is mutate-then-refetch: each mutating call sends one
// delta request, then unconditionally re-fetches the whole cart. The local
// collection is only ever a verbatim copy of the last server response — the
// client never trusts its own arithmetic, because the server may silently
// clamp quantities to available stock.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"crafthub/internal/bus"
	"crafthub/internal/gateway"
)

// Line is one cart position, keyed by product id.
type Line struct {
	ProductID     int64           `json:"productId"`
	ProductName   string          `json:"productName"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	ImageURL      string          `json:"imageUrl"`
	StockQuantity int             `json:"stockQuantity"`
}

// snapshot matches GET /cart.
type snapshot struct {
	Items       []Line          `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type addRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Store is the cart store. One per session, injected into views.
type Store struct {
	mu     sync.RWMutex
	api    *gateway.Client
	bus    *bus.Bus
	items  []Line
	total  decimal.Decimal
	cancel context.CancelFunc
}

// New creates a cart store.
func New(api *gateway.Client, b *bus.Bus) *Store {
	return &Store{api: api, bus: b}
}

// Start subscribes to session teardown so an ending session always drops
// local cart state.
func (s *Store) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	ch, unsub := s.bus.Subscribe(bus.KindSessionCleared, 16)

	go func() {
		defer unsub()
		for {
			select {
			case <-ch:
				s.ClearLocal()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the session subscription.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Fetch replaces the local collection and total with the server's snapshot.
// Last completed fetch wins; overlapping calls are allowed and the ordering
// race is accepted by design.
func (s *Store) Fetch(ctx context.Context) error {
	var snap snapshot
	if err := s.api.Get(ctx, "/cart", &snap); err != nil {
		return fmt.Errorf("fetch cart: %w", err)
	}

	s.mu.Lock()
	s.items = snap.Items
	s.total = snap.TotalAmount
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindCartUpdated, nil))
	return nil
}

// AddItem puts one unit of the product into the server cart. On rejection
// (e.g. out of stock) local state is untouched; the error carries the
// server's message for the caller to surface.
func (s *Store) AddItem(ctx context.Context, productID int64) error {
	if err := s.api.Post(ctx, "/cart/add", addRequest{ProductID: productID, Quantity: 1}, nil); err != nil {
		return err
	}
	return s.Fetch(ctx)
}

// UpdateQuantity sets the absolute quantity of a line. The store does not
// validate bounds — the presentation layer clamps below 1, and the server's
// snapshot is ground truth for stock clamping above.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if err := s.api.Patch(ctx, fmt.Sprintf("/cart/items/%d?quantity=%d", productID, quantity), nil, nil); err != nil {
		return err
	}
	return s.Fetch(ctx)
}

// RemoveItem drops a line from the server cart.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/cart/items/%d", productID)); err != nil {
		return err
	}
	return s.Fetch(ctx)
}

// ClearServer empties the server cart. Idempotent: clearing an already-empty
// cart succeeds.
func (s *Store) ClearServer(ctx context.Context) error {
	if err := s.api.Delete(ctx, "/cart"); err != nil {
		return err
	}
	return s.Fetch(ctx)
}

// ClearLocal resets local state without contacting the server. It exists
// only for session teardown and is never a substitute for ClearServer.
func (s *Store) ClearLocal() {
	s.mu.Lock()
	s.items = nil
	s.total = decimal.Zero
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindCartUpdated, nil))
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, len(s.items))
	copy(out, s.items)
	return out
}

// Total returns the server-computed cart total.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// TotalQuantity is the display-only aggregate for the cart badge, the one
// value derived locally.
func (s *Store) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.items {
		n += l.Quantity
	}
	return n
}
