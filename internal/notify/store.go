// Package notify polls server-side notifications and tracks the unread
// badge. Reads replace the collection wholesale; the one deliberate
// exception is MarkAllRead, which flips local flags optimistically so the
// badge disappears without waiting a poll cycle.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"crafthub/internal/bus"
	"crafthub/internal/gateway"
	"crafthub/internal/poll"
)

// Notification mirrors the backend's notification record. CreatedAt is kept
// as the server's own timestamp string; the client only displays it.
type Notification struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

// Store is the notification store.
type Store struct {
	mu     sync.RWMutex
	api    *gateway.Client
	bus    *bus.Bus
	items  []Notification
	unread int
	poller *poll.Poller
}

// New creates a notification store polling at the given interval.
func New(api *gateway.Client, b *bus.Bus, logger *zap.Logger, interval time.Duration) *Store {
	s := &Store{api: api, bus: b}
	s.poller = poll.New("notifications", interval, logger, s.Fetch)
	return s
}

// Start begins polling. The first fetch fires immediately.
func (s *Store) Start(ctx context.Context) {
	s.poller.Start(ctx)
}

// Stop cancels polling.
func (s *Store) Stop() {
	s.poller.Stop()
}

// Fetch replaces the collection with the server's and recomputes the unread
// count from it. The count is never incremented or decremented speculatively.
func (s *Store) Fetch(ctx context.Context) error {
	var items []Notification
	if err := s.api.Get(ctx, "/notifications", &items); err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}

	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}

	s.mu.Lock()
	s.items = items
	s.unread = unread
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindNotifyUpdated, nil))
	return nil
}

// MarkAllRead sends one bulk mark-read request and optimistically flips
// every local flag so the badge clears immediately. There is deliberately no
// rollback on failure: the next poll cycle restores server truth, and one
// cycle of staleness is acceptable for a badge.
func (s *Store) MarkAllRead(ctx context.Context) error {
	if s.UnreadCount() == 0 {
		return nil
	}
	if err := s.api.Post(ctx, "/notifications/mark-as-read", nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.unread = 0
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindNotifyUpdated, nil))
	return nil
}

// ClearAll deletes every notification server-side and empties local state on
// success.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.api.Delete(ctx, "/notifications/clear"); err != nil {
		return err
	}

	s.mu.Lock()
	s.items = nil
	s.unread = 0
	s.mu.Unlock()

	s.bus.Publish(bus.Now(bus.KindNotifyUpdated, nil))
	return nil
}

// Notifications returns a copy of the current collection.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount returns the current badge value.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}
