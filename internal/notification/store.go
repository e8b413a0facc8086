// Package notification keeps the process-wide notification tray: an
// ordered, newest-first list with read/unread tracking, fed by the stock
// stream and by order status changes.
package notification

import (
	"sync"
	"time"

	"ferre-pos/internal/domain"
)

// Store is the in-memory notification list. Identity comes from a
// monotonic counter, so ids can never collide under rapid-fire events and
// id order always matches generation order.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	items  []domain.Notification
	unread int
}

func NewStore() *Store {
	return &Store{}
}

// Add creates a notification and prepends it, keeping the list newest
// first.
func (s *Store) Add(message string, category domain.NotificationCategory) domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n := domain.Notification{
		ID:        s.nextID,
		Message:   message,
		Category:  category,
		CreatedAt: time.Now(),
	}

	s.items = append([]domain.Notification{n}, s.items...)
	s.unread++
	return n
}

// MarkAllRead flags every current entry read and zeroes the unread count.
// It applies to the snapshot present when it runs; an entry added in the
// same instant may land before or after the sweep.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		s.items[i].Read = true
	}
	s.unread = 0
}

// Remove deletes the entry with the given id. Removing an unknown id is a
// no-op.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.items {
		if n.ID != id {
			continue
		}
		if !n.Read && s.unread > 0 {
			s.unread--
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		return
	}
}

// UnreadCount returns the number of unread entries.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// List returns a copy of the notifications, newest first.
func (s *Store) List() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)
	return out
}
