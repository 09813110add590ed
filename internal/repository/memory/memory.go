// Package memory keeps records in process. It backs local runs without a
// database and the service tests; it satisfies the same repository
// interfaces as the gorm implementations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
)

type Store struct {
	mu            sync.Mutex
	reservations  []domain.Reservation
	notifications []domain.Notification
	history       []domain.HistoryEntry
	seen          map[string]time.Time
	dedupTTL      time.Duration
	now           func() time.Time
}

func NewStore(dedupTTL time.Duration) *Store {
	return &Store{
		seen:     make(map[string]time.Time),
		dedupTTL: dedupTTL,
		now:      time.Now,
	}
}

// Reservations exposes the store through the reservation repository interface.
func (s *Store) Reservations() *Reservations { return &Reservations{s} }

// Notifications exposes the store through the notification repository interface.
func (s *Store) Notifications() *Notifications { return &Notifications{s} }

// Messages exposes the store through the message history repository interface.
func (s *Store) Messages() *Messages { return &Messages{s} }

type Reservations struct{ s *Store }

func (r *Reservations) Create(_ context.Context, res *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res.ID = len(r.s.reservations) + 1
	r.s.reservations = append(r.s.reservations, *res)
	return nil
}

func (r *Reservations) Get(_ context.Context, id int) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return nil, fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	res := r.s.reservations[i]
	return &res, nil
}

func (r *Reservations) UpdateStatus(_ context.Context, res *domain.Reservation, status domain.ReservationStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.index(res.ID)
	if i < 0 || r.s.reservations[i].Status != res.Status {
		return fmt.Errorf("reservation %d is no longer %s: %w", res.ID, res.Status, domain.ErrInvalidTransition)
	}
	r.s.reservations[i].Status = status
	r.s.reservations[i].UpdatedAt = at

	res.Status = status
	res.UpdatedAt = at
	return nil
}

func (r *Reservations) ListByStatus(_ context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var list []domain.Reservation
	for _, res := range r.s.reservations {
		if res.Status == status {
			list = append(list, res)
		}
	}

	key := func(res domain.Reservation) time.Time { return res.CreatedAt }
	if status.IsTerminal() {
		key = func(res domain.Reservation) time.Time { return res.UpdatedAt }
	}
	sortNewestFirst(list, key)
	return list, nil
}

func (r *Reservations) ListAll(_ context.Context) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := append([]domain.Reservation(nil), r.s.reservations...)
	sortNewestFirst(list, func(res domain.Reservation) time.Time { return res.CreatedAt })
	return list, nil
}

func (r *Reservations) index(id int) int {
	for i := range r.s.reservations {
		if r.s.reservations[i].ID == id {
			return i
		}
	}
	return -1
}

// sortNewestFirst breaks timestamp ties by id so later inserts still come first.
func sortNewestFirst(list []domain.Reservation, key func(domain.Reservation) time.Time) {
	sort.SliceStable(list, func(i, j int) bool {
		ki, kj := key(list[i]), key(list[j])
		if ki.Equal(kj) {
			return list[i].ID > list[j].ID
		}
		return ki.After(kj)
	})
}

type Notifications struct{ s *Store }

func (n *Notifications) Create(_ context.Context, note *domain.Notification) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	note.ID = len(n.s.notifications) + 1
	n.s.notifications = append(n.s.notifications, *note)
	return nil
}

func (n *Notifications) ListUnread(_ context.Context) ([]domain.Notification, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	var list []domain.Notification
	for _, note := range n.s.notifications {
		if !note.IsRead {
			list = append(list, note)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (n *Notifications) CountUnread(ctx context.Context) (int64, error) {
	list, err := n.ListUnread(ctx)
	return int64(len(list)), err
}

func (n *Notifications) MarkRead(_ context.Context, id int) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	for i := range n.s.notifications {
		if n.s.notifications[i].ID == id {
			n.s.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
}

func (n *Notifications) MarkAllRead(_ context.Context) (int64, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()

	var changed int64
	for i := range n.s.notifications {
		if !n.s.notifications[i].IsRead {
			n.s.notifications[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

// All returns every notification in insertion order.
func (n *Notifications) All() []domain.Notification {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	return append([]domain.Notification(nil), n.s.notifications...)
}

type Messages struct{ s *Store }

func (m *Messages) Save(_ context.Context, entry *domain.HistoryEntry) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	entry.ID = len(m.s.history) + 1
	m.s.history = append(m.s.history, *entry)
	return nil
}

func (m *Messages) ListByCustomer(_ context.Context, platform domain.Platform, customerID string, limit int) ([]domain.HistoryEntry, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var list []domain.HistoryEntry
	for i := len(m.s.history) - 1; i >= 0 && (limit <= 0 || len(list) < limit); i-- {
		e := m.s.history[i]
		if e.Platform == platform && e.CustomerID == customerID {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *Messages) MarkSeen(_ context.Context, platform domain.Platform, platformMessageID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	now := m.s.now()
	for k, at := range m.s.seen {
		if now.Sub(at) >= m.s.dedupTTL {
			delete(m.s.seen, k)
		}
	}

	key := seenKey(platform, platformMessageID)
	if _, ok := m.s.seen[key]; ok {
		return false, nil
	}
	m.s.seen[key] = now
	return true, nil
}

func (m *Messages) Forget(_ context.Context, platform domain.Platform, platformMessageID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	delete(m.s.seen, seenKey(platform, platformMessageID))
	return nil
}

func seenKey(platform domain.Platform, platformMessageID string) string {
	return string(platform) + ":" + platformMessageID
}
