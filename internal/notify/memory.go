package notify

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]*Entry)}
}

func (r *MemoryRepository) InsertNotification(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.ID]; ok {
		return fmt.Errorf("notification %s already exists", e.ID)
	}
	c := *e
	r.entries[e.ID] = &c
	return nil
}

func (r *MemoryRepository) CancelNotifications(_ context.Context, plantID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.PlantID == plantID && e.Pending() {
			t := at
			e.CanceledAt = &t
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DueNotifications(_ context.Context, now time.Time) ([]*Entry, error) {
	return r.collect(func(e *Entry) bool { return !e.DeliverAt.After(now) }), nil
}

func (r *MemoryRepository) PendingNotifications(context.Context) ([]*Entry, error) {
	return r.collect(func(*Entry) bool { return true }), nil
}

func (r *MemoryRepository) MarkDelivered(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("notification %s not found", id)
	}
	t := at
	e.DeliveredAt = &t
	return nil
}

// collect returns copies of pending entries matching keep, ordered by DeliverAt.
func (r *MemoryRepository) collect(keep func(*Entry) bool) []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Entry
	for _, e := range r.entries {
		if e.Pending() && keep(e) {
			c := *e
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *Entry) int {
		if c := a.DeliverAt.Compare(b.DeliverAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

var _ Repository = (*MemoryRepository)(nil)
