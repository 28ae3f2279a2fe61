package notify

import (
	"context"
	"time"
)

// Entry is a scheduled notification as persisted by a Repository.
type Entry struct {
	ID          string
	PlantID     string
	Title       string
	Message     string
	DeliverAt   time.Time
	CreatedAt   time.Time
	DeliveredAt *time.Time
	CanceledAt  *time.Time
}

// Pending reports whether the entry still awaits delivery.
func (e *Entry) Pending() bool {
	return e.DeliveredAt == nil && e.CanceledAt == nil
}

// Repository stores scheduled notifications.
type Repository interface {
	// InsertNotification stores a new pending entry.
	InsertNotification(ctx context.Context, e *Entry) error

	// CancelNotifications marks every pending entry for plantID as cancelled
	// at the given time and returns how many were affected.
	CancelNotifications(ctx context.Context, plantID string, at time.Time) (int, error)

	// DueNotifications returns pending entries with DeliverAt <= now, ordered by DeliverAt.
	DueNotifications(ctx context.Context, now time.Time) ([]*Entry, error)

	// PendingNotifications returns all pending entries, ordered by DeliverAt.
	PendingNotifications(ctx context.Context) ([]*Entry, error)

	// MarkDelivered records the delivery time of an entry.
	MarkDelivered(ctx context.Context, id string, at time.Time) error
}
