package plant

import (
	"context"
	"time"
)

// Notification is a message about a plant, shown now or at At.
type Notification struct {
	PlantID string
	Title   string
	Message string
	At      time.Time
}

// Notifier is the notification subsystem used by the PlantStore.
type Notifier interface {
	// Show delivers n immediately. n.At is ignored.
	Show(ctx context.Context, n Notification) error

	// Schedule queues n for delivery at n.At and returns its id.
	Schedule(ctx context.Context, n Notification) (string, error)

	// Cancel drops every pending notification for the plant and returns how
	// many were cancelled.
	Cancel(ctx context.Context, plantID string) (int, error)
}
