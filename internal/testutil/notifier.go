package testutil

import (
	"context"
	"fmt"
	"sync"

	"plantmanager/internal/plant"
)

// RecordingNotifier is a plant.Notifier that keeps every call in memory.
// Safe for concurrent use.
type RecordingNotifier struct {
	mu        sync.Mutex
	counter   int
	Shown     []plant.Notification
	Scheduled map[string]plant.Notification // notification id -> notification
	Cancelled []string                      // plant ids, in call order

	FailShow     bool
	FailSchedule bool
	FailCancel   bool

	// FailNextSchedule fails only the next Schedule call.
	FailNextSchedule bool
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{Scheduled: make(map[string]plant.Notification)}
}

func (n *RecordingNotifier) Show(_ context.Context, msg plant.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailShow {
		return ErrInjected
	}
	n.Shown = append(n.Shown, msg)
	return nil
}

func (n *RecordingNotifier) Schedule(_ context.Context, msg plant.Notification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailSchedule || n.FailNextSchedule {
		n.FailNextSchedule = false
		return "", ErrInjected
	}
	n.counter++
	id := fmt.Sprintf("notification-%d", n.counter)
	n.Scheduled[id] = msg
	return id, nil
}

func (n *RecordingNotifier) Cancel(_ context.Context, plantID string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailCancel {
		return 0, ErrInjected
	}
	n.Cancelled = append(n.Cancelled, plantID)
	count := 0
	for id, msg := range n.Scheduled {
		if msg.PlantID == plantID {
			delete(n.Scheduled, id)
			count++
		}
	}
	return count, nil
}

// PendingFor returns the scheduled notifications for plantID.
func (n *RecordingNotifier) PendingFor(plantID string) []plant.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []plant.Notification
	for _, msg := range n.Scheduled {
		if msg.PlantID == plantID {
			out = append(out, msg)
		}
	}
	return out
}

var _ plant.Notifier = (*RecordingNotifier)(nil)
