package notify

import (
	"context"
	"fmt"

	"plantmanager/internal/plant"
)

// Scheduler is the notification subsystem. It shows notifications
// immediately through a Sink, keeps scheduled ones in a Repository and
// delivers them once they are due.
type Scheduler struct {
	repo   Repository
	sink   Sink
	clock  plant.Clock
	idgen  plant.IDGenerator
	logger plant.Logger
}

// NewScheduler creates a Scheduler with the provided dependencies.
func NewScheduler(repo Repository, sink Sink, clock plant.Clock, idgen plant.IDGenerator, logger plant.Logger) *Scheduler {
	if logger == nil {
		logger = plant.NewNopLogger()
	}
	return &Scheduler{
		repo:   repo,
		sink:   sink,
		clock:  clock,
		idgen:  idgen,
		logger: logger,
	}
}

// Show delivers n right away.
func (s *Scheduler) Show(ctx context.Context, n plant.Notification) error {
	e := &Entry{
		ID:        s.idgen.New(),
		PlantID:   n.PlantID,
		Title:     n.Title,
		Message:   n.Message,
		DeliverAt: s.clock.Now(),
		CreatedAt: s.clock.Now(),
	}
	if err := s.sink.Deliver(ctx, e); err != nil {
		return fmt.Errorf("delivering notification: %w", err)
	}
	return nil
}

// Schedule stores n for delivery at n.At.
func (s *Scheduler) Schedule(ctx context.Context, n plant.Notification) (string, error) {
	if n.At.IsZero() {
		return "", fmt.Errorf("notification for plant %s has no delivery time", n.PlantID)
	}
	e := &Entry{
		ID:        s.idgen.New(),
		PlantID:   n.PlantID,
		Title:     n.Title,
		Message:   n.Message,
		DeliverAt: n.At,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertNotification(ctx, e); err != nil {
		return "", fmt.Errorf("storing notification: %w", err)
	}
	s.logger.Debug("notification scheduled", "id", e.ID, "plant_id", e.PlantID, "deliver_at", e.DeliverAt)
	return e.ID, nil
}

// Cancel drops every pending notification for plantID.
func (s *Scheduler) Cancel(ctx context.Context, plantID string) (int, error) {
	n, err := s.repo.CancelNotifications(ctx, plantID, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("cancelling notifications: %w", err)
	}
	return n, nil
}

// Dispatch delivers every pending notification that is due and marks it
// delivered. It stops at the first delivery failure; entries that were not
// delivered stay pending. Returns the number delivered.
func (s *Scheduler) Dispatch(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.repo.DueNotifications(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("finding due notifications: %w", err)
	}

	delivered := 0
	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := s.sink.Deliver(ctx, e); err != nil {
			return delivered, fmt.Errorf("delivering notification %s: %w", e.ID, err)
		}
		if err := s.repo.MarkDelivered(ctx, e.ID, now); err != nil {
			return delivered, fmt.Errorf("marking notification %s delivered: %w", e.ID, err)
		}
		delivered++
		s.logger.Info("notification delivered", "id", e.ID, "plant_id", e.PlantID)
	}
	return delivered, nil
}

// Pending lists notifications awaiting delivery, earliest first.
func (s *Scheduler) Pending(ctx context.Context) ([]*Entry, error) {
	entries, err := s.repo.PendingNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending notifications: %w", err)
	}
	return entries, nil
}

var _ plant.Notifier = (*Scheduler)(nil)
