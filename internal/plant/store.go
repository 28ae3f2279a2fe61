package plant

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DefaultStorageKey is the key the plant mapping is stored under.
const DefaultStorageKey = "@plantmanager:plants"

// Notification text.
const (
	NotificationTitle   = "Heey, 🌱"
	notificationMessage = "It's time to take care of your %s"
)

// PlantStore persists plant reminder records in a KVStore and keeps exactly
// one scheduled notification per record.
//
// All operations go through a single-writer lock so overlapping Save and
// Remove calls from this process never lose an update of the shared mapping.
type PlantStore struct {
	kv       KVStore
	notifier Notifier
	clock    Clock
	logger   Logger
	key      string

	mu sync.Mutex
}

// Option configures a PlantStore.
type Option func(*PlantStore)

// WithClock sets the clock used for reminder arithmetic.
func WithClock(c Clock) Option {
	return func(s *PlantStore) { s.clock = c }
}

// WithLogger sets the store's logger.
func WithLogger(l Logger) Option {
	return func(s *PlantStore) { s.logger = l }
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(s *PlantStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewPlantStore creates a PlantStore backed by kv that schedules reminders through notifier.
func NewPlantStore(kv KVStore, notifier Notifier, opts ...Option) *PlantStore {
	s := &PlantStore{
		kv:       kv,
		notifier: notifier,
		clock:    RealClock{},
		logger:   NewNopLogger(),
		key:      DefaultStorageKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores record and schedules its next reminder.
//
// If scheduling or the write fails, the previously stored entry keeps its
// reminder. The confirmation notification is shown only once the record is
// stored; failing to show it is logged, not returned.
//
// The time of day of record.NextNotificationAt is the reminder time picked by
// the user; the date is recomputed from the frequency. A previous reminder for
// the same plant is cancelled and the stored entry overwritten. Every other
// stored entry is kept. The returned Record carries the computed
// NextNotificationAt and Hour.
func (s *PlantStore) Save(ctx context.Context, record Record) (Record, error) {
	if err := validate(&record); err != nil {
		return Record{}, err
	}

	now := s.clock.Now()
	record.NextNotificationAt = NextNotificationAt(now, record.NextNotificationAt, record.Frequency)
	record.Hour = FormatHour(record.NextNotificationAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := s.read(ctx)
	if err != nil {
		return Record{}, err
	}

	previous, existed := plants[record.ID]
	if existed {
		if err := s.cancel(ctx, record.ID); err != nil {
			return Record{}, err
		}
	}

	message := reminderMessage(record)
	notificationID, err := s.notifier.Schedule(ctx, Notification{
		PlantID: record.ID,
		Title:   NotificationTitle,
		Message: message,
		At:      record.NextNotificationAt,
	})
	if err != nil {
		if existed {
			s.reschedule(ctx, previous.Data)
		}
		return Record{}, &NotificationError{Op: "schedule", PlantID: record.ID, Err: err}
	}

	plants[record.ID] = storedEntry{Data: record}
	if err := s.write(ctx, plants); err != nil {
		if _, cerr := s.notifier.Cancel(ctx, record.ID); cerr != nil {
			s.logger.Error("cancelling reminder after failed write", "plant_id", record.ID, "error", cerr)
		}
		if existed {
			s.reschedule(ctx, previous.Data)
		}
		return Record{}, err
	}

	if err := s.notifier.Show(ctx, Notification{
		PlantID: record.ID,
		Title:   NotificationTitle,
		Message: message,
	}); err != nil {
		s.logger.Warn("showing reminder confirmation", "plant_id", record.ID, "error", err)
	}

	s.logger.Info("reminder saved",
		"plant_id", record.ID,
		"notification_id", notificationID,
		"next", record.NextNotificationAt.Format("2006-01-02 15:04"),
	)
	return record, nil
}

// LoadAll returns every stored record ordered by NextNotificationAt, earliest
// first. Hour is rebuilt from NextNotificationAt.
func (s *PlantStore) LoadAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	plants, err := s.read(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(plants))
	for _, entry := range plants {
		r := entry.Data
		r.Hour = FormatHour(r.NextNotificationAt)
		records = append(records, r)
	}

	slices.SortFunc(records, func(a, b Record) int {
		if c := a.NextNotificationAt.Compare(b.NextNotificationAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return records, nil
}

// Get returns the stored record for id. ok is false if there is none.
func (s *PlantStore) Get(ctx context.Context, id string) (Record, bool, error) {
	s.mu.Lock()
	plants, err := s.read(ctx)
	s.mu.Unlock()
	if err != nil {
		return Record{}, false, err
	}

	entry, ok := plants[id]
	if !ok {
		return Record{}, false, nil
	}
	r := entry.Data
	r.Hour = FormatHour(r.NextNotificationAt)
	return r, true, nil
}

// Remove cancels the pending reminder for id and deletes its record.
// Removing an unknown id is a no-op. If the write fails the reminder is
// scheduled again.
func (s *PlantStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := s.read(ctx)
	if err != nil {
		return err
	}

	if _, ok := plants[id]; !ok {
		s.logger.Debug("remove of unknown plant ignored", "plant_id", id)
		return nil
	}

	if err := s.cancel(ctx, id); err != nil {
		return err
	}

	previous := plants[id]
	delete(plants, id)
	if err := s.write(ctx, plants); err != nil {
		s.reschedule(ctx, previous.Data)
		return err
	}

	s.logger.Info("reminder removed", "plant_id", id)
	return nil
}

func (s *PlantStore) cancel(ctx context.Context, id string) error {
	n, err := s.notifier.Cancel(ctx, id)
	if err != nil {
		return &NotificationError{Op: "cancel", PlantID: id, Err: err}
	}
	s.logger.Debug("pending reminders cancelled", "plant_id", id, "count", n)
	return nil
}

// reschedule puts back the reminder of a record that is still stored after a
// failed update, so it keeps its one pending notification.
func (s *PlantStore) reschedule(ctx context.Context, r Record) {
	if _, err := s.notifier.Schedule(ctx, Notification{
		PlantID: r.ID,
		Title:   NotificationTitle,
		Message: reminderMessage(r),
		At:      r.NextNotificationAt,
	}); err != nil {
		s.logger.Error("restoring previous reminder", "plant_id", r.ID, "error", err)
	}
}

func reminderMessage(r Record) string {
	return fmt.Sprintf(notificationMessage, r.Name)
}

// read loads the persisted mapping. A missing key yields an empty mapping.
func (s *PlantStore) read(ctx context.Context) (storedPlants, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, &StorageError{Op: "read", Key: s.key, Err: err}
	}
	plants := storedPlants{}
	if !ok || len(data) == 0 {
		return plants, nil
	}
	if err := json.Unmarshal(data, &plants); err != nil {
		return nil, &StorageError{Op: "decode", Key: s.key, Err: err}
	}
	return plants, nil
}

func (s *PlantStore) write(ctx context.Context, plants storedPlants) error {
	data, err := json.Marshal(plants)
	if err != nil {
		return &StorageError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return &StorageError{Op: "write", Key: s.key, Err: err}
	}
	return nil
}

func validate(r *Record) error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if r.Frequency.Times <= 0 {
		return &ValidationError{Field: "frequency.times", Reason: "must be positive"}
	}
	return nil
}
