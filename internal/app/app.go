package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"plantmanager/internal/catalog"
	"plantmanager/internal/config"
	"plantmanager/internal/database"
	"plantmanager/internal/encryption"
	"plantmanager/internal/notify"
	"plantmanager/internal/plant"
	"plantmanager/internal/storage"
)

// ErrReminderNotFound is returned when no reminder exists for a plant id.
var ErrReminderNotFound = errors.New("no reminder for plant")

// PMApp is the application layer between the CLI and the plant store.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI arguments, and releases resources on Close.
type PMApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	backend   plant.KVStore
	store     *plant.PlantStore
	scheduler *notify.Scheduler
	catalog   *catalog.Client
	clock     plant.Clock
	logger    *slog.Logger
	op        *Operation
	logFile   *os.File
	closed    bool
}

type options struct {
	clock      plant.Clock
	passphrase storage.PassphraseFunc
	stdout     io.Writer
	stderr     io.Writer
}

// Option customizes NewPMApp.
type Option func(*options)

// WithClock replaces the wall clock.
func WithClock(c plant.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithPassphrase sets how the encryption passphrase is obtained.
func WithPassphrase(fn storage.PassphraseFunc) Option {
	return func(o *options) { o.passphrase = fn }
}

// WithOutput sets where the stdout notification sink writes.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithErrorOutput sets where warnings and errors are mirrored.
func WithErrorOutput(w io.Writer) Option {
	return func(o *options) { o.stderr = w }
}

// NewPMApp creates a fully wired PMApp from the given config.
// operation identifies the CLI command being run (e.g. "AddReminder").
// The caller must call Close when done.
func NewPMApp(ctx context.Context, cfg *config.Config, operation, parameters string, opts ...Option) (*PMApp, error) {
	o := options{
		clock:      plant.RealClock{},
		passphrase: PassphrasePrompt(os.Stdin, os.Stderr),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	op := NewOperation(operation, parameters, o.clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, o.stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	a := &PMApp{
		cfg:     cfg,
		clock:   o.clock,
		logger:  logger,
		op:      op,
		logFile: logFile,
	}
	if err := a.wire(ctx, o, log); err != nil {
		a.closeResources()
		return nil, err
	}

	logger.Info("operation started", "operation", op.Name, "parameters", op.Parameters)
	return a, nil
}

func (a *PMApp) wire(ctx context.Context, o options, log plant.Logger) error {
	cfg := a.cfg

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date: %w", err)
	}

	kv, err := a.newKVStore(ctx, o.passphrase)
	if err != nil {
		return err
	}

	sink, err := newSink(cfg.Notifications, o.stdout, log)
	if err != nil {
		return err
	}
	a.scheduler = notify.NewScheduler(db, sink, o.clock, plant.UUIDGenerator{}, log)

	a.store = plant.NewPlantStore(kv, a.scheduler,
		plant.WithClock(o.clock),
		plant.WithLogger(log),
		plant.WithStorageKey(cfg.Storage.Key),
	)

	baseURL := cfg.Catalog.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultCatalogURL
	}
	client, err := catalog.NewClient(baseURL,
		catalog.WithPageSize(cfg.Catalog.PageSize),
		catalog.WithTimeout(time.Duration(cfg.Catalog.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("creating catalog client: %w", err)
	}
	a.catalog = client
	return nil
}

// newKVStore opens the configured reminder backend and wraps it with
// encryption when enabled.
func (a *PMApp) newKVStore(ctx context.Context, passphrase storage.PassphraseFunc) (plant.KVStore, error) {
	var kv plant.KVStore
	if a.cfg.Storage.Type == "sqlite" {
		kv = a.db
	} else {
		s, err := storage.NewStoreFromConfig(ctx, a.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("creating storage: %w", err)
		}
		kv = s
	}
	a.backend = kv

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return kv, nil
	}
	if !enc.IsConfigured() {
		return nil, fmt.Errorf("encryption keys not found: run 'plantmanager config keys init'")
	}
	return storage.NewEncryptedStore(kv, enc, passphrase), nil
}

func newSink(cfg config.NotificationsConfig, stdout io.Writer, log plant.Logger) (notify.Sink, error) {
	switch cfg.Sink {
	case "stdout", "":
		return notify.NewWriterSink(stdout), nil
	case "log":
		return notify.NewLogSink(log), nil
	default:
		return nil, fmt.Errorf("unknown notification sink: %s", cfg.Sink)
	}
}

// ListEnvironments returns the catalog environments, "all" first.
func (a *PMApp) ListEnvironments(ctx context.Context) ([]catalog.Environment, error) {
	envs, err := a.catalog.ListEnvironments(ctx)
	if err != nil {
		return nil, a.op.Record(err)
	}
	return catalog.WithAllEnvironment(envs), nil
}

// ListPlants returns one catalog page filtered by environment.
func (a *PMApp) ListPlants(ctx context.Context, page int, environment string) ([]catalog.Plant, error) {
	plants, err := a.catalog.ListPlants(ctx, page)
	if err != nil {
		return nil, a.op.Record(err)
	}
	return catalog.FilterByEnvironment(plants, environment), nil
}

// ListAllPlants pages through the whole catalog and filters by environment.
func (a *PMApp) ListAllPlants(ctx context.Context, environment string) ([]catalog.Plant, error) {
	plants, err := catalog.NewPager(a.catalog).All(ctx)
	if err != nil {
		return nil, a.op.Record(err)
	}
	return catalog.FilterByEnvironment(plants, environment), nil
}

// AddReminder looks plantID up in the catalog and saves a reminder at the
// given "HH:mm" time of day.
func (a *PMApp) AddReminder(ctx context.Context, plantID, hour string) (plant.Record, error) {
	picked, err := plant.ParseHour(a.clock.Now(), hour)
	if err != nil {
		return plant.Record{}, a.op.Record(err)
	}

	p, err := a.catalog.GetPlant(ctx, plantID)
	if err != nil {
		return plant.Record{}, a.op.Record(err)
	}

	record := p.Record()
	record.NextNotificationAt = picked
	saved, err := a.store.Save(ctx, record)
	return saved, a.op.Record(err)
}

// ListReminders returns every saved reminder, earliest first.
func (a *PMApp) ListReminders(ctx context.Context) ([]plant.Record, error) {
	records, err := a.store.LoadAll(ctx)
	return records, a.op.Record(err)
}

// GetReminder returns the reminder for plantID.
func (a *PMApp) GetReminder(ctx context.Context, plantID string) (plant.Record, error) {
	r, ok, err := a.store.Get(ctx, plantID)
	if err != nil {
		return plant.Record{}, a.op.Record(err)
	}
	if !ok {
		return plant.Record{}, a.op.Record(fmt.Errorf("%w %s", ErrReminderNotFound, plantID))
	}
	return r, nil
}

// RemoveReminder deletes the reminder for plantID and cancels its
// notification. It reports whether a reminder existed.
func (a *PMApp) RemoveReminder(ctx context.Context, plantID string) (bool, error) {
	_, ok, err := a.store.Get(ctx, plantID)
	if err != nil {
		return false, a.op.Record(err)
	}
	if err := a.store.Remove(ctx, plantID); err != nil {
		return false, a.op.Record(err)
	}
	return ok, nil
}

// CheckStorage verifies that the reminder backend is reachable. Backends
// without a setup check always pass.
func (a *PMApp) CheckStorage(ctx context.Context) error {
	v, ok := a.backend.(storage.Validator)
	if !ok {
		return nil
	}
	if err := v.ValidateSetup(ctx); err != nil {
		return a.op.Record(fmt.Errorf("checking %s storage: %w", a.cfg.Storage.Type, err))
	}
	return nil
}

// DispatchNotifications delivers every due notification.
func (a *PMApp) DispatchNotifications(ctx context.Context) (int, error) {
	n, err := a.scheduler.Dispatch(ctx)
	return n, a.op.Record(err)
}

// PendingNotifications lists notifications waiting for delivery.
func (a *PMApp) PendingNotifications(ctx context.Context) ([]*notify.Entry, error) {
	entries, err := a.scheduler.Pending(ctx)
	return entries, a.op.Record(err)
}

// Close logs the outcome of the operation and closes all resources.
// Calling Close more than once is a no-op.
func (a *PMApp) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"duration", a.clock.Now().Sub(a.op.StartedAt).Truncate(time.Millisecond),
	)
	return a.closeResources()
}

func (a *PMApp) closeResources() error {
	var firstErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// SetupKeys generates the age key pair configured in cfg and protects the
// private key with passphrase.
func SetupKeys(cfg config.EncryptionConfig, passphrase string) error {
	if err := encryption.NewAgeEncryptor(cfg).Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption keys: %w", err)
	}
	return nil
}
