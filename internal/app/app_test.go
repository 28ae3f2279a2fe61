package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"plantmanager/internal/catalog"
	"plantmanager/internal/config"
	"plantmanager/internal/database"
	"plantmanager/internal/plant"
	"plantmanager/internal/testutil"
)

// newCatalogServer serves two plants and two environments.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	plants := map[string]string{
		"1": `{"id":1,"name":"Aningapara","water_tips":"Keep soil moist","environments":["living_room"],"frequency":{"times":2,"repeat_every":"week"}}`,
		"2": `{"id":2,"name":"Peperomia","environments":["bedroom"],"frequency":{"times":1,"repeat_every":"day"}}`,
	}

	r := chi.NewRouter()
	r.Get("/plants", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("_page") != "1" {
			w.Write([]byte("[]"))
			return
		}
		w.Write([]byte("[" + plants["1"] + "," + plants["2"] + "]"))
	})
	r.Get("/plants/{id}", func(w http.ResponseWriter, req *http.Request) {
		p, ok := plants[chi.URLParam(req, "id")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		w.Write([]byte(p))
	})
	r.Get("/plants_environments", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"key":"bedroom","title":"Quarto"},{"key":"living_room","title":"Sala"}]`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig("device-1", t.TempDir())
	cfg.Storage = config.StorageConfig{Type: "memory"}
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Catalog.BaseURL = newCatalogServer(t).URL
	return cfg
}

type testApp struct {
	*PMApp
	clock  *testutil.StubClock
	out    *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *testApp {
	t.Helper()

	ta := &testApp{clock: testutil.FixedClock(), out: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	opts = append([]Option{WithClock(ta.clock), WithOutput(ta.out), WithErrorOutput(ta.stderr)}, opts...)

	a, err := NewPMApp(context.Background(), cfg, "Test", "", opts...)
	if err != nil {
		t.Fatalf("NewPMApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	ta.PMApp = a
	return ta
}

func TestPMApp_ReminderLifecycle(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t))

	rec, err := a.AddReminder(ctx, "1", "08:15")
	if err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}

	// Twice a week: every 3 days, at the picked time.
	want := time.Date(2024, 1, 18, 8, 15, 0, 0, time.UTC)
	if !rec.NextNotificationAt.Equal(want) {
		t.Errorf("NextNotificationAt = %v, want %v", rec.NextNotificationAt, want)
	}
	if rec.Hour != "08:15" || rec.WaterTips != "Keep soil moist" {
		t.Errorf("AddReminder() = %+v", rec)
	}
	if !strings.Contains(a.out.String(), "It's time to take care of your Aningapara") {
		t.Errorf("confirmation not shown, output = %q", a.out.String())
	}

	records, err := a.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "1" {
		t.Fatalf("ListReminders() = %+v, want plant 1", records)
	}

	pending, err := a.PendingNotifications(ctx)
	if err != nil {
		t.Fatalf("PendingNotifications() error = %v", err)
	}
	if len(pending) != 1 || !pending[0].DeliverAt.Equal(want) {
		t.Fatalf("PendingNotifications() = %+v, want one at %v", pending, want)
	}

	if n, _ := a.DispatchNotifications(ctx); n != 0 {
		t.Errorf("DispatchNotifications() before due = %d, want 0", n)
	}

	a.clock.Advance(72 * time.Hour)
	a.out.Reset()
	n, err := a.DispatchNotifications(ctx)
	if err != nil {
		t.Fatalf("DispatchNotifications() error = %v", err)
	}
	if n != 1 || !strings.Contains(a.out.String(), "Aningapara") {
		t.Errorf("DispatchNotifications() = %d, output = %q", n, a.out.String())
	}

	removed, err := a.RemoveReminder(ctx, "1")
	if err != nil || !removed {
		t.Fatalf("RemoveReminder() = %v, %v, want true, nil", removed, err)
	}
	removed, err = a.RemoveReminder(ctx, "1")
	if err != nil || removed {
		t.Errorf("second RemoveReminder() = %v, %v, want false, nil", removed, err)
	}
	if _, err := a.GetReminder(ctx, "1"); !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("GetReminder() after remove error = %v, want ErrReminderNotFound", err)
	}
}

func TestPMApp_RemoveCancelsNotification(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t))

	if _, err := a.AddReminder(ctx, "2", "07:00"); err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}
	if _, err := a.RemoveReminder(ctx, "2"); err != nil {
		t.Fatalf("RemoveReminder() error = %v", err)
	}

	pending, _ := a.PendingNotifications(ctx)
	if len(pending) != 0 {
		t.Errorf("PendingNotifications() = %d after remove, want 0", len(pending))
	}
}

func TestPMApp_AddReminderErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown plant", func(t *testing.T) {
		a := newTestApp(t, newTestConfig(t))
		_, err := a.AddReminder(ctx, "99", "08:00")
		if !errors.Is(err, catalog.ErrPlantNotFound) {
			t.Errorf("AddReminder() error = %v, want ErrPlantNotFound", err)
		}
		if !a.op.Failed() {
			t.Error("operation should be marked failed")
		}
	})

	t.Run("bad hour", func(t *testing.T) {
		a := newTestApp(t, newTestConfig(t))
		_, err := a.AddReminder(ctx, "1", "8 o'clock")
		if !errors.Is(err, plant.ErrInvalidRecord) {
			t.Errorf("AddReminder() error = %v, want ErrInvalidRecord", err)
		}
	})
}

func TestPMApp_Catalog(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t))

	envs, err := a.ListEnvironments(ctx)
	if err != nil {
		t.Fatalf("ListEnvironments() error = %v", err)
	}
	if len(envs) != 3 || envs[0].Key != catalog.AllEnvironments {
		t.Errorf("ListEnvironments() = %+v, want all first", envs)
	}

	plants, err := a.ListPlants(ctx, 1, "bedroom")
	if err != nil {
		t.Fatalf("ListPlants() error = %v", err)
	}
	if len(plants) != 1 || plants[0].Name != "Peperomia" {
		t.Errorf("ListPlants(bedroom) = %+v", plants)
	}

	all, err := a.ListAllPlants(ctx, catalog.AllEnvironments)
	if err != nil {
		t.Fatalf("ListAllPlants() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAllPlants() = %d plants, want 2", len(all))
	}
}

func TestPMApp_EncryptedSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Database = config.DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "db")}
	cfg.Storage = config.StorageConfig{Type: "sqlite"}
	cfg.Encryption.Type = "test"
	noPassphrase := WithPassphrase(func() (string, error) { return "", nil })

	a := newTestApp(t, cfg, noPassphrase)
	if _, err := a.AddReminder(ctx, "1", "09:00"); err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}
	a.Close()

	raw, err := database.NewSQLiteDatabase(filepath.Join(cfg.Database.DataDir, "device-1.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	value, ok, err := raw.Get(ctx, plant.DefaultStorageKey)
	raw.Close()
	if err != nil || !ok {
		t.Fatalf("raw Get() = %v, %v", ok, err)
	}
	if bytes.Contains(value, []byte("Aningapara")) {
		t.Error("stored value is not encrypted")
	}

	reopened := newTestApp(t, cfg, noPassphrase)
	if err := reopened.CheckStorage(ctx); err != nil {
		t.Errorf("CheckStorage() error = %v", err)
	}
	records, err := reopened.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(records) != 1 || records[0].Name != "Aningapara" || records[0].Hour != "09:00" {
		t.Errorf("ListReminders() after reopen = %+v", records)
	}
	pending, _ := reopened.PendingNotifications(ctx)
	if len(pending) != 1 {
		t.Errorf("PendingNotifications() after reopen = %d, want 1", len(pending))
	}
}

func TestPMApp_AgeEncryption(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Storage = config.StorageConfig{Type: "filesystem", FSRoot: filepath.Join(cfg.BaseDir, "data")}
	cfg.Encryption.Type = "age"

	t.Run("missing keys", func(t *testing.T) {
		_, err := NewPMApp(ctx, cfg, "Test", "", WithOutput(&bytes.Buffer{}), WithErrorOutput(&bytes.Buffer{}))
		if err == nil {
			t.Fatal("NewPMApp() expected error without keys")
		}
	})

	if err := SetupKeys(cfg.Encryption, "secret"); err != nil {
		t.Fatalf("SetupKeys() error = %v", err)
	}
	if err := SetupKeys(cfg.Encryption, "secret"); err == nil {
		t.Error("second SetupKeys() expected error")
	}

	calls := 0
	a := newTestApp(t, cfg, WithPassphrase(func() (string, error) {
		calls++
		return "secret", nil
	}))

	if _, err := a.AddReminder(ctx, "1", "10:00"); err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}
	if calls != 0 {
		t.Errorf("first save asked for the passphrase %d times, want 0", calls)
	}

	if _, err := a.AddReminder(ctx, "2", "11:00"); err != nil {
		t.Fatalf("second AddReminder() error = %v", err)
	}
	records, err := a.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("ListReminders() = %d records, want 2", len(records))
	}
	if calls != 1 {
		t.Errorf("passphrase requested %d times, want 1", calls)
	}
}

func TestNewPMApp_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown storage", func(c *config.Config) { c.Storage.Type = "floppy" }},
		{"unknown database", func(c *config.Config) { c.Database.Type = "oracle" }},
		{"unknown encryption", func(c *config.Config) { c.Encryption.Type = "rot13" }},
		{"unknown sink", func(c *config.Config) { c.Notifications.Sink = "pager" }},
		{"bad catalog url", func(c *config.Config) { c.Catalog.BaseURL = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			tt.mutate(cfg)

			a, err := NewPMApp(context.Background(), cfg, "Test", "", WithOutput(&bytes.Buffer{}), WithErrorOutput(&bytes.Buffer{}))
			if err == nil {
				a.Close()
				t.Fatal("NewPMApp() expected error")
			}
		})
	}
}

func TestPMApp_LogsOperation(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Notifications.Sink = "log"

	a := newTestApp(t, cfg)
	if _, err := a.AddReminder(context.Background(), "1", "08:00"); err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, "plantmanager.log"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	log := string(data)
	for _, want := range []string{"operation started", "reminder saved", "notification\tplant_id=1", "operation finished\toperation=Test\tstatus=success"} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q:\n%s", want, log)
		}
	}
	if a.out.Len() != 0 {
		t.Errorf("log sink wrote to stdout: %q", a.out.String())
	}
}

func TestPMApp_CheckStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory has no check", func(t *testing.T) {
		a := newTestApp(t, newTestConfig(t))
		if err := a.CheckStorage(ctx); err != nil {
			t.Errorf("CheckStorage() error = %v", err)
		}
	})

	t.Run("filesystem root removed", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Storage = config.StorageConfig{Type: "filesystem", FSRoot: filepath.Join(cfg.BaseDir, "data")}
		a := newTestApp(t, cfg)

		if err := a.CheckStorage(ctx); err != nil {
			t.Fatalf("CheckStorage() error = %v", err)
		}
		if err := os.RemoveAll(cfg.Storage.FSRoot); err != nil {
			t.Fatalf("removing root: %v", err)
		}
		if err := a.CheckStorage(ctx); err == nil {
			t.Error("CheckStorage() expected error after root was removed")
		}
	})
}
