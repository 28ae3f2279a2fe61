package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		DeviceID: "test-device-abc",
		BaseDir:  "/home/user/.local/share/plantmanager",
		LogDir:   "/home/user/.local/share/plantmanager/log",
		Storage: StorageConfig{
			Type:     "s3",
			Key:      "@plantmanager:plants",
			S3Bucket: "plants",
			S3Prefix: "devices/abc",
			S3Region: "eu-west-1",
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/plantmanager/db"},
		Catalog: CatalogConfig{
			BaseURL:        "http://192.168.0.10:3333",
			PageSize:       8,
			TimeoutSeconds: 5,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/plantmanager/keys/plantmanager.pub",
			PrivateKeyPath: "/home/user/.local/share/plantmanager/keys/plantmanager.key",
		},
		Notifications: NotificationsConfig{Sink: "log"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.DeviceID != original.DeviceID {
		t.Errorf("DeviceID = %q, want %q", got.DeviceID, original.DeviceID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Storage != original.Storage {
		t.Errorf("Storage = %+v, want %+v", got.Storage, original.Storage)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if got.Catalog != original.Catalog {
		t.Errorf("Catalog = %+v, want %+v", got.Catalog, original.Catalog)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Notifications.Sink != "log" {
		t.Errorf("Notifications.Sink = %q, want %q", got.Notifications.Sink, "log")
	}
}

func TestManager_Read_Invalid(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("device_id = [unterminated")); err == nil {
		t.Fatal("Read() expected error for malformed TOML")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("device-1", "/data/pm")

	if cfg.DeviceID != "device-1" {
		t.Errorf("DeviceID = %q, want %q", cfg.DeviceID, "device-1")
	}
	if cfg.LogDir != "/data/pm/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/pm/log")
	}
	if cfg.Storage.Type != "filesystem" || cfg.Storage.FSRoot != "/data/pm/data" {
		t.Errorf("Storage = %+v, want filesystem under /data/pm/data", cfg.Storage)
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/pm/db" {
		t.Errorf("Database = %+v, want sqlite under /data/pm/db", cfg.Database)
	}
	if cfg.Catalog.PageSize != DefaultPageSize {
		t.Errorf("Catalog.PageSize = %d, want %d", cfg.Catalog.PageSize, DefaultPageSize)
	}
	if cfg.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %q, want %q", cfg.Encryption.Type, "none")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/pm/keys/plantmanager.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q", cfg.Encryption.PrivateKeyPath)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "plantmanager.toml")
		cfg := NewConfig("d1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plantmanager.toml")
		cfg := NewConfig("d1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plantmanager.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.DeviceID != "read-test" {
			t.Errorf("DeviceID = %q, want %q", got.DeviceID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/plantmanager.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
