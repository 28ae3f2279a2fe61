package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"plantmanager/internal/plant"
)

// FileSystemStore is a filesystem-based implementation of plant.KVStore.
// Each key is one file under root, named by the hex encoding of the key so
// that keys like "@plantmanager:plants" are safe on every filesystem:
//
//	<root>/
//	  <hex(key)>.json
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at the given path, creating it if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

func (s *FileSystemStore) path(key string) string {
	return filepath.Join(s.root, hex.EncodeToString([]byte(key))+".json")
}

// Get reads the file for key.
func (s *FileSystemStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}
	return data, true, nil
}

// Set writes value for key using atomic write (temp file + rename), so a
// reader never sees a partially written mapping.
func (s *FileSystemStore) Set(_ context.Context, key string, value []byte) error {
	destPath := s.path(key)

	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(value); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Delete removes the file for key. Absent keys are ignored.
func (s *FileSystemStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the storage root exists and is a directory.
func (s *FileSystemStore) ValidateSetup(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("storage root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root is not a directory: %s", s.root)
	}
	return nil
}

// Compile-time check that FileSystemStore implements plant.KVStore interface
var _ plant.KVStore = (*FileSystemStore)(nil)
