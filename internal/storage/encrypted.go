package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"plantmanager/internal/plant"
)

// PassphraseFunc supplies the passphrase that unlocks the private key.
type PassphraseFunc func() (string, error)

// EncryptedStore wraps a plant.KVStore and keeps every value encrypted at rest.
// Writes only need the public key. The private key is unlocked on the first
// read and kept in memory for the lifetime of the store.
type EncryptedStore struct {
	inner      plant.KVStore
	encryptor  plant.Encryptor
	passphrase PassphraseFunc

	mu  sync.Mutex
	dec plant.DecryptionContext
}

// NewEncryptedStore wraps inner.
func NewEncryptedStore(inner plant.KVStore, encryptor plant.Encryptor, passphrase PassphraseFunc) *EncryptedStore {
	return &EncryptedStore{
		inner:      inner,
		encryptor:  encryptor,
		passphrase: passphrase,
	}
}

// Get reads and decrypts the value for key.
func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ciphertext, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	dec, err := s.unlock()
	if err != nil {
		return nil, false, err
	}

	var plaintext bytes.Buffer
	if err := dec.Decrypt(bytes.NewReader(ciphertext), &plaintext); err != nil {
		return nil, false, fmt.Errorf("decrypting %s: %w", key, err)
	}
	return plaintext.Bytes(), true, nil
}

// Set encrypts value and stores it under key.
func (s *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	var ciphertext bytes.Buffer
	if err := s.encryptor.Encrypt(bytes.NewReader(value), &ciphertext); err != nil {
		return fmt.Errorf("encrypting %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, ciphertext.Bytes())
}

// Delete removes key from the wrapped store.
func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *EncryptedStore) unlock() (plant.DecryptionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec != nil {
		return s.dec, nil
	}
	if s.passphrase == nil {
		return nil, fmt.Errorf("no passphrase available to unlock encrypted storage")
	}

	passphrase, err := s.passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	s.dec = dec
	return dec, nil
}

// Compile-time check that EncryptedStore implements plant.KVStore interface
var _ plant.KVStore = (*EncryptedStore)(nil)
