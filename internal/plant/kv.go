package plant

import "context"

// KVStore is the key-value storage the PlantStore persists its mapping in.
// Implementations must be safe for concurrent use.
type KVStore interface {
	// Get returns the value stored under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value in one step.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
