package plant

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is matched by every *ValidationError.
var ErrInvalidRecord = errors.New("invalid plant record")

// ValidationError reports the field of a Record that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plant record: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// StorageError wraps a failure to read, decode, encode or write the
// persisted plant mapping.
type StorageError struct {
	Op  string // "read", "decode", "encode" or "write"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("plant storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NotificationError wraps a failure of the notification subsystem.
type NotificationError struct {
	Op      string // "show", "schedule" or "cancel"
	PlantID string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s for plant %s: %v", e.Op, e.PlantID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
