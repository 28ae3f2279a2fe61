package encryption

import (
	"fmt"

	"plantmanager/internal/config"
	"plantmanager/internal/plant"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Type "none" (or empty) disables encryption and returns a nil Encryptor.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (plant.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
