package testutil

import (
	"gallery-go/internal/encryption"
	"gallery-go/internal/gallery"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() gallery.Encryptor {
	return encryption.NewTestEncryptor()
}
