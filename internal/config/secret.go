package config

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
)

// ErrNoSecret is returned when opening an unset Secret.
var ErrNoSecret = errors.New("secret not set")

// Secret keeps a sensitive string, such as a DSN with credentials, sealed in
// an encrypted memguard enclave until it is needed.
type Secret struct {
	enclave *memguard.Enclave
}

// NewSecret seals s. It returns nil for an empty string.
func NewSecret(s string) *Secret {
	if s == "" {
		return nil
	}
	// NewEnclave wipes the source buffer.
	return &Secret{enclave: memguard.NewEnclave([]byte(s))}
}

// Open decrypts the secret and returns a copy of its plaintext.
func (s *Secret) Open() (string, error) {
	if s == nil || s.enclave == nil {
		return "", ErrNoSecret
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return "", fmt.Errorf("opening secret: %w", err)
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// String never reveals the plaintext.
func (s *Secret) String() string {
	if s == nil {
		return "<unset>"
	}
	return "<sealed>"
}
