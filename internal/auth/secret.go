package auth

import (
	"errors"

	"go.uber.org/zap/zapcore"
)

// ErrSecretMissing is returned when no signing secret is configured.
var ErrSecretMissing = errors.New("auth: signing secret is not set")

const redacted = "[REDACTED]"

// Secret is the process-wide HMAC signing key. It is immutable after construction
// and renders as a redacted placeholder in every textual form.
type Secret struct {
	key []byte
}

// NewSecret copies value into a Secret. An empty value is rejected.
func NewSecret(value string) (Secret, error) {
	if value == "" {
		return Secret{}, ErrSecretMissing
	}
	return Secret{key: []byte(value)}, nil
}

// IsZero reports whether the secret carries no key material.
func (s Secret) IsZero() bool {
	return len(s.key) == 0
}

func (s Secret) bytes() []byte {
	return s.key
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

// MarshalText keeps the key out of JSON and other encoders.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// MarshalLogObject keeps the key out of zap fields.
func (s Secret) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("secret", redacted)
	return nil
}
