package service

import (
	"encoding/base64"

	"accounts/internal/errors"
)

// ErrDecryptFailed is returned when a ciphertext fails authentication
// (wrong key or corrupted data). It lets callers distinguish "field was
// never set" from "field failed to decrypt" and choose their own sentinel.
var ErrDecryptFailed = errors.New("ciphertext failed authentication")

// ErrInvalidKey is returned when stored key material cannot be decoded.
var ErrInvalidKey = errors.New("invalid encryption key material")

// Key is an opaque per-user symmetric key. The zero value, NoKey, selects
// the documented plaintext-passthrough mode; callers must handle that path
// explicitly rather than passing a nullable string around.
type Key struct {
	material []byte
}

// NoKey is the explicit "no encryption configured" key value.
var NoKey = Key{}

// NewKey wraps raw key material.
func NewKey(material []byte) Key {
	return Key{material: material}
}

// ParseKey decodes a stored base64 key. An empty input yields NoKey.
func ParseKey(encoded string) (Key, error) {
	if encoded == "" {
		return NoKey, nil
	}

	material, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return NoKey, errors.Wrap(ErrInvalidKey, err.Error())
	}

	return Key{material: material}, nil
}

// IsZero reports whether the key is NoKey.
func (k Key) IsZero() bool {
	return len(k.material) == 0
}

// Encode returns the base64 form used for storage.
func (k Key) Encode() string {
	if k.IsZero() {
		return ""
	}

	return base64.StdEncoding.EncodeToString(k.material)
}

// Bytes exposes the raw material to envelope implementations.
func (k Key) Bytes() []byte {
	return k.material
}

// Envelope defines authenticated encryption of sensitive string fields with
// a key unique to the owning user. Implementations are pure transforms with
// no side effects.
type Envelope interface {
	// GenerateKey produces a fresh random symmetric key, independent per user.
	GenerateKey() (Key, error)

	// Encrypt returns an authenticated ciphertext of plaintext. With NoKey
	// the plaintext is returned unchanged (documented weak mode).
	Encrypt(plaintext string, key Key) (string, error)

	// Decrypt reverses Encrypt. With NoKey the input is returned unchanged;
	// an empty ciphertext yields an empty string; a ciphertext failing
	// authentication yields ErrDecryptFailed, never a panic.
	Decrypt(ciphertext string, key Key) (string, error)
}
