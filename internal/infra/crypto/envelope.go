// Package crypto provides the concrete envelope-encryption implementation
// for per-user sensitive fields.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"accounts/internal/domain/service"

	"github.com/pkg/errors"
)

// keySize is 32 bytes for AES-256.
const keySize = 32

// aesEnvelope implements service.Envelope with AES-256-GCM. The ciphertext
// wire form is base64(nonce || sealed), so each field carries its own nonce.
type aesEnvelope struct{}

// NewEnvelope is the constructor for aesEnvelope.
func NewEnvelope() service.Envelope {
	return &aesEnvelope{}
}

// GenerateKey produces a fresh random 256-bit key. Collision probability
// between users is cryptographically negligible.
func (e *aesEnvelope) GenerateKey() (service.Key, error) {
	material := make([]byte, keySize)
	if _, err := rand.Read(material); err != nil {
		return service.NoKey, errors.Wrap(err, "failed to generate key material")
	}

	return service.NewKey(material), nil
}

// Encrypt seals plaintext with the user's key. With NoKey the plaintext is
// returned as-is: the explicit no-encryption mode, not an error.
func (e *aesEnvelope) Encrypt(plaintext string, key service.Key) (string, error) {
	if key.IsZero() {
		return plaintext, nil
	}

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "failed to generate nonce")
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(append(nonce, sealed...)), nil
}

// Decrypt reverses Encrypt. Authentication failures surface as
// service.ErrDecryptFailed so callers can choose their own sentinel.
func (e *aesEnvelope) Decrypt(ciphertext string, key service.Key) (string, error) {
	if key.IsZero() {
		return ciphertext, nil
	}
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(service.ErrDecryptFailed, "ciphertext is not valid base64")
	}

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	if len(raw) < aead.NonceSize() {
		return "", errors.Wrap(service.ErrDecryptFailed, "ciphertext shorter than nonce")
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.Wrap(service.ErrDecryptFailed, err.Error())
	}

	return string(plaintext), nil
}

func newAEAD(key service.Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	return aead, nil
}
