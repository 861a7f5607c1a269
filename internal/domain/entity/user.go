// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core identity record. Username and email are unique across all
// users; EncryptionKey is generated exactly once at registration, never
// rotated, and never leaves the server.
type User struct {
	ID            uuid.UUID      // The unique identifier for the user.
	Username      string         // Unique login name, also the token subject claim.
	Email         string         // Unique contact address.
	PasswordHash  string         // bcrypt digest of the password; never the plaintext.
	Role          Role           // Either RoleUser or RoleAdmin.
	EncryptionKey string         // Base64 form of the per-user envelope key.
	SensitiveData *SensitiveData // One-to-one owned record; deleted with the user.
	CreatedAt     time.Time      // Timestamp of account creation.
	UpdatedAt     time.Time      // Timestamp of the last modification.
}

// SensitiveData holds the user's encrypted-at-rest fields. The refresh token
// ciphertext is the single source of truth for refresh validity: at most one
// valid refresh token exists per user, and its plaintext is never persisted.
type SensitiveData struct {
	UserID                uuid.UUID // Links the record to its owning User.
	EncryptedBio          string    // Envelope ciphertext of the bio, or empty.
	EncryptedRefreshToken string    // Envelope ciphertext of the current refresh token, or empty.
	UpdatedAt             time.Time // Timestamp of the last modification.
}
