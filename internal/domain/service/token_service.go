package service

import (
	"time"

	"accounts/internal/domain/entity"

	"accounts/internal/errors"
)

// TokenKind distinguishes the two token variants sharing one claim schema.
type TokenKind string

const (
	// TokenKindAccess is the short-lived credential authorizing API calls.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived credential exchanged for a new pair
	// exactly once before invalidation.
	TokenKindRefresh TokenKind = "refresh"
)

// ErrTokenInvalid is returned by Verify for every verification failure:
// bad signature, malformed payload, expired timestamp, or missing claim.
// Callers map it to an HTTP 401; it is never fatal.
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the verified content of a signed token.
type Claims struct {
	Subject   string        // The username the token was issued for.
	Role      entity.Role   // Role at issuance time.
	Scopes    []entity.Scope // Scopes derived from the role at issuance time.
	Kind      TokenKind     // Access or refresh.
	ExpiresAt time.Time     // Absolute expiry.
}

// TokenService defines the interface for issuing and verifying signed tokens.
// This abstracts the token format and signing algorithm from the use cases.
type TokenService interface {
	// Issue creates a signed token of the given kind for the subject. Scopes
	// are re-derived from the role on every call; the kind selects the TTL.
	Issue(subject string, role entity.Role, kind TokenKind) (string, error)

	// IssuePair creates a matching access and refresh token in one step,
	// both carrying identical subject, role and scopes.
	IssuePair(subject string, role entity.Role) (accessToken, refreshToken string, err error)

	// Verify checks signature and expiry and returns the claims, or
	// ErrTokenInvalid on any failure.
	Verify(tokenString string) (*Claims, error)
}
