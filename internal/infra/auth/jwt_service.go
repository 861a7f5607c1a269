// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"accounts/config"
	"accounts/internal/domain/entity"
	"accounts/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
// The signing secret and TTLs are injected at construction; nothing is read
// from the environment at call sites.
type jwtService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.Token.Secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	accessTTL := cfg.Token.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.Token.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	return &jwtService{
		secret:     []byte(cfg.Token.Secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Issue creates a signed HS256 token for the subject. Scopes are re-derived
// from the role on every issuance and never persisted.
func (s *jwtService) Issue(subject string, role entity.Role, kind service.TokenKind) (string, error) {
	ttl := s.accessTTL
	if kind == service.TokenKindRefresh {
		ttl = s.refreshTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    subject,
		"role":   role.String(),
		"scopes": role.Scopes(),
		// iat/exp have second granularity, so the jti is what makes two
		// tokens for the same subject distinct. Rotation depends on that:
		// a rotated refresh token must never equal the one it replaces.
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	// Access is the default; only refresh tokens carry the kind claim.
	if kind == service.TokenKindRefresh {
		claims["type"] = string(service.TokenKindRefresh)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// IssuePair creates a matching access and refresh token.
func (s *jwtService) IssuePair(subject string, role entity.Role) (string, string, error) {
	accessToken, err := s.Issue(subject, role, service.TokenKindAccess)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := s.Issue(subject, role, service.TokenKindRefresh)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// Verify checks signature and expiry. Every failure mode collapses into
// service.ErrTokenInvalid so callers can map it to a 401 uniformly.
func (s *jwtService) Verify(tokenString string) (*service.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.Wrap(service.ErrTokenInvalid, "failed to parse token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Wrap(service.ErrTokenInvalid, "unexpected claims format")
	}

	subject, ok := mapClaims["sub"].(string)
	if !ok || subject == "" {
		return nil, errors.Wrap(service.ErrTokenInvalid, "subject claim missing")
	}

	roleStr, _ := mapClaims["role"].(string)
	role := entity.Role(roleStr)
	if !role.IsValid() {
		return nil, errors.Wrap(service.ErrTokenInvalid, "role claim missing or unknown")
	}

	kind := service.TokenKindAccess
	if kindStr, ok := mapClaims["type"].(string); ok && kindStr == string(service.TokenKindRefresh) {
		kind = service.TokenKindRefresh
	}

	var scopes []entity.Scope
	if rawScopes, ok := mapClaims["scopes"].([]any); ok {
		for _, raw := range rawScopes {
			if scope, ok := raw.(string); ok {
				scopes = append(scopes, scope)
			}
		}
	}

	var expiresAt time.Time
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return &service.Claims{
		Subject:   subject,
		Role:      role,
		Scopes:    scopes,
		Kind:      kind,
		ExpiresAt: expiresAt,
	}, nil
}
