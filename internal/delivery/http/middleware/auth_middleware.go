package middleware

import (
	"strings"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Context keys set by Authenticate for downstream handlers.
const (
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"
	ContextKeyScopes   = "scopes"
)

// AuthMiddleware provides middleware for token authentication and authorization.
// The bearer access token is the only accepted identity; there is no header
// shortcut around it.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	userRepo repository.UserRepository
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, userRepo: userRepo}
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", domainerrors.ErrUnauthorized.WrapMessage("authorization header is missing")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", domainerrors.ErrUnauthorized.WrapMessage("authorization header is not a bearer token")
	}

	return tokenString, nil
}

// Authenticate validates the access token and resolves the principal. The
// subject must still exist; a token for a deleted user is rejected. Refresh
// tokens are not valid API credentials.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := BearerToken(c)
		if err != nil {
			return err
		}

		claims, err := m.tokenSvc.Verify(tokenString)
		if err != nil {
			return domainerrors.ErrTokenInvalid.WrapMessage("access token verification failed")
		}
		if claims.Kind == service.TokenKindRefresh {
			return domainerrors.ErrTokenInvalid.WrapMessage("refresh token cannot be used for API access")
		}

		user, err := m.userRepo.FindByUsername(c.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUnauthorized.WrapMessage("token subject no longer exists")
			}

			return errors.Wrap(err, "failed to resolve token subject")
		}

		// The stored role is authoritative; scopes travel with the token.
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyRole, user.Role)
		c.Set(ContextKeyScopes, claims.Scopes)

		return next(c)
	}
}

// RequireScopes is a middleware factory that checks the authenticated token
// carries every listed scope. It must be used AFTER Authenticate.
func (m *AuthMiddleware) RequireScopes(required ...entity.Scope) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held, ok := c.Get(ContextKeyScopes).([]entity.Scope)
			if !ok {
				return domainerrors.ErrForbidden.WrapMessage("scope information missing")
			}

			for _, want := range required {
				if !containsScope(held, want) {
					return domainerrors.ErrForbidden.WrapMessage("missing required scope " + string(want))
				}
			}

			return next(c)
		}
	}
}

// RequireAdmin rejects callers whose resolved role is not admin. It must be
// used AFTER Authenticate. Non-admins receive a 401, not a 403.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get(ContextKeyRole).(entity.Role)
		if !ok || role != entity.RoleAdmin {
			return domainerrors.ErrUnauthorized.WrapMessage("administrator privileges required")
		}

		return next(c)
	}
}

// Username returns the authenticated principal's username from the context.
func Username(c echo.Context) (string, bool) {
	username, ok := c.Get(ContextKeyUsername).(string)

	return username, ok && username != ""
}

func containsScope(held []entity.Scope, want entity.Scope) bool {
	for _, scope := range held {
		if scope == want {
			return true
		}
	}

	return false
}
