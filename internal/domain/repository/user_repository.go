// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByUsername retrieves a single user by their unique username.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByUsernameOrEmail retrieves a user matching either identifier.
	// Registration uses this as its single uniqueness pre-condition query.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)

	// List retrieves all users ordered by creation time.
	List(ctx context.Context) ([]*entity.User, error)

	// Create persists a new user entity, including its sensitive-data record.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes a user; the owned sensitive-data record cascades.
	Delete(ctx context.Context, id uuid.UUID) error
}
