package usecase

import (
	"context"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// AdminUsecase defines the interface for administrative user management.
type AdminUsecase interface {
	// ListUsers returns all registered users ordered by creation time.
	ListUsers(ctx context.Context) ([]*entity.User, error)

	// DeleteUser removes a user and their sensitive-data record.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
