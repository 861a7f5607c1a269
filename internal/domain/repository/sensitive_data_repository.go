// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrSensitiveDataNotFound is returned when a user has no sensitive-data record.
var ErrSensitiveDataNotFound = errors.New("sensitive data not found")

// SensitiveDataRepository manages the per-user encrypted-field record.
// The row is the single shared resource of the rotation protocol; writers
// must run inside a TransactionManager.Execute scope.
type SensitiveDataRepository interface {
	// FindByUserID retrieves the sensitive-data record for a user.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.SensitiveData, error)

	// Save overwrites the user's sensitive-data record, creating it if absent.
	Save(ctx context.Context, data *entity.SensitiveData) error
}
