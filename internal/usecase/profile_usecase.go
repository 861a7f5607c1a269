package usecase

import (
	"context"

	"accounts/internal/domain/entity"
)

// UpdateProfileInput defines the optional fields of a partial profile update.
// A nil field means "leave unchanged"; at least one field must be set.
type UpdateProfileInput struct {
	Email    *string
	Password *string
	Bio      *string
}

// HasChanges reports whether any field was supplied.
func (input *UpdateProfileInput) HasChanges() bool {
	return input.Email != nil || input.Password != nil || input.Bio != nil
}

// ProfileOutput returns a user's profile with the bio already decrypted.
type ProfileOutput struct {
	User *entity.User
	Bio  string
}

// ProfileUsecase defines the interface for profile read and update operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, username string) (*ProfileOutput, error)
	UpdateProfile(ctx context.Context, username string, input *UpdateProfileInput) (*ProfileOutput, error)
}
