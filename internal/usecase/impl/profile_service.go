package impl

import (
	"context"
	"log/slog"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// profileService implements the ProfileUsecase interface.
type profileService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	envelope  service.Envelope
	logger    *slog.Logger
}

// ProfileServiceParams holds dependencies for profileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Envelope  service.Envelope
	Logger    *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	return &profileService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		envelope:  params.Envelope,
		logger:    params.Logger,
	}
}

func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetProfile returns the user's profile with the bio decrypted. A bio that
// fails decryption degrades to an empty string rather than failing the read;
// the event is logged because it indicates key or data corruption.
func (srv *profileService) GetProfile(ctx context.Context, username string) (*usecase.ProfileOutput, error) {
	user, err := srv.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("profile owner not found")
		}

		return nil, errors.Wrap(err, "failed to load user profile")
	}

	return &usecase.ProfileOutput{
		User: user,
		Bio:  srv.decryptBio(ctx, user),
	}, nil
}

// UpdateProfile applies a partial update. Supplying no fields is rejected
// with NoChange; an email collision with another account maps to Conflict
// via the unique constraint.
func (srv *profileService) UpdateProfile(ctx context.Context, username string, input *usecase.UpdateProfileInput) (*usecase.ProfileOutput, error) {
	if !input.HasChanges() {
		return nil, domainerrors.ErrNoChange.WrapMessage("update request carried no fields")
	}

	// Hash outside the transaction; bcrypt is CPU-bound.
	hashedPassword := ""
	if input.Password != nil {
		var err error
		hashedPassword, err = srv.hasher.Hash(*input.Password)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash updated password")
		}
	}

	var updatedUser *entity.User
	var updatedBio string
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		sensitiveRepo := repoFactory.SensitiveDataRepo()

		user, findErr := userRepo.FindByUsername(ctx, username)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WrapMessage("profile owner not found")
			}

			return errors.Wrap(findErr, "failed to load user for update")
		}

		if input.Email != nil {
			user.Email = *input.Email
		}
		if input.Password != nil {
			user.PasswordHash = hashedPassword
		}

		if updateErr := userRepo.Update(ctx, user); updateErr != nil {
			return errors.Wrap(updateErr, "failed to update user")
		}

		if input.Bio != nil {
			key, keyErr := service.ParseKey(user.EncryptionKey)
			if keyErr != nil {
				return errors.Wrap(keyErr, "failed to parse user encryption key")
			}

			encryptedBio := ""
			if *input.Bio != "" {
				var encErr error
				encryptedBio, encErr = srv.envelope.Encrypt(*input.Bio, key)
				if encErr != nil {
					return errors.Wrap(encErr, "failed to encrypt updated bio")
				}
			}

			data, dataErr := sensitiveRepo.FindByUserID(ctx, user.ID)
			if dataErr != nil {
				if !errors.Is(dataErr, repository.ErrSensitiveDataNotFound) {
					return errors.Wrap(dataErr, "failed to load sensitive data for update")
				}
				data = &entity.SensitiveData{UserID: user.ID}
			}

			data.EncryptedBio = encryptedBio
			if saveErr := sensitiveRepo.Save(ctx, data); saveErr != nil {
				return errors.Wrap(saveErr, "failed to persist updated bio")
			}
			user.SensitiveData = data
			updatedBio = *input.Bio
		} else {
			updatedBio = srv.decryptBio(ctx, user)
		}

		updatedUser = user

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Profile update failed", slog.String("username", username), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Profile updated", slog.Any("userID", updatedUser.ID))

	return &usecase.ProfileOutput{User: updatedUser, Bio: updatedBio}, nil
}

// decryptBio resolves the plaintext bio for a loaded user, degrading to ""
// when the record is absent or the ciphertext fails authentication.
func (srv *profileService) decryptBio(ctx context.Context, user *entity.User) string {
	if user.SensitiveData == nil || user.SensitiveData.EncryptedBio == "" {
		return ""
	}

	key, err := service.ParseKey(user.EncryptionKey)
	if err != nil {
		srv.log(ctx).Warn("Invalid encryption key on record", slog.Any("userID", user.ID))

		return ""
	}

	bio, err := srv.envelope.Decrypt(user.SensitiveData.EncryptedBio, key)
	if err != nil {
		srv.log(ctx).Warn("Bio failed decryption", slog.Any("userID", user.ID))

		return ""
	}

	return bio
}
