// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	envelope     service.Envelope
	logger       *slog.Logger
}

// UserServiceParams holds dependencies for userService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Envelope     service.Envelope
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		envelope:     params.Envelope,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete account registration process: uniqueness
// check, password hashing, per-user key generation and encrypted storage of
// the optional bio, all committed in a single transaction.
func (srv *userService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("username", input.Username))

	// bcrypt is CPU-bound; hash before entering the transaction.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	// The key is generated exactly once here and never rotated.
	key, err := srv.envelope.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate encryption key")
	}

	encryptedBio := ""
	if input.Bio != "" {
		encryptedBio, err = srv.envelope.Encrypt(input.Bio, key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encrypt bio during registration")
		}
	}

	var registeredUser *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, findErr := userRepo.FindByUsernameOrEmail(ctx, input.Username, input.Email)
		if findErr == nil {
			return domainerrors.ErrConflict.WrapMessage("username or email already registered")
		}
		if !errors.Is(findErr, repository.ErrUserNotFound) {
			return errors.Wrap(findErr, "failed to check existing user")
		}

		newUser := &entity.User{
			Username:      input.Username,
			Email:         input.Email,
			PasswordHash:  hashedPassword,
			Role:          entity.RoleUser,
			EncryptionKey: key.Encode(),
			SensitiveData: &entity.SensitiveData{
				EncryptedBio: encryptedBio,
			},
		}

		// The unique constraints back the pre-condition check up for
		// concurrent registrations; the repository maps violations to Conflict.
		if createErr := userRepo.Create(ctx, newUser); createErr != nil {
			return errors.Wrap(createErr, "failed to create user during registration")
		}

		registeredUser = newUser

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("username", input.Username), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", registeredUser.ID))

	return &usecase.RegisterOutput{User: registeredUser, Bio: input.Bio}, nil
}

// Login authenticates the credentials and establishes a new session: a fresh
// token pair is issued and the refresh token's ciphertext overwrites any
// previously stored one, revoking it.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("username", input.Username))

	user, err := srv.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Unknown user and wrong password are indistinguishable to the caller.
			return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
		}

		return nil, errors.Wrap(err, "failed to load user during login")
	}

	// Check password outside the transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("username", input.Username))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
	}

	accessToken, refreshToken, err := srv.tokenService.IssuePair(user.Username, user.Role)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token pair")
	}

	if err := srv.storeRefreshToken(ctx, user, refreshToken); err != nil {
		srv.log(ctx).Error("Failed to store refresh token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to store refresh token during login")
	}

	srv.log(ctx).Debug("User logged in", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The stored
// ciphertext is the sole source of truth: the presented token must decrypt-
// compare equal to it, and a successful exchange overwrites it, so each
// refresh token is usable exactly once.
func (srv *userService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	srv.log(ctx).Debug("Attempting token refresh")

	claims, err := srv.tokenService.Verify(input.RefreshToken)
	if err != nil {
		return nil, domainerrors.ErrTokenInvalid.WrapMessage("refresh token verification failed")
	}
	if claims.Kind != service.TokenKindRefresh {
		return nil, domainerrors.ErrTokenInvalid.WrapMessage("access token presented for refresh")
	}

	var output *usecase.RefreshOutput
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		sensitiveRepo := repoFactory.SensitiveDataRepo()

		user, findErr := userRepo.FindByUsername(ctx, claims.Subject)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WrapMessage("refresh subject no longer exists")
			}

			return errors.Wrap(findErr, "failed to load user during refresh")
		}

		data, findErr := sensitiveRepo.FindByUserID(ctx, user.ID)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrSensitiveDataNotFound) {
				return domainerrors.ErrRefreshMismatch.WrapMessage("no refresh token on record")
			}

			return errors.Wrap(findErr, "failed to load sensitive data during refresh")
		}

		key, keyErr := service.ParseKey(user.EncryptionKey)
		if keyErr != nil {
			return errors.Wrap(keyErr, "failed to parse user encryption key")
		}

		stored, decErr := srv.envelope.Decrypt(data.EncryptedRefreshToken, key)
		if decErr != nil {
			// Undecryptable slot means the presented token cannot match.
			srv.log(ctx).Warn("Stored refresh token failed decryption", slog.Any("userID", user.ID))

			return domainerrors.ErrRefreshMismatch.WrapMessage("stored refresh token unreadable")
		}
		if stored == "" || strings.TrimSpace(stored) != strings.TrimSpace(input.RefreshToken) {
			return domainerrors.ErrRefreshMismatch.WrapMessage("presented token does not match stored token")
		}

		accessToken, refreshToken, issueErr := srv.tokenService.IssuePair(user.Username, user.Role)
		if issueErr != nil {
			return errors.Wrap(issueErr, "failed to issue rotated token pair")
		}

		encrypted, encErr := srv.envelope.Encrypt(refreshToken, key)
		if encErr != nil {
			return errors.Wrap(encErr, "failed to encrypt rotated refresh token")
		}

		data.EncryptedRefreshToken = encrypted
		if saveErr := sensitiveRepo.Save(ctx, data); saveErr != nil {
			return errors.Wrap(saveErr, "failed to persist rotated refresh token")
		}

		output = &usecase.RefreshOutput{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Token refresh failed", slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Token refresh completed", slog.String("username", claims.Subject))

	return output, nil
}

// storeRefreshToken encrypts the refresh token with the user's key and
// overwrites the stored slot, preserving the bio ciphertext.
func (srv *userService) storeRefreshToken(ctx context.Context, user *entity.User, refreshToken string) error {
	key, err := service.ParseKey(user.EncryptionKey)
	if err != nil {
		return errors.Wrap(err, "failed to parse user encryption key")
	}

	encrypted, err := srv.envelope.Encrypt(refreshToken, key)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt refresh token")
	}

	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		sensitiveRepo := repoFactory.SensitiveDataRepo()

		data, findErr := sensitiveRepo.FindByUserID(ctx, user.ID)
		if findErr != nil {
			if !errors.Is(findErr, repository.ErrSensitiveDataNotFound) {
				return errors.Wrap(findErr, "failed to load sensitive data")
			}
			data = &entity.SensitiveData{UserID: user.ID}
		}

		data.EncryptedRefreshToken = encrypted

		return sensitiveRepo.Save(ctx, data)
	})
}
