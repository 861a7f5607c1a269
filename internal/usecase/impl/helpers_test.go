package impl

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"accounts/config"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/auth"
	"accounts/internal/infra/crypto"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Token: config.TokenConfig{
			Secret:     "unit_test_signing_secret_0123456789",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
		Auth: &config.AuthConfig{BcryptCost: 4},
	}

	return cfg
}

// fakeStore is a shared in-memory backing for the repository fakes. It mirrors
// the real repositories' error mapping (Conflict on unique violations, the
// not-found sentinels) so services exercise the same paths as in production.
type fakeStore struct {
	users     map[uuid.UUID]*entity.User
	sensitive map[uuid.UUID]*entity.SensitiveData
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[uuid.UUID]*entity.User),
		sensitive: make(map[uuid.UUID]*entity.SensitiveData),
	}
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	user.SensitiveData = r.store.sensitive[id]

	return user, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.Username == username {
			user.SensitiveData = r.store.sensitive[user.ID]

			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.Username == username || user.Email == email {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]*entity.User, error) {
	users := make([]*entity.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })

	return users, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	for _, existing := range r.store.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return domainerrors.ErrConflict.WrapMessage("username or email already exists")
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.store.users[user.ID] = user

	if user.SensitiveData != nil {
		user.SensitiveData.UserID = user.ID
		r.store.sensitive[user.ID] = user.SensitiveData
	}

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	if _, ok := r.store.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, existing := range r.store.users {
		if existing.ID != user.ID && (existing.Username == user.Username || existing.Email == user.Email) {
			return domainerrors.ErrConflict.WrapMessage("username or email already exists")
		}
	}

	user.UpdatedAt = time.Now()
	r.store.users[user.ID] = user

	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.store.users, id)
	delete(r.store.sensitive, id)

	return nil
}

type fakeSensitiveRepo struct{ store *fakeStore }

func (r *fakeSensitiveRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.SensitiveData, error) {
	data, ok := r.store.sensitive[userID]
	if !ok {
		return nil, repository.ErrSensitiveDataNotFound
	}

	return data, nil
}

func (r *fakeSensitiveRepo) Save(_ context.Context, data *entity.SensitiveData) error {
	data.UpdatedAt = time.Now()
	r.store.sensitive[data.UserID] = data

	return nil
}

type fakeFactory struct{ store *fakeStore }

func (f *fakeFactory) UserRepo() repository.UserRepository {
	return &fakeUserRepo{store: f.store}
}

func (f *fakeFactory) SensitiveDataRepo() repository.SensitiveDataRepository {
	return &fakeSensitiveRepo{store: f.store}
}

// fakeTxManager runs the callback directly; atomicity is exercised against
// the real gorm implementation, not here.
type fakeTxManager struct{ store *fakeStore }

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(&fakeFactory{store: tm.store})
}

// serviceFixtures wires the real use-case services onto the in-memory store
// with real crypto, hashing and token implementations.
type serviceFixtures struct {
	store    *fakeStore
	users    usecase.UserUsecase
	profiles usecase.ProfileUsecase
	admin    usecase.AdminUsecase
}

func createTestServices(t *testing.T) *serviceFixtures {
	t.Helper()

	cfg := newTestConfig()
	store := newFakeStore()
	logger := newDiscardLogger()
	txManager := &fakeTxManager{store: store}
	userRepo := &fakeUserRepo{store: store}
	hasher := auth.NewBcryptHasher(cfg)
	envelope := crypto.NewEnvelope()

	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	return &serviceFixtures{
		store: store,
		users: NewUserService(UserServiceParams{
			TxManager:    txManager,
			UserRepo:     userRepo,
			Hasher:       hasher,
			TokenService: tokenService,
			Envelope:     envelope,
			Logger:       logger,
		}),
		profiles: NewProfileService(ProfileServiceParams{
			TxManager: txManager,
			UserRepo:  userRepo,
			Hasher:    hasher,
			Envelope:  envelope,
			Logger:    logger,
		}),
		admin: NewAdminService(AdminServiceParams{
			UserRepo: userRepo,
			Logger:   logger,
		}),
	}
}

func registerTestUser(t *testing.T, fx *serviceFixtures, username, bio string) *usecase.RegisterOutput {
	t.Helper()

	out, err := fx.users.Register(context.Background(), &usecase.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Pw123456",
		Bio:      bio,
	})
	require.NoError(t, err)

	return out
}
