package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"accounts/config"
	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/router/handler"
	"accounts/internal/delivery/http/validator"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/auth"
	"accounts/internal/infra/crypto"
	"accounts/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory persistence for route tests ---

type memStore struct {
	users     map[uuid.UUID]*entity.User
	sensitive map[uuid.UUID]*entity.SensitiveData
}

func domainErrConflict() error {
	return domainerrors.ErrConflict.WrapMessage("username or email already exists")
}

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	user.SensitiveData = r.store.sensitive[id]

	return user, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.Username == username {
			user.SensitiveData = r.store.sensitive[user.ID]

			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.Username == username || user.Email == email {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]*entity.User, error) {
	users := make([]*entity.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })

	return users, nil
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	for _, existing := range r.store.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return domainErrConflict()
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

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	if _, ok := r.store.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, existing := range r.store.users {
		if existing.ID != user.ID && (existing.Username == user.Username || existing.Email == user.Email) {
			return domainErrConflict()
		}
	}
	user.UpdatedAt = time.Now()
	r.store.users[user.ID] = user

	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.store.users, id)
	delete(r.store.sensitive, id)

	return nil
}

type memSensitiveRepo struct{ store *memStore }

func (r *memSensitiveRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.SensitiveData, error) {
	data, ok := r.store.sensitive[userID]
	if !ok {
		return nil, repository.ErrSensitiveDataNotFound
	}

	return data, nil
}

func (r *memSensitiveRepo) Save(_ context.Context, data *entity.SensitiveData) error {
	data.UpdatedAt = time.Now()
	r.store.sensitive[data.UserID] = data

	return nil
}

type memFactory struct{ store *memStore }

func (f *memFactory) UserRepo() repository.UserRepository { return &memUserRepo{store: f.store} }
func (f *memFactory) SensitiveDataRepo() repository.SensitiveDataRepository {
	return &memSensitiveRepo{store: f.store}
}

type memTxManager struct{ store *memStore }

func (tm *memTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(&memFactory{store: tm.store})
}

// --- test app assembly ---

type testApp struct {
	echo  *echo.Echo
	store *memStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Token: config.TokenConfig{
			Secret:     "route_test_signing_secret_0123456789",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
		Auth: &config.AuthConfig{BcryptCost: 4},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memStore{
		users:     make(map[uuid.UUID]*entity.User),
		sensitive: make(map[uuid.UUID]*entity.SensitiveData),
	}
	txManager := &memTxManager{store: store}
	userRepo := &memUserRepo{store: store}
	hasher := auth.NewBcryptHasher(cfg)
	envelope := crypto.NewEnvelope()

	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	userUsecase := impl.NewUserService(impl.UserServiceParams{
		TxManager:    txManager,
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokenService,
		Envelope:     envelope,
		Logger:       logger,
	})
	profileUsecase := impl.NewProfileService(impl.ProfileServiceParams{
		TxManager: txManager,
		UserRepo:  userRepo,
		Hasher:    hasher,
		Envelope:  envelope,
		Logger:    logger,
	})
	adminUsecase := impl.NewAdminService(impl.AdminServiceParams{
		UserRepo: userRepo,
		Logger:   logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError
	e.Use(middleware.NewLoggerMiddleware(logger).Handle)

	r := NewRouter(RouterParams{
		UserHandler:    handler.NewUserHandler(userUsecase, logger),
		ProfileHandler: handler.NewProfileHandler(profileUsecase, logger),
		AdminHandler:   handler.NewAdminHandler(adminUsecase, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(tokenService, userRepo),
	})
	r.RegisterRoutes(e)

	return &testApp{echo: e, store: store}
}

func (app *testApp) request(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error body, got %s", rec.Body.String())
	code, _ := errObj["code"].(string)

	return code
}

func registerAndLogin(t *testing.T, app *testApp, username string) (accessToken, refreshToken string) {
	t.Helper()

	rec := app.request(t, http.MethodPost, "/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Pw123456",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.request(t, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": "Pw123456",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)

	return body["access_token"].(string), body["refresh_token"].(string)
}

func promoteToAdmin(app *testApp, username string) {
	for _, user := range app.store.users {
		if user.Username == username {
			user.Role = entity.RoleAdmin
		}
	}
}

// --- scenarios ---

func TestRoutes_Health(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_Register(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Pw123456",
		"bio":      "likes books",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "likes books", body["bio"])
	assert.Equal(t, "user", body["role"])
	assert.NotEmpty(t, body["id"])

	// Secrets never leak into the response body.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "encryption")
}

func TestRoutes_Register_Conflict(t *testing.T) {
	app := newTestApp(t)
	registerAndLogin(t, app, "alice")

	rec := app.request(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "Pw123456",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec))

	rec = app.request(t, http.MethodPost, "/register", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "Pw123456",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRoutes_Register_Validation(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "Pw123456",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestRoutes_Login_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	registerAndLogin(t, app, "alice")

	rec := app.request(t, http.MethodPost, "/login", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_RefreshRotationAndReplay(t *testing.T) {
	app := newTestApp(t)
	_, refreshToken := registerAndLogin(t, app, "alice")

	rec := app.request(t, http.MethodPost, "/refresh", nil, refreshToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	rotated := body["refresh_token"].(string)
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEqual(t, refreshToken, rotated)

	// Replaying the consumed token is rejected.
	rec = app.request(t, http.MethodPost, "/refresh", nil, refreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The rotated token works exactly once more.
	rec = app.request(t, http.MethodPost, "/refresh", nil, rotated)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_Refresh_RejectsAccessToken(t *testing.T) {
	app := newTestApp(t)
	accessToken, _ := registerAndLogin(t, app, "alice")

	rec := app.request(t, http.MethodPost, "/refresh", nil, accessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_Profile(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Pw123456",
		"bio":      "hello",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	accessToken, _ := func() (string, string) {
		rec := app.request(t, http.MethodPost, "/login", map[string]string{
			"username": "alice",
			"password": "Pw123456",
		}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)

		return body["access_token"].(string), body["refresh_token"].(string)
	}()

	// Repeated reads return the same decrypted bio.
	for range 2 {
		rec = app.request(t, http.MethodGet, "/profile", nil, accessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "hello", decodeBody(t, rec)["bio"])
	}
}

func TestRoutes_Profile_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	_, refreshToken := registerAndLogin(t, app, "alice")

	// Missing, malformed and refresh-kind credentials are all rejected.
	rec := app.request(t, http.MethodGet, "/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request(t, http.MethodGet, "/profile", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request(t, http.MethodGet, "/profile", nil, refreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_PatchProfile(t *testing.T) {
	app := newTestApp(t)
	accessToken, _ := registerAndLogin(t, app, "alice")

	// An empty update is rejected.
	rec := app.request(t, http.MethodPatch, "/profile", map[string]string{}, accessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_CHANGE", errorCode(t, rec))

	rec = app.request(t, http.MethodPatch, "/profile", map[string]string{
		"bio": "updated bio",
	}, accessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "updated bio", decodeBody(t, rec)["bio"])

	rec = app.request(t, http.MethodGet, "/profile", nil, accessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "updated bio", decodeBody(t, rec)["bio"])
}

func TestRoutes_Admin_Forbidden(t *testing.T) {
	app := newTestApp(t)
	accessToken, _ := registerAndLogin(t, app, "alice")

	rec := app.request(t, http.MethodGet, "/admin/users", nil, accessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request(t, http.MethodGet, "/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_Admin_ListAndDelete(t *testing.T) {
	app := newTestApp(t)
	registerAndLogin(t, app, "alice")
	registerAndLogin(t, app, "root")
	promoteToAdmin(app, "root")

	// Log in again so the token carries the admin role.
	rec := app.request(t, http.MethodPost, "/login", map[string]string{
		"username": "root",
		"password": "Pw123456",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	adminToken := decodeBody(t, rec)["access_token"].(string)

	rec = app.request(t, http.MethodGet, "/admin/users", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)

	var aliceID string
	for _, user := range users {
		if user["username"] == "alice" {
			aliceID = user["id"].(string)
		}
	}
	require.NotEmpty(t, aliceID)

	rec = app.request(t, http.MethodDelete, "/admin/users/"+aliceID, nil, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting again, or with a malformed ID, reports not found.
	rec = app.request(t, http.MethodDelete, "/admin/users/"+aliceID, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request(t, http.MethodDelete, "/admin/users/not-a-uuid", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_Logout(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/logout", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
