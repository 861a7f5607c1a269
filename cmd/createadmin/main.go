// Command createadmin bootstraps (or promotes) an administrator account
// directly against the database. It is meant for operators, not end users;
// the HTTP surface has no route that grants the admin role.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"accounts/config"
	"accounts/internal/domain/entity"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/auth"
	"accounts/internal/infra/crypto"
	logs "accounts/internal/infra/log"
	"accounts/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "admin@example.com", "admin email")
	password := flag.String("password", "", "admin password (required)")
	bio := flag.String("bio", "", "optional encrypted bio")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "createadmin: -password is required")
		os.Exit(2)
	}

	if err := run(*username, *email, *password, *bio); err != nil {
		fmt.Fprintf(os.Stderr, "createadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(username, email, password, bio string) error {
	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	logger, err := logs.New(logs.Params{Config: cfg})
	if err != nil {
		return errors.Wrap(err, "failed to build logger")
	}

	lc := &immediateLifecycle{ctx: ctx}
	db, err := postgres.New(postgres.Params{
		Lifecycle: lc,
		Config:    cfg,
		Logger:    logger,
	})
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	if err := lc.start(); err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	defer lc.stop()

	hasher := auth.NewBcryptHasher(cfg)
	envelope := crypto.NewEnvelope()
	txManager := postgres.NewTransactionManager(db)

	hashedPassword, err := hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	return txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		existing, findErr := userRepo.FindByUsernameOrEmail(ctx, username, email)
		if findErr == nil {
			// Promote in place; the password is reset to the supplied one.
			existing.Role = entity.RoleAdmin
			existing.PasswordHash = hashedPassword
			if updateErr := userRepo.Update(ctx, existing); updateErr != nil {
				return errors.Wrap(updateErr, "failed to promote existing user")
			}
			logger.Info("Promoted existing user to admin", slog.String("username", existing.Username))

			return nil
		}
		if !errors.Is(findErr, repository.ErrUserNotFound) {
			return errors.Wrap(findErr, "failed to check existing user")
		}

		key, keyErr := envelope.GenerateKey()
		if keyErr != nil {
			return errors.Wrap(keyErr, "failed to generate encryption key")
		}

		encryptedBio := ""
		if bio != "" {
			encryptedBio, keyErr = envelope.Encrypt(bio, key)
			if keyErr != nil {
				return errors.Wrap(keyErr, "failed to encrypt bio")
			}
		}

		admin := &entity.User{
			Username:      username,
			Email:         email,
			PasswordHash:  hashedPassword,
			Role:          entity.RoleAdmin,
			EncryptionKey: key.Encode(),
			SensitiveData: &entity.SensitiveData{EncryptedBio: encryptedBio},
		}
		if createErr := userRepo.Create(ctx, admin); createErr != nil {
			return errors.Wrap(createErr, "failed to create admin user")
		}
		logger.Info("Created admin user", slog.String("username", username))

		return nil
	})
}

// immediateLifecycle satisfies fx.Lifecycle for one-shot CLI use: hooks run
// synchronously instead of under an fx app.
type immediateLifecycle struct {
	ctx   context.Context
	hooks []fx.Hook
}

func (l *immediateLifecycle) Append(hook fx.Hook) {
	l.hooks = append(l.hooks, hook)
}

func (l *immediateLifecycle) start() error {
	for _, hook := range l.hooks {
		if hook.OnStart == nil {
			continue
		}
		if err := hook.OnStart(l.ctx); err != nil {
			return err
		}
	}

	return nil
}

func (l *immediateLifecycle) stop() {
	for i := len(l.hooks) - 1; i >= 0; i-- {
		if l.hooks[i].OnStop != nil {
			_ = l.hooks[i].OnStop(l.ctx)
		}
	}
}
