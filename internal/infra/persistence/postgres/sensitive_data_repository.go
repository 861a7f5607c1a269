package postgres

import (
	"context"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sensitiveDataRepository implements the domain.SensitiveDataRepository interface using GORM.
type sensitiveDataRepository struct {
	db *gorm.DB
}

// NewSensitiveDataRepository is the constructor for sensitiveDataRepository.
func NewSensitiveDataRepository(db *gorm.DB) repository.SensitiveDataRepository {
	return &sensitiveDataRepository{db: db}
}

// FindByUserID retrieves the sensitive-data record for a user.
func (repo *sensitiveDataRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.SensitiveData, error) {
	var dataM model.SensitiveDataModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&dataM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSensitiveDataNotFound
		}

		return nil, errors.Wrap(err, "failed to find sensitive data")
	}

	return toSensitiveDataDomain(&dataM), nil
}

// Save overwrites the user's sensitive-data record, creating it if absent.
// Implemented as an upsert keyed on user_id so callers never have to know
// whether the record exists yet.
func (repo *sensitiveDataRepository) Save(ctx context.Context, data *entity.SensitiveData) error {
	dataM := fromSensitiveDataDomain(data)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"encrypted_bio", "encrypted_refresh_token", "updated_at"}),
		}).
		Create(dataM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("sensitive data owner does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to save sensitive data")
	}

	data.UpdatedAt = dataM.UpdatedAt

	return nil
}
