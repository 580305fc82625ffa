package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mishbel44/ortp-botik/internal/domain/identity"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/mappers"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/models"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
)

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) identity.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) GetByUserID(ctx context.Context, userID int64) (*identity.User, error) {
	var model models.UserModel

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by user ID: %w", err)
	}

	return mappers.UserToEntity(&model), nil
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	var model models.UserModel

	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mappers.UserToEntity(&model), nil
}

// UpsertEmailClaim records an unverified claim on the email. A re-claim by
// the same user resets is_verified so an old binding cannot survive an
// email change.
func (r *UserRepositoryImpl) UpsertEmailClaim(ctx context.Context, userID int64, email string) error {
	model := &models.UserModel{
		UserID: userID,
		Email:  email,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"email": email, "is_verified": false}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert email claim: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) MarkVerified(ctx context.Context, userID int64) error {
	result := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("user_id = ?", userID).
		Update("is_verified", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark user verified: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("user not found")
	}

	return nil
}

type ChallengeRepositoryImpl struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) identity.ChallengeRepository {
	return &ChallengeRepositoryImpl{db: db}
}

func (r *ChallengeRepositoryImpl) Upsert(ctx context.Context, challenge *identity.Challenge) error {
	model := mappers.ChallengeToModel(challenge)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "last_request_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert verification code: %w", err)
	}

	return nil
}

func (r *ChallengeRepositoryImpl) Get(ctx context.Context, userID int64) (*identity.Challenge, error) {
	var model models.ChallengeModel

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return mappers.ChallengeToEntity(&model), nil
}
