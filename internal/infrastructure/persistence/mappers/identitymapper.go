package mappers

import (
	"github.com/mishbel44/ortp-botik/internal/domain/identity"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/models"
)

func UserToEntity(model *models.UserModel) *identity.User {
	if model == nil {
		return nil
	}
	return &identity.User{
		UserID:     model.UserID,
		Email:      model.Email,
		IsVerified: model.IsVerified,
	}
}

func ChallengeToEntity(model *models.ChallengeModel) *identity.Challenge {
	if model == nil {
		return nil
	}
	return &identity.Challenge{
		UserID:        model.UserID,
		Code:          model.Code,
		ExpiresAt:     model.ExpiresAt,
		LastRequestAt: model.LastRequestAt,
	}
}

func ChallengeToModel(entity *identity.Challenge) *models.ChallengeModel {
	if entity == nil {
		return nil
	}
	return &models.ChallengeModel{
		UserID:        entity.UserID,
		Code:          entity.Code,
		ExpiresAt:     entity.ExpiresAt,
		LastRequestAt: entity.LastRequestAt,
	}
}
