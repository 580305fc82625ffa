package mappers

import (
	"github.com/mishbel44/ortp-botik/internal/domain/notification"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/models"
)

func NotificationToEntity(model *models.NotificationModel) *notification.Notification {
	if model == nil {
		return nil
	}
	return &notification.Notification{
		ID:          model.ID,
		UserID:      model.UserID,
		IssueKey:    model.IssueKey,
		EventType:   notification.EventType(model.EventType),
		MessageText: model.MessageText,
		Timestamp:   model.Timestamp,
		IsRead:      model.IsRead,
	}
}

func NotificationToModel(entity *notification.Notification) *models.NotificationModel {
	if entity == nil {
		return nil
	}
	return &models.NotificationModel{
		ID:          entity.ID,
		UserID:      entity.UserID,
		IssueKey:    entity.IssueKey,
		EventType:   entity.EventType.String(),
		MessageText: entity.MessageText,
		Timestamp:   entity.Timestamp,
		IsRead:      entity.IsRead,
	}
}

func NotificationsToEntities(modelList []*models.NotificationModel) []*notification.Notification {
	entities := make([]*notification.Notification, 0, len(modelList))
	for _, model := range modelList {
		entities = append(entities, NotificationToEntity(model))
	}
	return entities
}
