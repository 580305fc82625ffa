package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mishbel44/ortp-botik/internal/domain/notification"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/mappers"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/models"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
)

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &NotificationRepositoryImpl{db: db}
}

// CreateAndPrune inserts the row and trims the user's log to the keep
// newest rows in the same transaction. The prune uses a derived table
// because MySQL refuses a subquery on the table being deleted from.
func (r *NotificationRepositoryImpl) CreateAndPrune(ctx context.Context, n *notification.Notification, keep int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := mappers.NotificationToModel(n)

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		n.ID = model.ID

		err := tx.Exec(`
			DELETE FROM notifications
			WHERE user_id = ?
			  AND id NOT IN (
				SELECT id FROM (
					SELECT id FROM notifications
					WHERE user_id = ?
					ORDER BY timestamp DESC, id DESC
					LIMIT ?
				) AS keep_rows
			)`, n.UserID, n.UserID, keep).Error
		if err != nil {
			return fmt.Errorf("failed to prune notifications: %w", err)
		}

		return nil
	})
}

func (r *NotificationRepositoryImpl) GetByID(ctx context.Context, id uint) (*notification.Notification, error) {
	var model models.NotificationModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification by ID: %w", err)
	}

	return mappers.NotificationToEntity(&model), nil
}

func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("notification not found")
	}

	return nil
}

func (r *NotificationRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.NotificationModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("notification not found")
	}

	return nil
}

func (r *NotificationRepositoryImpl) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var total int64

	err := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	return total, nil
}

func (r *NotificationRepositoryImpl) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*notification.Notification, error) {
	var modelList []*models.NotificationModel

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return mappers.NotificationsToEntities(modelList), nil
}
