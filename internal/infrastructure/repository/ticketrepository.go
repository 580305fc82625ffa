package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mishbel44/ortp-botik/internal/domain/ticket"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/mappers"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/models"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
)

type TicketRepositoryImpl struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) ticket.Repository {
	return &TicketRepositoryImpl{db: db}
}

func (r *TicketRepositoryImpl) Save(ctx context.Context, t *ticket.Ticket) error {
	model := mappers.TicketToModel(t)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "issue_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "title", "status"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}

	return nil
}

func (r *TicketRepositoryImpl) GetByIssueKey(ctx context.Context, issueKey string) (*ticket.Ticket, error) {
	var model models.TicketModel

	if err := r.db.WithContext(ctx).Where("issue_key = ?", issueKey).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket by issue key: %w", err)
	}

	return mappers.TicketToEntity(&model), nil
}

func (r *TicketRepositoryImpl) UpdateStatus(ctx context.Context, issueKey string, status ticket.Status) error {
	result := r.db.WithContext(ctx).Model(&models.TicketModel{}).
		Where("issue_key = ?", issueKey).
		Update("status", status.String())
	if result.Error != nil {
		return fmt.Errorf("failed to update ticket status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("ticket not found")
	}

	return nil
}

// activeScope keeps non-done tickets forever and done tickets only while
// they are newer than the cutoff.
func activeScope(db *gorm.DB, userID int64, doneCutoff time.Time) *gorm.DB {
	return db.Model(&models.TicketModel{}).
		Where("user_id = ? AND (status <> ? OR created_at >= ?)", userID, ticket.StatusDone.String(), doneCutoff)
}

func (r *TicketRepositoryImpl) CountActive(ctx context.Context, userID int64, doneCutoff time.Time) (int64, error) {
	var total int64

	if err := activeScope(r.db.WithContext(ctx), userID, doneCutoff).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	return total, nil
}

func (r *TicketRepositoryImpl) ListActive(ctx context.Context, userID int64, doneCutoff time.Time, limit, offset int) ([]*ticket.Ticket, error) {
	var modelList []*models.TicketModel

	query := activeScope(r.db.WithContext(ctx), userID, doneCutoff).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return mappers.TicketsToEntities(modelList), nil
}
