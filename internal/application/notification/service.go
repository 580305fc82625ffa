package notification

import (
	"context"

	domain "github.com/mishbel44/ortp-botik/internal/domain/notification"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/utils"
)

// ListPageSize is the number of notification buttons shown per page.
const ListPageSize = 8

// ListPage is one page of the user's notification log.
type ListPage struct {
	Items      []*domain.Notification
	Page       int
	TotalPages int
	Total      int64
}

// Service exposes the read side of the notification log.
type Service struct {
	notifications domain.Repository
}

func NewService(notifications domain.Repository) *Service {
	return &Service{notifications: notifications}
}

// ListPage returns the requested page, clamped into range.
func (s *Service) ListPage(ctx context.Context, userID int64, page int) (*ListPage, error) {
	total, err := s.notifications.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &ListPage{Page: 1, TotalPages: 0, Total: 0}, nil
	}

	totalPages := utils.TotalPages(total, ListPageSize)
	page = utils.ClampPage(page, totalPages)
	offset := utils.PageOffset(page, ListPageSize)

	items, err := s.notifications.ListByUser(ctx, userID, ListPageSize, offset)
	if err != nil {
		return nil, err
	}

	return &ListPage{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Open returns the notification and marks it read. Opening another
// user's notification is refused.
func (s *Service) Open(ctx context.Context, userID int64, id uint) (*domain.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil || n.UserID != userID {
		return nil, errors.NewNotFoundError("notification not found")
	}

	if !n.IsRead {
		if err := s.notifications.MarkAsRead(ctx, id); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

// Delete removes a notification from the user's log.
func (s *Service) Delete(ctx context.Context, userID int64, id uint) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil || n.UserID != userID {
		return errors.NewNotFoundError("notification not found")
	}
	return s.notifications.Delete(ctx, id)
}
