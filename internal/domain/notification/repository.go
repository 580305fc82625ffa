package notification

import "context"

// Repository persists the per-user notification log.
type Repository interface {
	// CreateAndPrune inserts the notification and deletes rows beyond the
	// keep newest for the same user, in one transaction. The prune must be
	// atomic with the insert so concurrent webhook bursts cannot grow the
	// log past the limit.
	CreateAndPrune(ctx context.Context, n *Notification, keep int) error
	// GetByID returns (nil, nil) when the notification does not exist.
	GetByID(ctx context.Context, id uint) (*Notification, error)
	MarkAsRead(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	CountByUser(ctx context.Context, userID int64) (int64, error)
	// ListByUser returns rows ordered by timestamp descending.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error)
}
