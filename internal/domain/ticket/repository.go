package ticket

import (
	"context"
	"time"
)

// Repository persists the per-user mirror of Jira issues.
type Repository interface {
	// Save upserts the registry row by issue key.
	Save(ctx context.Context, t *Ticket) error
	// GetByIssueKey returns (nil, nil) when the issue is unknown.
	GetByIssueKey(ctx context.Context, issueKey string) (*Ticket, error)
	UpdateStatus(ctx context.Context, issueKey string, status Status) error
	// CountActive counts rows matching the listing filter:
	// status != Done OR created after the cutoff.
	CountActive(ctx context.Context, userID int64, doneCutoff time.Time) (int64, error)
	// ListActive returns the filtered rows ordered by created_at
	// descending, windowed by limit/offset.
	ListActive(ctx context.Context, userID int64, doneCutoff time.Time, limit, offset int) ([]*Ticket, error)
}
