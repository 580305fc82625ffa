// Package ticket wires the Jira client and the local registry into the
// operations the bot exposes: creating issues, listing them page by page
// and commenting on them.
package ticket

import (
	"context"
	"time"

	"github.com/mishbel44/ortp-botik/internal/domain/ticket"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/jira"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
	"github.com/mishbel44/ortp-botik/internal/shared/utils"
)

const (
	// ListPageSize is the number of ticket buttons shown per page.
	ListPageSize = 5
	// maxListed caps how many tickets the list ever exposes.
	maxListed = 30
	// doneRetentionMonths is how long finished tickets stay listed.
	doneRetentionMonths = 3
)

// ListPage is one page of the user's ticket list.
type ListPage struct {
	Items      []*ticket.Ticket
	Page       int
	TotalPages int
	Total      int64
}

// Detail carries everything the detail view renders.
type Detail struct {
	IssueKey string
	Details  *jira.IssueDetails
	Comments []jira.Comment
}

type Service struct {
	tickets ticket.Repository
	jira    jira.Client
	logger  logger.Interface

	now func() time.Time
}

func NewService(tickets ticket.Repository, jiraClient jira.Client, log logger.Interface) *Service {
	return &Service{
		tickets: tickets,
		jira:    jiraClient,
		logger:  log,
		now:     time.Now,
	}
}

// Create files the issue in Jira and mirrors it into the registry.
func (s *Service) Create(ctx context.Context, userID int64, title, description, priorityID string) (string, error) {
	issueKey, err := s.jira.CreateIssue(ctx, title, description, priorityID)
	if err != nil {
		return "", err
	}

	entity, err := ticket.NewTicket(issueKey, userID, title)
	if err != nil {
		return "", err
	}
	if err := s.tickets.Save(ctx, entity); err != nil {
		// The issue exists in Jira already; surface the error but keep the key.
		s.logger.Errorw("failed to mirror created issue", "issue_key", issueKey, "error", err)
		return issueKey, err
	}

	s.logger.Infow("issue created", "issue_key", issueKey, "user_id", userID)
	return issueKey, nil
}

// ListPage returns the requested page of the user's tickets. Out-of-range
// pages are clamped rather than rejected, so a stale pagination button
// still lands on a valid page.
func (s *Service) ListPage(ctx context.Context, userID int64, page int) (*ListPage, error) {
	cutoff := s.now().AddDate(0, -doneRetentionMonths, 0)

	total, err := s.tickets.CountActive(ctx, userID, cutoff)
	if err != nil {
		return nil, err
	}
	if total > maxListed {
		total = maxListed
	}
	if total == 0 {
		return &ListPage{Page: 1, TotalPages: 0, Total: 0}, nil
	}

	totalPages := utils.TotalPages(total, ListPageSize)
	page = utils.ClampPage(page, totalPages)
	offset := utils.PageOffset(page, ListPageSize)

	limit := ListPageSize
	if offset+limit > maxListed {
		limit = maxListed - offset
	}

	items, err := s.tickets.ListActive(ctx, userID, cutoff, limit, offset)
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

// Detail fetches the live issue state from Jira together with its
// comments. Returns (nil, nil) when the issue no longer exists.
func (s *Service) Detail(ctx context.Context, issueKey string) (*Detail, error) {
	details, err := s.jira.GetIssueDetails(ctx, issueKey)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, nil
	}

	comments, err := s.jira.GetIssueComments(ctx, issueKey)
	if err != nil {
		s.logger.Warnw("failed to fetch comments", "issue_key", issueKey, "error", err)
		comments = nil
	}

	return &Detail{
		IssueKey: issueKey,
		Details:  details,
		Comments: comments,
	}, nil
}

// AddComment posts the comment to Jira on behalf of the user.
func (s *Service) AddComment(ctx context.Context, issueKey, body string) error {
	return s.jira.AddComment(ctx, issueKey, body)
}

// Priorities returns the priorities selectable in the create flow.
func (s *Service) Priorities(ctx context.Context) ([]jira.Priority, error) {
	return s.jira.GetPriorities(ctx)
}
