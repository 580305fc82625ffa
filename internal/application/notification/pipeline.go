// Package notification turns incoming Jira webhook events into Telegram
// pushes and rows in the per-user notification log.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/mishbel44/ortp-botik/internal/domain/notification"
	"github.com/mishbel44/ortp-botik/internal/domain/ticket"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/jira"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

// Event is the normalized payload of one webhook delivery.
type Event struct {
	Type                 domain.EventType
	IssueKey             string
	StatusFrom           string
	StatusTo             string
	Initiator            string
	InitiatorDisplayName string
	Comment              string
	AssigneeFrom         string
	AssigneeTo           string
}

// Notifier delivers a push message to the user's chat.
type Notifier interface {
	NotifyUser(chatID int64, text string) error
}

type Pipeline struct {
	tickets       ticket.Repository
	notifications domain.Repository
	jira          jira.Client
	notifier      Notifier
	botIdentity   string
	sanitizer     *bluemonday.Policy
	logger        logger.Interface

	now func() time.Time
}

func NewPipeline(
	tickets ticket.Repository,
	notifications domain.Repository,
	jiraClient jira.Client,
	notifier Notifier,
	botIdentity string,
	log logger.Interface,
) *Pipeline {
	return &Pipeline{
		tickets:       tickets,
		notifications: notifications,
		jira:          jiraClient,
		notifier:      notifier,
		botIdentity:   botIdentity,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        log,
		now:           time.Now,
	}
}

// HandleEvent processes one webhook event. Events for unknown issues,
// duplicate status changes and the bot's own comments are dropped
// silently; only persistence failures are reported to the caller.
func (p *Pipeline) HandleEvent(ctx context.Context, ev *Event) error {
	if ev.IssueKey == "" || !ev.Type.IsValid() {
		p.logger.Infow("ignoring webhook event", "issue_key", ev.IssueKey, "event", ev.Type.String())
		return nil
	}

	tk, err := p.tickets.GetByIssueKey(ctx, ev.IssueKey)
	if err != nil {
		return err
	}
	if tk == nil {
		p.logger.Infow("webhook for untracked issue", "issue_key", ev.IssueKey)
		return nil
	}

	// Re-fetch the issue so a stale or forged payload cannot push state
	// the tracker does not confirm.
	details, err := p.jira.GetIssueDetails(ctx, ev.IssueKey)
	if err != nil {
		p.logger.Errorw("failed to confirm issue state", "issue_key", ev.IssueKey, "error", err)
		return nil
	}
	if details == nil {
		p.logger.Warnw("webhook for issue missing in tracker", "issue_key", ev.IssueKey)
		return nil
	}

	switch ev.Type {
	case domain.EventStatusChanged:
		return p.handleStatusChange(ctx, tk, ev)
	case domain.EventCommentAdded:
		return p.handleComment(ctx, tk, ev)
	case domain.EventAssigneeChanged:
		return p.handleAssigneeChange(ctx, tk, ev)
	}
	return nil
}

func (p *Pipeline) handleStatusChange(ctx context.Context, tk *ticket.Ticket, ev *Event) error {
	newStatus := ticket.Status(ev.StatusTo)
	// Value-based idempotency: a redelivered event carries a status the
	// registry already holds.
	if newStatus == tk.Status {
		p.logger.Infow("status unchanged, skipping", "issue_key", ev.IssueKey, "status", ev.StatusTo)
		return nil
	}

	text := fmt.Sprintf("🙋‍♀️ Статус вашей заявки 🔑%s изменился с '%s' на '%s'",
		ev.IssueKey, ticket.Status(ev.StatusFrom).Label(), newStatus.Label())

	if err := p.record(ctx, tk.UserID, ev.IssueKey, domain.EventStatusChanged, text); err != nil {
		return err
	}

	if err := p.tickets.UpdateStatus(ctx, ev.IssueKey, newStatus); err != nil {
		return err
	}

	p.logger.Infow("status change notification delivered",
		"issue_key", ev.IssueKey, "user_id", tk.UserID, "to", ev.StatusTo)
	return nil
}

func (p *Pipeline) handleComment(ctx context.Context, tk *ticket.Ticket, ev *Event) error {
	// Comments relayed by the bot itself would otherwise echo back to the
	// user who wrote them.
	if ev.Initiator == p.botIdentity {
		p.logger.Infow("skipping own comment", "issue_key", ev.IssueKey)
		return nil
	}

	author := ev.InitiatorDisplayName
	if author == "" {
		author = "Неизвестный"
	}
	comment := p.sanitizer.Sanitize(ev.Comment)

	text := fmt.Sprintf("💁‍♀️ Новый комментарий к вашей заявке 🔑%s от 👩‍💼 %s: %s. \n\nЕсли хотите ответить - перейдите в раздел \"Мои заявки\" и выберите заявку 🔑%s.",
		ev.IssueKey, author, comment, ev.IssueKey)

	if err := p.record(ctx, tk.UserID, ev.IssueKey, domain.EventCommentAdded, text); err != nil {
		return err
	}

	p.logger.Infow("comment notification delivered", "issue_key", ev.IssueKey, "user_id", tk.UserID)
	return nil
}

func (p *Pipeline) handleAssigneeChange(ctx context.Context, tk *ticket.Ticket, ev *Event) error {
	assignee := ev.AssigneeTo
	if assignee == "" {
		assignee = "Не назначен"
	}

	text := fmt.Sprintf("👩‍💼 Новый исполнитель вашей заявки 🔑%s - 🙋‍♀️ %s", ev.IssueKey, assignee)

	if err := p.record(ctx, tk.UserID, ev.IssueKey, domain.EventAssigneeChanged, text); err != nil {
		return err
	}

	p.logger.Infow("assignee notification delivered", "issue_key", ev.IssueKey, "user_id", tk.UserID)
	return nil
}

// record sends the push and appends the row to the bounded log. A failed
// push is logged but does not lose the row; the notifications tab stays
// the source of truth.
func (p *Pipeline) record(ctx context.Context, userID int64, issueKey string, eventType domain.EventType, text string) error {
	if err := p.notifier.NotifyUser(userID, text); err != nil {
		p.logger.Warnw("failed to push notification", "user_id", userID, "error", err)
	}

	n, err := domain.NewNotification(userID, issueKey, eventType, text)
	if err != nil {
		return err
	}
	n.Timestamp = p.now()
	return p.notifications.CreateAndPrune(ctx, n, domain.RetentionLimit)
}
