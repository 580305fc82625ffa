package conversation

import (
	"context"
	"time"

	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
	sharedErrors "github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/goroutine"
)

func (h *Handler) showTicketList(ctx context.Context, chatID, messageID, userID int64, page int) error {
	listPage, err := h.tickets.ListPage(ctx, userID, page)
	if err != nil {
		return err
	}
	if listPage.Total == 0 {
		return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgNoTickets, backToMainKeyboard())
	}
	return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgTicketsHeader, ticketListKeyboard(listPage, h.now()))
}

// handleTaskOpen renders the detail card for a ticket button and arms
// the comment prompt.
func (h *Handler) handleTaskOpen(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	token, err := ParseTaskToken(cb.Data)
	if err != nil || token.Stale(h.now()) {
		return h.bot.AnswerCallbackQuery(cb.ID, msgStaleAction, true)
	}
	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)

	detail, err := h.tickets.Detail(ctx, token.IssueKey)
	if err != nil {
		h.logger.Errorw("failed to fetch issue details", "issue_key", token.IssueKey, "error", err)
		_ = h.bot.EditMessageText(chatID, messageID, msgGenericError(err))
		return nil
	}
	if detail == nil {
		// The issue disappeared from Jira; fall back to the list.
		_ = h.bot.EditMessageText(chatID, messageID, msgTaskMissing(token.IssueKey))
		goroutine.SafeGo(h.logger, "missing-task-fallback", func() {
			h.sleep(2 * time.Second)
			_ = h.showTicketList(context.Background(), chatID, messageID, userID, token.Page)
		})
		return nil
	}

	session.State = StateAddComment
	session.IssueKey = token.IssueKey
	session.TaskMessageID = messageID
	if err := h.sessions.Save(ctx, session); err != nil {
		return err
	}

	text := msgTaskDetail(token.IssueKey, detail.Details, detail.Comments, h.botDisplayName)
	return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, text, taskDetailKeyboard(token.Page))
}

// handleCommentInput posts the user's reply to Jira. Progress and the
// outcome are shown in a short-lived separate message; the detail card
// itself turns back into the main menu on success.
func (h *Handler) handleCommentInput(ctx context.Context, msg *telegram.Message, session *Session) error {
	chatID := msg.Chat.ID
	_ = h.bot.DeleteMessage(chatID, msg.MessageID)

	progressID, err := h.bot.SendMessage(chatID, msgProcessing)
	if err != nil {
		return err
	}

	err = h.tickets.AddComment(ctx, session.IssueKey, msg.Text)
	if err != nil {
		text := msgGenericError(err)
		if sharedErrors.IsForbiddenError(err) {
			text = msgCommentRefused(session.IssueKey)
		}
		_ = h.bot.EditMessageText(chatID, progressID, text)
		goroutine.SafeGo(h.logger, "comment-error-delete", func() {
			h.sleep(5 * time.Second)
			_ = h.bot.DeleteMessage(chatID, progressID)
		})
		return nil
	}

	_ = h.bot.EditMessageText(chatID, progressID, msgCommentAdded(session.IssueKey))
	goroutine.SafeGo(h.logger, "comment-success-delete", func() {
		h.sleep(3 * time.Second)
		_ = h.bot.DeleteMessage(chatID, progressID)
	})

	taskMessageID := session.TaskMessageID
	if err := h.showMainMenuKeepMessage(ctx, session); err != nil {
		return err
	}
	if taskMessageID != 0 {
		if err := h.bot.EditMessageWithInlineKeyboard(chatID, taskMessageID, msgMainMenu, mainMenuKeyboard()); err != nil {
			_, _ = h.bot.SendMessageWithKeyboard(chatID, msgMainMenu, mainMenuKeyboard())
		}
	}
	return nil
}
