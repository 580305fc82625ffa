package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
)

func (h *Handler) startCreateFlow(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	session.Title = ""
	session.Description = ""
	return h.promptTitle(ctx, cb, session)
}

func (h *Handler) promptTitle(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
	session.State = StateCreateTitle
	session.BotMessageID = cb.Message.MessageID
	if err := h.sessions.Save(ctx, session); err != nil {
		return err
	}
	return h.bot.EditMessageWithInlineKeyboard(cb.Message.Chat.ID, cb.Message.MessageID, msgEnterTitle, cancelKeyboard())
}

func (h *Handler) promptDescription(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
	session.State = StateCreateDescription
	session.BotMessageID = cb.Message.MessageID
	if err := h.sessions.Save(ctx, session); err != nil {
		return err
	}
	return h.bot.EditMessageWithInlineKeyboard(cb.Message.Chat.ID, cb.Message.MessageID, msgEnterDescription, backToTitleKeyboard())
}

func (h *Handler) handleTitleInput(ctx context.Context, msg *telegram.Message, session *Session) error {
	chatID := msg.Chat.ID
	_ = h.bot.DeleteMessage(chatID, msg.MessageID)

	session.Title = msg.Text
	session.State = StateCreateDescription
	if err := h.sessions.Save(ctx, session); err != nil {
		return err
	}
	return h.bot.EditMessageWithInlineKeyboard(chatID, session.BotMessageID, msgEnterDescription, backToTitleKeyboard())
}

func (h *Handler) handleDescriptionInput(ctx context.Context, msg *telegram.Message, session *Session) error {
	chatID := msg.Chat.ID
	_ = h.bot.DeleteMessage(chatID, msg.MessageID)

	session.Description = msg.Text
	session.State = StateCreatePriority
	if err := h.sessions.Save(ctx, session); err != nil {
		return err
	}

	priorities, err := h.tickets.Priorities(ctx)
	if err != nil {
		h.logger.Errorw("failed to fetch priorities", "user_id", msg.From.ID, "error", err)
		_ = h.bot.EditMessageWithInlineKeyboard(chatID, session.BotMessageID, msgGenericError(err), backToDescriptionKeyboard())
		return nil
	}
	return h.bot.EditMessageWithInlineKeyboard(chatID, session.BotMessageID, msgChoosePriority, priorityKeyboard(priorities, h.now()))
}

func (h *Handler) handlePrioritySelection(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	token, err := ParsePriorityToken(cb.Data)
	if err != nil || token.Stale(h.now()) || session.State != StateCreatePriority {
		return h.bot.AnswerCallbackQuery(cb.ID, msgStaleAction, true)
	}
	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
	_ = h.bot.EditMessageText(chatID, messageID, msgProcessing)

	description := session.Description
	if user, err := h.users.GetByUserID(ctx, cb.From.ID); err == nil && user != nil {
		description = fmt.Sprintf("%s\n\nЗаявка от %s", description, user.Email)
	}

	issueKey, err := h.tickets.Create(ctx, cb.From.ID, session.Title, description, token.PriorityID)
	if err != nil && issueKey == "" {
		h.logger.Errorw("failed to create issue", "user_id", cb.From.ID, "error", err)
		if menuErr := h.showMainMenuKeepMessage(ctx, session); menuErr != nil {
			return menuErr
		}
		_ = h.bot.EditMessageText(chatID, messageID, msgGenericError(err))
		return nil
	}

	if err := h.showMainMenuKeepMessage(ctx, session); err != nil {
		return err
	}
	h.transient(chatID, msgTicketCreated(issueKey), 3*time.Second)
	return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgMainMenu, mainMenuKeyboard())
}
