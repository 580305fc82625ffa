package conversation

import (
	"context"
	"time"

	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/goroutine"
)

func (h *Handler) showNotifList(ctx context.Context, chatID, messageID, userID int64, page int) error {
	listPage, err := h.notifications.ListPage(ctx, userID, page)
	if err != nil {
		return err
	}
	if listPage.Total == 0 {
		return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgNoNotifications, backToMainKeyboard())
	}
	return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgNotifHeader, notifListKeyboard(listPage, h.now()))
}

func (h *Handler) handleNotifOpen(ctx context.Context, cb *telegram.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	token, err := ParseNotifToken(cb.Data)
	if err != nil || token.Stale(h.now()) {
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgStaleAction, backToNotificationsKeyboard())
	}
	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)

	n, err := h.notifications.Open(ctx, cb.From.ID, token.ID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgNotifMissing, backToNotificationsKeyboard())
		}
		return err
	}

	deleteToken := NotifDeleteToken{ID: n.ID, Page: token.Page}
	return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgNotifDetail(n.MessageText), notifDetailKeyboard(deleteToken))
}

func (h *Handler) handleNotifDelete(ctx context.Context, cb *telegram.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	token, err := ParseNotifDeleteToken(cb.Data)
	if err != nil {
		return h.bot.AnswerCallbackQuery(cb.ID, msgStaleAction, true)
	}
	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)

	if err := h.notifications.Delete(ctx, cb.From.ID, token.ID); err != nil && !errors.IsNotFoundError(err) {
		return err
	}
	return h.showNotifList(ctx, chatID, messageID, cb.From.ID, token.Page)
}

// hideNotification collapses a pushed notification; the full text stays
// available in the notifications tab.
func (h *Handler) hideNotification(ctx context.Context, cb *telegram.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
	if err := h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgHiddenNotice, emptyKeyboard()); err != nil {
		return err
	}
	goroutine.SafeGo(h.logger, "hidden-notification-delete", func() {
		h.sleep(5 * time.Second)
		_ = h.bot.DeleteMessage(chatID, messageID)
	})
	return nil
}

// TelegramNotifier pushes notification texts to the user's chat with a
// hide button attached.
type TelegramNotifier struct {
	bot Messenger
}

func NewTelegramNotifier(bot Messenger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

func (n *TelegramNotifier) NotifyUser(chatID int64, text string) error {
	_, err := n.bot.SendMessageWithKeyboard(chatID, text, hideNotificationKeyboard())
	return err
}
