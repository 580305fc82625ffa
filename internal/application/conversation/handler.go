package conversation

import (
	"context"
	"strings"
	"time"

	appNotification "github.com/mishbel44/ortp-botik/internal/application/notification"
	appTicket "github.com/mishbel44/ortp-botik/internal/application/ticket"
	"github.com/mishbel44/ortp-botik/internal/application/verification"
	"github.com/mishbel44/ortp-botik/internal/domain/identity"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
	"github.com/mishbel44/ortp-botik/internal/shared/goroutine"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

// Messenger is the slice of the bot API the dialogue needs.
type Messenger interface {
	SendMessage(chatID int64, text string) (int64, error)
	SendMessageWithKeyboard(chatID int64, text string, keyboard any) (int64, error)
	EditMessageText(chatID int64, messageID int64, text string) error
	EditMessageWithInlineKeyboard(chatID int64, messageID int64, text string, keyboard any) error
	DeleteMessage(chatID int64, messageID int64) error
	AnswerCallbackQuery(callbackQueryID string, text string, showAlert bool) error
}

// Handler routes incoming updates through the per-user dialogue state
// machine. The bot keeps a single prompt message per user and edits it
// in place; user inputs are deleted after processing so the chat stays
// a two-line conversation.
type Handler struct {
	sessions      Store
	users         identity.UserRepository
	verification  *verification.Service
	tickets       *appTicket.Service
	notifications *appNotification.Service
	bot           Messenger
	logger        logger.Interface

	// botDisplayName is how Jira renders comments the bot itself posted.
	botDisplayName string

	now   func() time.Time
	sleep func(d time.Duration)
}

func NewHandler(
	sessions Store,
	users identity.UserRepository,
	verificationSvc *verification.Service,
	ticketSvc *appTicket.Service,
	notificationSvc *appNotification.Service,
	bot Messenger,
	botDisplayName string,
	log logger.Interface,
) *Handler {
	return &Handler{
		sessions:       sessions,
		users:          users,
		verification:   verificationSvc,
		tickets:        ticketSvc,
		notifications:  notificationSvc,
		bot:            bot,
		botDisplayName: botDisplayName,
		logger:         log,
		now:            time.Now,
		sleep:          time.Sleep,
	}
}

// HandleUpdate implements telegram.UpdateHandler. A failed update drops
// the user's session so the dialogue never stays wedged in a state the
// bot can no longer serve; the next /start restarts cleanly.
func (h *Handler) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	err := h.dispatch(ctx, update)
	if err != nil {
		if userID := updateUserID(update); userID != 0 {
			if delErr := h.sessions.Delete(ctx, userID); delErr != nil {
				h.logger.Errorw("failed to clear session after error", "user_id", userID, "error", delErr)
			} else {
				h.logger.Warnw("session cleared after failed update", "user_id", userID, "error", err)
			}
		}
	}
	return err
}

func (h *Handler) dispatch(ctx context.Context, update *telegram.Update) error {
	switch {
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		return h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	return nil
}

func updateUserID(update *telegram.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

func (h *Handler) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.From.IsBot {
		return nil
	}
	if strings.HasPrefix(msg.Text, "/start") {
		return h.handleStart(ctx, msg)
	}

	session, err := h.sessions.Get(ctx, msg.From.ID)
	if err != nil {
		return err
	}

	switch session.State {
	case StateVerifyEmail, StateVerifyCode, StateCreateTitle, StateCreateDescription, StateAddComment:
		if msg.Text == "" {
			_ = h.bot.DeleteMessage(msg.Chat.ID, msg.MessageID)
			h.transient(msg.Chat.ID, msgTextOnly, 3*time.Second)
			return nil
		}
	}

	switch session.State {
	case StateVerifyEmail:
		return h.handleEmailInput(ctx, msg, session)
	case StateVerifyCode:
		return h.handleCodeInput(ctx, msg, session)
	case StateCreateTitle:
		return h.handleTitleInput(ctx, msg, session)
	case StateCreateDescription:
		return h.handleDescriptionInput(ctx, msg, session)
	case StateAddComment:
		return h.handleCommentInput(ctx, msg, session)
	default:
		// Stray input outside any flow.
		_ = h.bot.DeleteMessage(msg.Chat.ID, msg.MessageID)
		return nil
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	if cb.Message == nil || cb.Message.Chat == nil {
		return h.bot.AnswerCallbackQuery(cb.ID, "", false)
	}

	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	session, err := h.sessions.Get(ctx, userID)
	if err != nil {
		return err
	}

	switch cb.Data {
	case "resend_code":
		return h.handleResendCode(ctx, cb, session)
	case "cancel":
		return h.handleCancel(ctx, cb, session)
	}

	verified, err := h.verification.IsVerified(ctx, userID)
	if err != nil {
		return err
	}
	if !verified {
		return h.bot.AnswerCallbackQuery(cb.ID, msgNotRegistered, true)
	}

	switch {
	case cb.Data == "back":
		return h.handleBack(ctx, cb, session)
	case cb.Data == "create_request":
		return h.startCreateFlow(ctx, cb, session)
	case cb.Data == "back_to_title":
		return h.promptTitle(ctx, cb, session)
	case cb.Data == "back_to_description":
		return h.promptDescription(ctx, cb, session)
	case cb.Data == "my_requests", cb.Data == "back_to_requests":
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		return h.showTicketList(ctx, chatID, messageID, userID, 1)
	case cb.Data == "info_button":
		return h.bot.AnswerCallbackQuery(cb.ID, msgStatusLegend, true)
	case cb.Data == "notifications":
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		return h.showNotifList(ctx, chatID, messageID, userID, 1)
	case cb.Data == "hide_notification":
		return h.hideNotification(ctx, cb)
	case strings.HasPrefix(cb.Data, "request_page_"):
		page, err := parsePageSuffix(cb.Data, "request_page_")
		if err != nil {
			return h.bot.AnswerCallbackQuery(cb.ID, msgStaleAction, true)
		}
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		return h.showTicketList(ctx, chatID, messageID, userID, page)
	case strings.HasPrefix(cb.Data, "notif_page_"):
		page, err := parsePageSuffix(cb.Data, "notif_page_")
		if err != nil {
			return h.bot.AnswerCallbackQuery(cb.ID, msgStaleAction, true)
		}
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		return h.showNotifList(ctx, chatID, messageID, userID, page)
	case strings.HasPrefix(cb.Data, "notif_delete_"):
		return h.handleNotifDelete(ctx, cb)
	case strings.HasPrefix(cb.Data, "notif_"):
		return h.handleNotifOpen(ctx, cb)
	case strings.HasPrefix(cb.Data, "task_"):
		return h.handleTaskOpen(ctx, cb, session)
	case strings.HasPrefix(cb.Data, "priority_"):
		return h.handlePrioritySelection(ctx, cb, session)
	default:
		h.logger.Warnw("unknown callback", "data", cb.Data, "user_id", userID)
		return h.bot.AnswerCallbackQuery(cb.ID, "", false)
	}
}

func (h *Handler) handleBack(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	switch BackTarget(session.State) {
	case StateCreateTitle:
		return h.promptTitle(ctx, cb, session)
	case StateCreateDescription:
		return h.promptDescription(ctx, cb, session)
	default:
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		return h.showMainMenu(ctx, cb.Message.Chat.ID, cb.Message.MessageID, session)
	}
}

func (h *Handler) handleCancel(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
	if CancelTarget(session.State) == StateVerifyEmail {
		session.State = StateVerifyEmail
		session.BotMessageID = cb.Message.MessageID
		if err := h.sessions.Save(ctx, session); err != nil {
			return err
		}
		return h.bot.EditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, msgEnterEmail)
	}
	return h.showMainMenu(ctx, cb.Message.Chat.ID, cb.Message.MessageID, session)
}

// showMainMenu resets the session and turns the prompt message into the
// main menu.
func (h *Handler) showMainMenu(ctx context.Context, chatID, messageID int64, session *Session) error {
	*session = Session{UserID: session.UserID, State: StateIdle, BotMessageID: messageID}
	if err := h.sessions.Save(ctx, session); err != nil {
		return err
	}
	return h.bot.EditMessageWithInlineKeyboard(chatID, messageID, msgMainMenu, mainMenuKeyboard())
}

// transient sends a short-lived service message and removes it after the
// given delay.
func (h *Handler) transient(chatID int64, text string, after time.Duration) {
	messageID, err := h.bot.SendMessage(chatID, text)
	if err != nil {
		h.logger.Warnw("failed to send transient message", "chat_id", chatID, "error", err)
		return
	}
	goroutine.SafeGo(h.logger, "transient-delete", func() {
		h.sleep(after)
		_ = h.bot.DeleteMessage(chatID, messageID)
	})
}
