package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/goroutine"
)

const (
	msgCodeExpired      = "❌ Код устарел или неверен."
	msgCodeExpiredRetry = "❌ Код устарел или неверен. Запросите новый."
	msgCodeWrong        = "🙆‍♂️ Неверный код 🙆‍♀️\n\n"
	msgCodeWrongRetry   = "🙆‍♂️ Неверный код 🙆‍♀️\n\n Попробуйте ввести его снова, либо запросите новый."
)

// handleStart greets a verified user with the main menu and sends an
// unverified one into email verification.
func (h *Handler) handleStart(ctx context.Context, msg *telegram.Message) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	_ = h.bot.DeleteMessage(chatID, msg.MessageID)

	verified, err := h.verification.IsVerified(ctx, userID)
	if err != nil {
		return err
	}

	if verified {
		messageID, err := h.bot.SendMessageWithKeyboard(chatID, msgGreeting(msg.From.FirstName), mainMenuKeyboard())
		if err != nil {
			return err
		}
		return h.sessions.Save(ctx, &Session{UserID: userID, State: StateIdle, BotMessageID: messageID})
	}

	messageID, err := h.bot.SendMessage(chatID, msgEnterEmail)
	if err != nil {
		return err
	}
	return h.sessions.Save(ctx, &Session{UserID: userID, State: StateVerifyEmail, BotMessageID: messageID})
}

func (h *Handler) handleEmailInput(ctx context.Context, msg *telegram.Message, session *Session) error {
	chatID := msg.Chat.ID
	_ = h.bot.DeleteMessage(chatID, msg.MessageID)
	address := strings.TrimSpace(msg.Text)

	err := h.verification.RequestCode(ctx, msg.From.ID, address)
	switch {
	case err == nil:
		session.State = StateVerifyCode
		if err := h.sessions.Save(ctx, session); err != nil {
			return err
		}
		_ = h.bot.EditMessageWithInlineKeyboard(chatID, session.BotMessageID, msgCodeSent, cancelKeyboard())
		h.deferResendOffer(ctx, chatID, session.BotMessageID, msg.From.ID, msgCodeSent)
		return nil
	case errors.IsValidationError(err):
		_ = h.bot.EditMessageText(chatID, session.BotMessageID, msgEmailRejected)
		return nil
	case errors.IsConflictError(err):
		_ = h.bot.EditMessageText(chatID, session.BotMessageID, msgEmailTaken)
		return nil
	case errors.IsRateLimitedError(err):
		// A code was already mailed moments ago; move on to code entry.
		session.State = StateVerifyCode
		if err := h.sessions.Save(ctx, session); err != nil {
			return err
		}
		_ = h.bot.EditMessageWithInlineKeyboard(chatID, session.BotMessageID, msgResendCooldown, cancelKeyboard())
		h.deferResendOffer(ctx, chatID, session.BotMessageID, msg.From.ID, msgCodeSent)
		return nil
	default:
		h.logger.Errorw("failed to start verification", "user_id", msg.From.ID, "error", err)
		_ = h.bot.EditMessageText(chatID, session.BotMessageID, msgCodeSendFailed)
		return nil
	}
}

func (h *Handler) handleCodeInput(ctx context.Context, msg *telegram.Message, session *Session) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	_ = h.bot.DeleteMessage(chatID, msg.MessageID)

	err := h.verification.CheckCode(ctx, userID, strings.TrimSpace(msg.Text))
	switch {
	case err == nil:
		if err := h.showMainMenuKeepMessage(ctx, session); err != nil {
			return err
		}
		return h.bot.EditMessageWithInlineKeyboard(chatID, session.BotMessageID, msgRegistered(msg.From.FirstName), mainMenuKeyboard())
	case errors.IsStaleActionError(err), errors.IsNotFoundError(err):
		h.showCodeRetry(ctx, chatID, session.BotMessageID, userID, msgCodeExpired, msgCodeExpiredRetry)
		return nil
	case errors.IsValidationError(err):
		h.showCodeRetry(ctx, chatID, session.BotMessageID, userID, msgCodeWrong, msgCodeWrongRetry)
		return nil
	default:
		return err
	}
}

func (h *Handler) handleResendCode(ctx context.Context, cb *telegram.CallbackQuery, session *Session) error {
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	err := h.verification.Resend(ctx, userID)
	switch {
	case err == nil:
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		session.State = StateVerifyCode
		session.BotMessageID = cb.Message.MessageID
		if err := h.sessions.Save(ctx, session); err != nil {
			return err
		}
		_ = h.bot.EditMessageWithInlineKeyboard(chatID, session.BotMessageID, msgCodeResent, cancelKeyboard())
		h.deferResendOffer(ctx, chatID, session.BotMessageID, userID, msgCodeResent)
		return nil
	case errors.IsRateLimitedError(err):
		return h.bot.AnswerCallbackQuery(cb.ID, msgResendCooldown, true)
	case errors.IsNotFoundError(err):
		_ = h.bot.AnswerCallbackQuery(cb.ID, "", false)
		session.State = StateVerifyEmail
		session.BotMessageID = cb.Message.MessageID
		if err := h.sessions.Save(ctx, session); err != nil {
			return err
		}
		return h.bot.EditMessageText(chatID, session.BotMessageID, msgEnterEmail)
	default:
		h.logger.Errorw("failed to resend code", "user_id", userID, "error", err)
		return h.bot.AnswerCallbackQuery(cb.ID, msgGenericError(err), true)
	}
}

// showCodeRetry reports a failed code attempt. When the resend cooldown
// has elapsed the resend button appears right away; otherwise the
// message is downgraded once the cooldown runs out.
func (h *Handler) showCodeRetry(ctx context.Context, chatID, messageID, userID int64, immediate, withResend string) {
	remaining, err := h.verification.ResendAvailability(ctx, userID)
	if err == nil && remaining <= 0 {
		_ = h.bot.EditMessageWithInlineKeyboard(chatID, messageID, withResend, resendCodeKeyboard())
		return
	}
	_ = h.bot.EditMessageWithInlineKeyboard(chatID, messageID, immediate, cancelKeyboard())
	h.deferResendOfferText(chatID, messageID, userID, withResend, remaining)
}

// deferResendOffer re-offers the resend button on the code prompt once
// the cooldown elapses, unless the user verified in the meantime.
func (h *Handler) deferResendOffer(ctx context.Context, chatID, messageID, userID int64, text string) {
	remaining, err := h.verification.ResendAvailability(ctx, userID)
	if err != nil {
		h.logger.Warnw("failed to check resend availability", "user_id", userID, "error", err)
		return
	}
	h.deferResendOfferText(chatID, messageID, userID, text, remaining)
}

func (h *Handler) deferResendOfferText(chatID, messageID, userID int64, text string, after time.Duration) {
	goroutine.SafeGo(h.logger, "resend-offer", func() {
		if after > 0 {
			h.sleep(after)
		}
		ctx := context.Background()

		verified, err := h.verification.IsVerified(ctx, userID)
		if err != nil || verified {
			return
		}
		session, err := h.sessions.Get(ctx, userID)
		if err != nil || session.State != StateVerifyCode || session.BotMessageID != messageID {
			return
		}
		_ = h.bot.EditMessageWithInlineKeyboard(chatID, messageID, text, resendCodeKeyboard())
	})
}

// showMainMenuKeepMessage resets the session without touching the prompt
// message; the caller renders the follow-up itself.
func (h *Handler) showMainMenuKeepMessage(ctx context.Context, session *Session) error {
	*session = Session{UserID: session.UserID, State: StateIdle, BotMessageID: session.BotMessageID}
	return h.sessions.Save(ctx, session)
}
