package conversation

import (
	"fmt"
	"time"

	appNotification "github.com/mishbel44/ortp-botik/internal/application/notification"
	appTicket "github.com/mishbel44/ortp-botik/internal/application/ticket"
	domainNotification "github.com/mishbel44/ortp-botik/internal/domain/notification"
	"github.com/mishbel44/ortp-botik/internal/domain/ticket"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/jira"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
	"github.com/mishbel44/ortp-botik/internal/shared/utils"
)

const (
	msgMainMenu        = "💆‍♂️  Главное меню  💆‍♀️"
	msgEnterEmail      = "👨‍💼 Введите свою корпоративную почту 👩‍💼\n\n👉 @pari.ru"
	msgEmailRejected   = "🙆‍♂️ Почта не подходит 🙆‍♀️\n\nВведите корпоративную почту \n👉 @pari.ru"
	msgEmailTaken      = "🙆‍♂️ Эта почта уже используется другим пользователем🙆‍♀️\n\nУкажите другую 👇🏾"
	msgCodeSent        = "📩 Код отправлен на почту. Введите его:"
	msgCodeResent      = "📩 Код отправлен заново. Введите его:"
	msgCodeSendFailed  = "❌ Ошибка отправки кода. Попробуйте снова:"
	msgResendCooldown  = "❌ Вы сможете запросить код повторно через минуту."
	msgNotRegistered   = "Вы не зарегистрированы. Используйте /start."
	msgEnterTitle      = "👩‍🏫 Введите тему заявки:"
	msgEnterDescription = "👩‍🎨 Введите описание заявки. \n\nЕсли нужно прикрепить медиафайл - преобразуйте его в ссылку: сервисы для <a href='https://ru.imgbb.com/'>фото</a> и <a href='https://wdfiles.ru/'>видео</a>"
	msgChoosePriority  = "🧖🏾‍♀ Выберите приоритет:"
	msgTextOnly        = "Введите запрашиваемую информацию текстом"
	msgProcessing      = "⏳ Обработка..."
	msgNoTickets       = "🙅‍♂️ У вас нет активных заявок 🙅‍♀️"
	msgTicketsHeader   = "💁‍♀️ Ваши заявки:"
	msgStaleAction     = "❌ Это действие больше не актуально"
	msgNoNotifications = "🙅‍♂️ У вас нет уведомлений 🙅‍♀️"
	msgNotifHeader     = "🤳 Список уведомлений:"
	msgNotifMissing    = "❌ Уведомление не найдено или было удалено"
	msgHiddenNotice    = "📳 Сообщение скрыто и будет доступно во вкладке \"Уведомления\""

	msgStatusLegend = "🔵 - К выполнению\n🟡 - В работе\n🟠 - Тестируется\n🔴 - Отменена\n⚪ - Приостановлена\n🟢 - Выполнена\n⚫ - В ожидании"
)

// priorityLabels maps the emoji shown on priority buttons to the Jira
// priority name behind it.
var priorityLabels = map[string]string{
	"Low":    "🛌",
	"Medium": "🚶‍♀️",
	"High":   "🏃‍♀️",
}

func msgGreeting(firstName string) string {
	return fmt.Sprintf("🙋‍♂️ Привет, %s! 🙋‍♀️\n\nВыбери действие из меню ниже:", firstName)
}

func msgRegistered(firstName string) string {
	return fmt.Sprintf("✅ Регистрация пройдена успешно!\n\n🙋‍♂️ Привет, %s! 🙋‍♀️\nВыбери действие из меню ниже:", firstName)
}

func msgTicketCreated(issueKey string) string {
	return fmt.Sprintf("✅ Заявка успешно создана!\n🔑 Ключ: <code>%s</code>\n📊 Статус: Можете отслеживать в разделе 'Мои заявки'", issueKey)
}

func msgTaskMissing(issueKey string) string {
	return fmt.Sprintf("❌ Задача %s не найдена в Jira", issueKey)
}

func msgCommentAdded(issueKey string) string {
	return fmt.Sprintf("✅ Комментарий добавлен к задаче %s", issueKey)
}

func msgCommentRefused(issueKey string) string {
	return fmt.Sprintf("❌ Задача %s в статусе 'Выполнена'. Комментарий не может быть добавлен.", issueKey)
}

func msgGenericError(err error) string {
	return fmt.Sprintf("❌ Ошибка: %s", err.Error())
}

func msgNotifDetail(text string) string {
	return fmt.Sprintf("🧏‍♀️ Уведомление:\n\n%s", text)
}

// msgTaskDetail renders the detail card for a ticket with its last comment.
func msgTaskDetail(issueKey string, details *jira.IssueDetails, comments []jira.Comment, botDisplayName string) string {
	commentLine := "💬 Последний комментарий: <b>Нет комментариев</b>\n\n"
	if len(comments) > 0 {
		last := comments[len(comments)-1]
		author := last.Author
		if author == botDisplayName {
			author = "Вас"
		}
		commentLine = fmt.Sprintf("💬 Последний комментарий от <b>%s</b>: <b>%s</b>\n\n", author, last.Body)
	}

	return fmt.Sprintf(
		"🔑 Ключ задачи: <code>%s</code>\n"+
			"📝 Тема: <b>%s</b>\n"+
			"📋 Описание: <b>%s</b>\n"+
			"👤 Исполнитель: <b>%s</b>\n"+
			"📊 Статус: <b>%s</b>\n"+
			"%s"+
			"🗣 Оставьте комментарий к задаче:",
		issueKey,
		details.Summary,
		details.Description,
		details.Assignee,
		ticket.Status(details.Status).Label(),
		commentLine,
	)
}

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("Создать заявку", "create_request")),
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("Мои заявки", "my_requests")),
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("Уведомления", "notifications")),
	)
}

func cancelKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", "cancel")),
	)
}

func backToTitleKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", "back_to_title")),
	)
}

func backToDescriptionKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", "back_to_description")),
	)
}

func backToMainKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", "back")),
	)
}

func backToNotificationsKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️ Назад к уведомлениям", "notifications")),
	)
}

func hideNotificationKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("Скрыть", "hide_notification")),
	)
}

func resendCodeKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("Отправить код заново", "resend_code")),
	)
}

func emptyKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{}}
}

func priorityKeyboard(priorities []jira.Priority, now time.Time) *telegram.InlineKeyboardMarkup {
	row := make([]telegram.InlineKeyboardButton, 0, len(priorities))
	for _, p := range priorities {
		label, ok := priorityLabels[p.Name]
		if !ok {
			label = p.Name
		}
		row = append(row, telegram.NewInlineKeyboardButton(label, NewPriorityToken(p.ID, now).Encode()))
	}
	return telegram.NewInlineKeyboard(
		row,
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", "back_to_description")),
	)
}

func ticketButtonLabel(t *ticket.Ticket) string {
	return fmt.Sprintf("%s %s | %s | %s",
		t.Status.Glyph(), t.IssueKey, utils.TruncateTitle(t.Title, 20), t.CreatedAt.Format("02.01"))
}

// ticketListKeyboard renders one page of ticket buttons plus pagination
// and, on the first page, the glyph legend button.
func ticketListKeyboard(page *appTicket.ListPage, now time.Time) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(page.Items)+2)
	for _, t := range page.Items {
		rows = append(rows, telegram.NewInlineKeyboardRow(
			telegram.NewInlineKeyboardButton(ticketButtonLabel(t), NewTaskToken(t.IssueKey, page.Page, now).Encode()),
		))
	}

	if page.Total > appTicket.ListPageSize {
		rows = append(rows, paginationRow(page.Page, page.TotalPages, "request_page_"))
	}

	if page.Page == 1 {
		rows = append(rows, telegram.NewInlineKeyboardRow(
			telegram.NewInlineKeyboardButton("💡", "info_button"),
			telegram.NewInlineKeyboardButton("↩️", "back"),
		))
	} else {
		rows = append(rows, telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", "back")))
	}

	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func notifButtonLabel(n *domainNotification.Notification) string {
	prefix := ""
	if !n.IsRead {
		prefix = "🔘 "
	}
	return fmt.Sprintf("%s%s %s %s", prefix, n.IssueKey, n.EventType.Label(), n.Timestamp.Format("02.01 15:04"))
}

func notifListKeyboard(page *appNotification.ListPage, now time.Time) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(page.Items)+2)
	for _, n := range page.Items {
		rows = append(rows, telegram.NewInlineKeyboardRow(
			telegram.NewInlineKeyboardButton(notifButtonLabel(n), NewNotifToken(n.ID, page.Page, now).Encode()),
		))
	}

	if page.Total > appNotification.ListPageSize {
		rows = append(rows, paginationRow(page.Page, page.TotalPages, "notif_page_"))
	}

	rows = append(rows, telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", "back")))
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func notifDetailKeyboard(token NotifDeleteToken) *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("🗑️", token.Encode())),
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", fmt.Sprintf("notif_page_%d", token.Page))),
	)
}

func taskDetailKeyboard(page int) *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.NewInlineKeyboardRow(telegram.NewInlineKeyboardButton("↩️", fmt.Sprintf("request_page_%d", page))),
	)
}

func paginationRow(page, totalPages int, prefix string) []telegram.InlineKeyboardButton {
	var row []telegram.InlineKeyboardButton
	if page > 1 {
		row = append(row, telegram.NewInlineKeyboardButton("👈", fmt.Sprintf("%s%d", prefix, page-1)))
	}
	row = append(row, telegram.NewInlineKeyboardButton(fmt.Sprintf("📖 %d/%d", page, totalPages), fmt.Sprintf("%s%d", prefix, page)))
	if page < totalPages {
		row = append(row, telegram.NewInlineKeyboardButton("👉", fmt.Sprintf("%s%d", prefix, page+1)))
	}
	return row
}
