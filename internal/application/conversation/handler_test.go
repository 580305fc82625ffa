package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appNotification "github.com/mishbel44/ortp-botik/internal/application/notification"
	appTicket "github.com/mishbel44/ortp-botik/internal/application/ticket"
	"github.com/mishbel44/ortp-botik/internal/application/verification"
	"github.com/mishbel44/ortp-botik/internal/domain/identity"
	domainNotification "github.com/mishbel44/ortp-botik/internal/domain/notification"
	"github.com/mishbel44/ortp-botik/internal/domain/ticket"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/jira"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

type botCall struct {
	method    string
	chatID    int64
	messageID int64
	text      string
	keyboard  any
	alert     bool
}

type mockMessenger struct {
	mu     sync.Mutex
	calls  []botCall
	nextID int64
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{nextID: 100}
}

func (m *mockMessenger) record(c botCall) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

func (m *mockMessenger) SendMessage(chatID int64, text string) (int64, error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.calls = append(m.calls, botCall{method: "send", chatID: chatID, messageID: id, text: text})
	m.mu.Unlock()
	return id, nil
}

func (m *mockMessenger) SendMessageWithKeyboard(chatID int64, text string, keyboard any) (int64, error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.calls = append(m.calls, botCall{method: "send", chatID: chatID, messageID: id, text: text, keyboard: keyboard})
	m.mu.Unlock()
	return id, nil
}

func (m *mockMessenger) EditMessageText(chatID int64, messageID int64, text string) error {
	m.record(botCall{method: "edit", chatID: chatID, messageID: messageID, text: text})
	return nil
}

func (m *mockMessenger) EditMessageWithInlineKeyboard(chatID int64, messageID int64, text string, keyboard any) error {
	m.record(botCall{method: "edit", chatID: chatID, messageID: messageID, text: text, keyboard: keyboard})
	return nil
}

func (m *mockMessenger) DeleteMessage(chatID int64, messageID int64) error {
	m.record(botCall{method: "delete", chatID: chatID, messageID: messageID})
	return nil
}

func (m *mockMessenger) AnswerCallbackQuery(callbackQueryID string, text string, showAlert bool) error {
	m.record(botCall{method: "answer", text: text, alert: showAlert})
	return nil
}

func (m *mockMessenger) lastByMethod(method string) *botCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].method == method {
			c := m.calls[i]
			return &c
		}
	}
	return nil
}

func (m *mockMessenger) hasCallbackButton(data string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		kb, ok := c.keyboard.(*telegram.InlineKeyboardMarkup)
		if !ok {
			continue
		}
		for _, row := range kb.InlineKeyboard {
			for _, button := range row {
				if button.CallbackData == data {
					return true
				}
			}
		}
	}
	return false
}

func (m *mockMessenger) textsByMethod(method string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var texts []string
	for _, c := range m.calls {
		if c.method == method {
			texts = append(texts, c.text)
		}
	}
	return texts
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]*identity.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]*identity.User)}
}

func (f *fakeUsers) GetByUserID(ctx context.Context, userID int64) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) UpsertEmailClaim(ctx context.Context, userID int64, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID] = &identity.User{UserID: userID, Email: email}
	return nil
}

func (f *fakeUsers) MarkVerified(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.IsVerified = true
	}
	return nil
}

type fakeChallenges struct {
	mu         sync.Mutex
	challenges map[int64]*identity.Challenge
	getErr     error
}

func newFakeChallenges() *fakeChallenges {
	return &fakeChallenges{challenges: make(map[int64]*identity.Challenge)}
}

func (f *fakeChallenges) Upsert(ctx context.Context, challenge *identity.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *challenge
	f.challenges[challenge.UserID] = &copied
	return nil
}

func (f *fakeChallenges) Get(ctx context.Context, userID int64) (*identity.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.challenges[userID]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendVerificationCode(to, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, code)
	return nil
}

func (f *fakeSender) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeTickets struct {
	mu      sync.Mutex
	tickets []*ticket.Ticket
}

func (f *fakeTickets) Save(ctx context.Context, t *ticket.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.tickets {
		if existing.IssueKey == t.IssueKey {
			f.tickets[i] = t
			return nil
		}
	}
	f.tickets = append(f.tickets, t)
	return nil
}

func (f *fakeTickets) GetByIssueKey(ctx context.Context, issueKey string) (*ticket.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.IssueKey == issueKey {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTickets) UpdateStatus(ctx context.Context, issueKey string, status ticket.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.IssueKey == issueKey {
			t.Status = status
		}
	}
	return nil
}

func (f *fakeTickets) active(userID int64, doneCutoff time.Time) []*ticket.Ticket {
	var out []*ticket.Ticket
	for _, t := range f.tickets {
		if t.UserID != userID {
			continue
		}
		if t.Status == ticket.StatusDone && t.CreatedAt.Before(doneCutoff) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeTickets) CountActive(ctx context.Context, userID int64, doneCutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.active(userID, doneCutoff))), nil
}

func (f *fakeTickets) ListActive(ctx context.Context, userID int64, doneCutoff time.Time, limit, offset int) ([]*ticket.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.active(userID, doneCutoff)
	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

type fakeJiraClient struct {
	mu         sync.Mutex
	priorities []jira.Priority
	details    map[string]*jira.IssueDetails
	comments   map[string][]jira.Comment
	nextIssue  int
	created    []string
}

func newFakeJiraClient() *fakeJiraClient {
	return &fakeJiraClient{
		priorities: []jira.Priority{{ID: "1", Name: "High"}, {ID: "2", Name: "Medium"}, {ID: "3", Name: "Low"}},
		details:    make(map[string]*jira.IssueDetails),
		comments:   make(map[string][]jira.Comment),
	}
}

func (f *fakeJiraClient) GetPriorities(ctx context.Context) ([]jira.Priority, error) {
	return f.priorities, nil
}

func (f *fakeJiraClient) CreateIssue(ctx context.Context, summary, description, priorityID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIssue++
	key := fmt.Sprintf("ORTP-%d", f.nextIssue)
	f.created = append(f.created, key)
	f.details[key] = &jira.IssueDetails{Summary: summary, Description: description, Status: "To Do", Assignee: "Не назначен"}
	return key, nil
}

func (f *fakeJiraClient) GetIssueDetails(ctx context.Context, issueKey string) (*jira.IssueDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details[issueKey], nil
}

func (f *fakeJiraClient) GetIssueComments(ctx context.Context, issueKey string) ([]jira.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[issueKey], nil
}

func (f *fakeJiraClient) AddComment(ctx context.Context, issueKey, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[issueKey] = append(f.comments[issueKey], jira.Comment{Author: "ORTP Bot", Body: body})
	return nil
}

func (f *fakeJiraClient) RegisterWebhook(ctx context.Context, webhookURL, secret string) error {
	return nil
}

type fakeNotifs struct {
	mu     sync.Mutex
	nextID uint
	items  []*domainNotification.Notification
}

func (f *fakeNotifs) CreateAndPrune(ctx context.Context, n *domainNotification.Notification, keep int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = f.nextID
	copied := *n
	f.items = append(f.items, &copied)
	return nil
}

func (f *fakeNotifs) GetByID(ctx context.Context, id uint) (*domainNotification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeNotifs) MarkAsRead(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifs) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeNotifs) CountByUser(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.items {
		if n.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifs) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domainNotification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*domainNotification.Notification
	for _, n := range f.items {
		if n.UserID == userID {
			copied := *n
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

type fixture struct {
	handler    *Handler
	bot        *mockMessenger
	sessions   *MemoryStore
	users      *fakeUsers
	challenges *fakeChallenges
	sender     *fakeSender
	tickets    *fakeTickets
	jira       *fakeJiraClient
	notifs     *fakeNotifs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bot := newMockMessenger()
	sessions := NewMemoryStore()
	users := newFakeUsers()
	challenges := newFakeChallenges()
	sender := &fakeSender{}
	tickets := &fakeTickets{}
	jiraClient := newFakeJiraClient()
	notifs := &fakeNotifs{}
	log := logger.NewLogger()

	verificationSvc, err := verification.NewService(
		users, challenges, sender,
		`^[a-zA-Z0-9_.+-]+@pari\.ru$`,
		10*time.Minute, 60*time.Second, log,
	)
	require.NoError(t, err)

	handler := NewHandler(
		sessions, users, verificationSvc,
		appTicket.NewService(tickets, jiraClient, log),
		appNotification.NewService(notifs),
		bot, "ORTP Bot", log,
	)
	// Deferred edits and deletions never fire during a test run.
	handler.sleep = func(time.Duration) { select {} }

	return &fixture{
		handler:    handler,
		bot:        bot,
		sessions:   sessions,
		users:      users,
		challenges: challenges,
		sender:     sender,
		tickets:    tickets,
		jira:       jiraClient,
		notifs:     notifs,
	}
}

func (f *fixture) verifyUser(t *testing.T, userID int64, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.users.UpsertEmailClaim(ctx, userID, email))
	require.NoError(t, f.users.MarkVerified(ctx, userID))
}

func (f *fixture) session(t *testing.T, userID int64) *Session {
	t.Helper()
	session, err := f.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return session
}

func textUpdate(userID, messageID int64, text string) *telegram.Update {
	return &telegram.Update{
		Message: &telegram.Message{
			MessageID: messageID,
			From:      &telegram.User{ID: userID, FirstName: "Иван"},
			Chat:      &telegram.Chat{ID: userID, Type: "private"},
			Text:      text,
		},
	}
}

func callbackUpdate(userID, messageID int64, data string) *telegram.Update {
	return &telegram.Update{
		CallbackQuery: &telegram.CallbackQuery{
			ID:   "cb-1",
			From: &telegram.User{ID: userID, FirstName: "Иван"},
			Message: &telegram.Message{
				MessageID: messageID,
				Chat:      &telegram.Chat{ID: userID, Type: "private"},
			},
			Data: data,
		},
	}
}

func TestStartUnverifiedPromptsEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 1, "/start")))

	sent := f.bot.lastByMethod("send")
	require.NotNil(t, sent)
	assert.Equal(t, msgEnterEmail, sent.text)

	session := f.session(t, 100)
	assert.Equal(t, StateVerifyEmail, session.State)
	assert.Equal(t, sent.messageID, session.BotMessageID)
}

func TestStartVerifiedShowsMenu(t *testing.T) {
	f := newFixture(t)
	f.verifyUser(t, 100, "ivanov@pari.ru")

	require.NoError(t, f.handler.HandleUpdate(context.Background(), textUpdate(100, 1, "/start")))

	sent := f.bot.lastByMethod("send")
	require.NotNil(t, sent)
	assert.Contains(t, sent.text, "Привет, Иван")
	assert.NotNil(t, sent.keyboard)
	assert.Equal(t, StateIdle, f.session(t, 100).State)
}

func TestEmailInputSendsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@pari.ru")))

	assert.NotEmpty(t, f.sender.lastCode())
	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Equal(t, msgCodeSent, edit.text)
	assert.Equal(t, int64(1), edit.messageID)
	assert.Equal(t, StateVerifyCode, f.session(t, 100).State)
}

func TestEmailInputRejectsForeignDomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@gmail.com")))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Equal(t, msgEmailRejected, edit.text)
	assert.Equal(t, StateVerifyEmail, f.session(t, 100).State)
	assert.Empty(t, f.sender.sent)
}

func TestEmailInputRejectsTakenAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifyUser(t, 200, "ivanov@pari.ru")
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@pari.ru")))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Equal(t, msgEmailTaken, edit.text)
}

func TestCodeInputVerifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))
	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@pari.ru")))

	code := f.sender.lastCode()
	require.NotEmpty(t, code)
	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 3, code)))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Contains(t, edit.text, "Регистрация пройдена успешно")

	user, err := f.users.GetByUserID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsVerified)
	assert.Equal(t, StateIdle, f.session(t, 100).State)
}

func TestCodeInputWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))
	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@pari.ru")))

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 3, "000000")))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Equal(t, msgCodeWrong, edit.text)
	assert.Equal(t, StateVerifyCode, f.session(t, 100).State)
}

func TestHandlerErrorClearsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))
	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@pari.ru")))
	require.Equal(t, StateVerifyCode, f.session(t, 100).State)

	f.challenges.mu.Lock()
	f.challenges.getErr = fmt.Errorf("storage is down")
	f.challenges.mu.Unlock()

	err := f.handler.HandleUpdate(ctx, textUpdate(100, 3, "123456"))
	require.Error(t, err)
	// The failed flow is dropped so the next /start begins cleanly.
	assert.Equal(t, StateIdle, f.session(t, 100).State)
}

func TestResendOfferAppearsAfterCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	release := make(chan struct{})
	f.handler.sleep = func(time.Duration) { <-release }

	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))
	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@pari.ru")))

	assert.False(t, f.bot.hasCallbackButton("resend_code"))

	close(release)
	require.Eventually(t, func() bool {
		return f.bot.hasCallbackButton("resend_code")
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateVerifyCode, f.session(t, 100).State)
}

func TestResendOfferSuppressedAfterVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	release := make(chan struct{})
	slept := make(chan struct{}, 1)
	f.handler.sleep = func(time.Duration) {
		slept <- struct{}{}
		<-release
	}

	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))
	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "ivanov@pari.ru")))
	<-slept

	code := f.sender.lastCode()
	require.NotEmpty(t, code)
	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 3, code)))

	close(release)
	time.Sleep(100 * time.Millisecond)
	assert.False(t, f.bot.hasCallbackButton("resend_code"))
	assert.Equal(t, StateIdle, f.session(t, 100).State)
}

func TestCallbackRequiresVerification(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.handler.HandleUpdate(context.Background(), callbackUpdate(100, 1, "my_requests")))

	answer := f.bot.lastByMethod("answer")
	require.NotNil(t, answer)
	assert.Equal(t, msgNotRegistered, answer.text)
	assert.True(t, answer.alert)
}

func TestTicketListEmpty(t *testing.T) {
	f := newFixture(t)
	f.verifyUser(t, 100, "ivanov@pari.ru")

	require.NoError(t, f.handler.HandleUpdate(context.Background(), callbackUpdate(100, 1, "my_requests")))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Equal(t, msgNoTickets, edit.text)
}

func TestTicketListShowsButtons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifyUser(t, 100, "ivanov@pari.ru")
	for i := 1; i <= 7; i++ {
		require.NoError(t, f.tickets.Save(ctx, &ticket.Ticket{
			IssueKey:  fmt.Sprintf("ORTP-%d", i),
			UserID:    100,
			Title:     "Сломался принтер",
			Status:    ticket.StatusToDo,
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		}))
	}

	require.NoError(t, f.handler.HandleUpdate(ctx, callbackUpdate(100, 1, "my_requests")))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Equal(t, msgTicketsHeader, edit.text)

	kb, ok := edit.keyboard.(*telegram.InlineKeyboardMarkup)
	require.True(t, ok)
	// 5 tickets, pagination row and the legend/back row.
	require.Len(t, kb.InlineKeyboard, 7)
	assert.Contains(t, kb.InlineKeyboard[0][0].CallbackData, "task_ORTP-1_")
	assert.Contains(t, kb.InlineKeyboard[5][0].Text, "1/2")
	assert.Equal(t, "request_page_2", kb.InlineKeyboard[5][1].CallbackData)
}

func TestTaskOpenStaleToken(t *testing.T) {
	f := newFixture(t)
	f.verifyUser(t, 100, "ivanov@pari.ru")

	stale := NewTaskToken("ORTP-1", 1, time.Now().Add(-2*time.Minute))
	require.NoError(t, f.handler.HandleUpdate(context.Background(), callbackUpdate(100, 1, stale.Encode())))

	answer := f.bot.lastByMethod("answer")
	require.NotNil(t, answer)
	assert.Equal(t, msgStaleAction, answer.text)
	assert.True(t, answer.alert)
}

func TestCreateFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifyUser(t, 100, "ivanov@pari.ru")
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateIdle, BotMessageID: 1}))

	require.NoError(t, f.handler.HandleUpdate(ctx, callbackUpdate(100, 1, "create_request")))
	assert.Equal(t, msgEnterTitle, f.bot.lastByMethod("edit").text)

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "Сломался принтер")))
	assert.Equal(t, msgEnterDescription, f.bot.lastByMethod("edit").text)

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 3, "Не печатает со вчерашнего дня")))
	assert.Equal(t, msgChoosePriority, f.bot.lastByMethod("edit").text)

	token := NewPriorityToken("1", time.Now())
	require.NoError(t, f.handler.HandleUpdate(ctx, callbackUpdate(100, 1, token.Encode())))

	require.Equal(t, []string{"ORTP-1"}, f.jira.created)
	details := f.jira.details["ORTP-1"]
	require.NotNil(t, details)
	assert.Equal(t, "Сломался принтер", details.Summary)
	assert.Contains(t, details.Description, "Заявка от ivanov@pari.ru")

	mirrored, err := f.tickets.GetByIssueKey(ctx, "ORTP-1")
	require.NoError(t, err)
	require.NotNil(t, mirrored)
	assert.Equal(t, int64(100), mirrored.UserID)

	assert.Equal(t, msgMainMenu, f.bot.lastByMethod("edit").text)
	assert.Contains(t, f.bot.lastByMethod("send").text, "Заявка успешно создана")
	assert.Equal(t, StateIdle, f.session(t, 100).State)
}

func TestTaskOpenAndComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifyUser(t, 100, "ivanov@pari.ru")

	key, err := f.jira.CreateIssue(ctx, "Сломался принтер", "Описание", "1")
	require.NoError(t, err)
	require.NoError(t, f.tickets.Save(ctx, &ticket.Ticket{
		IssueKey: key, UserID: 100, Title: "Сломался принтер",
		Status: ticket.StatusToDo, CreatedAt: time.Now(),
	}))

	token := NewTaskToken(key, 1, time.Now())
	require.NoError(t, f.handler.HandleUpdate(ctx, callbackUpdate(100, 1, token.Encode())))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Contains(t, edit.text, key)
	assert.Contains(t, edit.text, "Нет комментариев")

	session := f.session(t, 100)
	assert.Equal(t, StateAddComment, session.State)
	assert.Equal(t, key, session.IssueKey)

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "Уже починили, спасибо")))

	comments := f.jira.comments[key]
	require.Len(t, comments, 1)
	assert.Equal(t, "Уже починили, спасибо", comments[0].Body)
	assert.Equal(t, StateIdle, f.session(t, 100).State)
	// The detail card turns back into the main menu.
	assert.Equal(t, msgMainMenu, f.bot.lastByMethod("edit").text)
}

func TestNotificationOpenMarksRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifyUser(t, 100, "ivanov@pari.ru")

	n := &domainNotification.Notification{
		UserID:      100,
		IssueKey:    "ORTP-1",
		EventType:   domainNotification.EventStatusChanged,
		MessageText: "Статус вашей заявки изменился",
		Timestamp:   time.Now(),
	}
	require.NoError(t, f.notifs.CreateAndPrune(ctx, n, 100))

	token := NewNotifToken(n.ID, 1, time.Now())
	require.NoError(t, f.handler.HandleUpdate(ctx, callbackUpdate(100, 1, token.Encode())))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Contains(t, edit.text, "Статус вашей заявки изменился")

	stored, err := f.notifs.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
}

func TestNotificationDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifyUser(t, 100, "ivanov@pari.ru")

	n := &domainNotification.Notification{
		UserID: 100, IssueKey: "ORTP-1",
		EventType: domainNotification.EventCommentAdded,
		Timestamp: time.Now(),
	}
	require.NoError(t, f.notifs.CreateAndPrune(ctx, n, 100))

	token := NotifDeleteToken{ID: n.ID, Page: 1}
	require.NoError(t, f.handler.HandleUpdate(ctx, callbackUpdate(100, 1, token.Encode())))

	stored, err := f.notifs.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, msgNoNotifications, f.bot.lastByMethod("edit").text)
}

func TestNotificationOpenForeignUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifyUser(t, 100, "ivanov@pari.ru")

	n := &domainNotification.Notification{
		UserID: 200, IssueKey: "ORTP-1",
		EventType: domainNotification.EventStatusChanged,
		Timestamp: time.Now(),
	}
	require.NoError(t, f.notifs.CreateAndPrune(ctx, n, 100))

	token := NewNotifToken(n.ID, 1, time.Now())
	require.NoError(t, f.handler.HandleUpdate(ctx, callbackUpdate(100, 1, token.Encode())))

	assert.Equal(t, msgNotifMissing, f.bot.lastByMethod("edit").text)
}

func TestHideNotification(t *testing.T) {
	f := newFixture(t)
	f.verifyUser(t, 100, "ivanov@pari.ru")

	require.NoError(t, f.handler.HandleUpdate(context.Background(), callbackUpdate(100, 55, "hide_notification")))

	edit := f.bot.lastByMethod("edit")
	require.NotNil(t, edit)
	assert.Equal(t, msgHiddenNotice, edit.text)
	assert.Equal(t, int64(55), edit.messageID)
}

func TestNonTextInputDuringFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, &Session{UserID: 100, State: StateVerifyEmail, BotMessageID: 1}))

	require.NoError(t, f.handler.HandleUpdate(ctx, textUpdate(100, 2, "")))

	sent := f.bot.lastByMethod("send")
	require.NotNil(t, sent)
	assert.Equal(t, msgTextOnly, sent.text)
}

func TestTelegramNotifierAttachesHideButton(t *testing.T) {
	bot := newMockMessenger()
	notifier := NewTelegramNotifier(bot)

	require.NoError(t, notifier.NotifyUser(100, "Статус вашей заявки изменился"))

	sent := bot.lastByMethod("send")
	require.NotNil(t, sent)
	kb, ok := sent.keyboard.(*telegram.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "hide_notification", kb.InlineKeyboard[0][0].CallbackData)
}
