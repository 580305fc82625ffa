package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishbel44/ortp-botik/internal/domain/identity"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

type mockUserRepository struct {
	GetByUserIDFunc      func(ctx context.Context, userID int64) (*identity.User, error)
	GetByEmailFunc       func(ctx context.Context, email string) (*identity.User, error)
	UpsertEmailClaimFunc func(ctx context.Context, userID int64, email string) error
	MarkVerifiedFunc     func(ctx context.Context, userID int64) error
}

func (m *mockUserRepository) GetByUserID(ctx context.Context, userID int64) (*identity.User, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepository) UpsertEmailClaim(ctx context.Context, userID int64, email string) error {
	if m.UpsertEmailClaimFunc != nil {
		return m.UpsertEmailClaimFunc(ctx, userID, email)
	}
	return nil
}

func (m *mockUserRepository) MarkVerified(ctx context.Context, userID int64) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, userID)
	}
	return nil
}

type mockChallengeRepository struct {
	UpsertFunc func(ctx context.Context, challenge *identity.Challenge) error
	GetFunc    func(ctx context.Context, userID int64) (*identity.Challenge, error)
}

func (m *mockChallengeRepository) Upsert(ctx context.Context, challenge *identity.Challenge) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, challenge)
	}
	return nil
}

func (m *mockChallengeRepository) Get(ctx context.Context, userID int64) (*identity.Challenge, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, nil
}

type mockCodeSender struct {
	SendVerificationCodeFunc func(to, code string) error
	sent                     []string
}

func (m *mockCodeSender) SendVerificationCode(to, code string) error {
	m.sent = append(m.sent, code)
	if m.SendVerificationCodeFunc != nil {
		return m.SendVerificationCodeFunc(to, code)
	}
	return nil
}

const testPattern = `^[a-zA-Z0-9_.+-]+@pari\.ru$`

func newTestService(t *testing.T, users identity.UserRepository, challenges identity.ChallengeRepository, sender *mockCodeSender) *Service {
	t.Helper()
	svc, err := NewService(users, challenges, sender, testPattern, 10*time.Minute, 60*time.Second, logger.NewLogger())
	require.NoError(t, err)
	return svc
}

func TestRequestCode_RejectsNonCorporateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"foreign domain", "ivanov@gmail.com"},
		{"subdomain", "ivanov@mail.pari.ru"},
		{"missing local part", "@pari.ru"},
		{"trailing garbage", "ivanov@pari.ru.evil.com"},
	}

	sender := &mockCodeSender{}
	svc := newTestService(t, &mockUserRepository{}, &mockChallengeRepository{}, sender)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RequestCode(context.Background(), 100, tt.email)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
	assert.Empty(t, sender.sent)
}

func TestRequestCode_StoresClaimAndSendsCode(t *testing.T) {
	var claimedEmail string
	var storedChallenge *identity.Challenge

	users := &mockUserRepository{
		UpsertEmailClaimFunc: func(ctx context.Context, userID int64, email string) error {
			claimedEmail = email
			return nil
		},
	}
	challenges := &mockChallengeRepository{
		UpsertFunc: func(ctx context.Context, challenge *identity.Challenge) error {
			storedChallenge = challenge
			return nil
		},
	}
	sender := &mockCodeSender{}

	svc := newTestService(t, users, challenges, sender)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	svc.generateCode = func() (string, error) { return "042137", nil }

	err := svc.RequestCode(context.Background(), 100, "ivanov@pari.ru")
	require.NoError(t, err)

	assert.Equal(t, "ivanov@pari.ru", claimedEmail)
	require.NotNil(t, storedChallenge)
	assert.Equal(t, "042137", storedChallenge.Code)
	assert.Equal(t, now.Add(10*time.Minute), storedChallenge.ExpiresAt)
	assert.Equal(t, now, storedChallenge.LastRequestAt)
	assert.Equal(t, []string{"042137"}, sender.sent)
}

func TestRequestCode_CooldownBlocksResend(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	challenges := &mockChallengeRepository{
		GetFunc: func(ctx context.Context, userID int64) (*identity.Challenge, error) {
			return &identity.Challenge{
				UserID:        userID,
				Code:          "111111",
				ExpiresAt:     now.Add(9 * time.Minute),
				LastRequestAt: now.Add(-20 * time.Second),
			}, nil
		},
	}
	sender := &mockCodeSender{}

	svc := newTestService(t, &mockUserRepository{}, challenges, sender)
	svc.now = func() time.Time { return now }

	err := svc.RequestCode(context.Background(), 100, "ivanov@pari.ru")
	require.Error(t, err)
	assert.True(t, errors.IsRateLimitedError(err))
	assert.Equal(t, "40", errors.GetAppError(err).Details)
	assert.Empty(t, sender.sent)

	// Cooldown is measured from the last request, not the expiry.
	svc.now = func() time.Time { return now.Add(41 * time.Second) }
	err = svc.RequestCode(context.Background(), 100, "ivanov@pari.ru")
	require.NoError(t, err)
	assert.Len(t, sender.sent, 1)
}

func TestResendAvailability(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	challenges := &mockChallengeRepository{
		GetFunc: func(ctx context.Context, userID int64) (*identity.Challenge, error) {
			if userID != 100 {
				return nil, nil
			}
			return &identity.Challenge{
				UserID:        100,
				LastRequestAt: now.Add(-45 * time.Second),
			}, nil
		},
	}

	svc := newTestService(t, &mockUserRepository{}, challenges, &mockCodeSender{})
	svc.now = func() time.Time { return now }

	remaining, err := svc.ResendAvailability(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, remaining)

	remaining, err = svc.ResendAvailability(context.Background(), 200)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestCheckCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		challenge *identity.Challenge
		code      string
		wantErr   func(error) bool
		verified  bool
	}{
		{
			name:    "no code requested",
			code:    "123456",
			wantErr: errors.IsNotFoundError,
		},
		{
			name: "expired code",
			challenge: &identity.Challenge{
				UserID:    100,
				Code:      "123456",
				ExpiresAt: now.Add(-time.Minute),
			},
			code:    "123456",
			wantErr: errors.IsStaleActionError,
		},
		{
			name: "wrong code",
			challenge: &identity.Challenge{
				UserID:    100,
				Code:      "123456",
				ExpiresAt: now.Add(time.Minute),
			},
			code:    "654321",
			wantErr: errors.IsValidationError,
		},
		{
			name: "matching code verifies",
			challenge: &identity.Challenge{
				UserID:    100,
				Code:      "123456",
				ExpiresAt: now.Add(time.Minute),
			},
			code:     "123456",
			verified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verified := false
			users := &mockUserRepository{
				MarkVerifiedFunc: func(ctx context.Context, userID int64) error {
					verified = true
					return nil
				},
			}
			challenges := &mockChallengeRepository{
				GetFunc: func(ctx context.Context, userID int64) (*identity.Challenge, error) {
					return tt.challenge, nil
				},
			}

			svc := newTestService(t, users, challenges, &mockCodeSender{})
			svc.now = func() time.Time { return now }

			err := svc.CheckCode(context.Background(), 100, tt.code)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.verified, verified)
		})
	}
}

func TestResend_RequiresStoredEmail(t *testing.T) {
	sender := &mockCodeSender{}
	svc := newTestService(t, &mockUserRepository{}, &mockChallengeRepository{}, sender)

	err := svc.Resend(context.Background(), 100)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	users := &mockUserRepository{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*identity.User, error) {
			return &identity.User{UserID: userID, Email: "ivanov@pari.ru"}, nil
		},
	}
	svc = newTestService(t, users, &mockChallengeRepository{}, sender)

	require.NoError(t, svc.Resend(context.Background(), 100))
	assert.Len(t, sender.sent, 1)
}

func TestIsVerified(t *testing.T) {
	users := &mockUserRepository{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*identity.User, error) {
			if userID == 100 {
				return &identity.User{UserID: 100, Email: "ivanov@pari.ru", IsVerified: true}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(t, users, &mockChallengeRepository{}, &mockCodeSender{})

	ok, err := svc.IsVerified(context.Background(), 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsVerified(context.Background(), 200)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestCode_EmailClaimedByAnotherUser(t *testing.T) {
	users := &mockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*identity.User, error) {
			return &identity.User{UserID: 200, Email: email, IsVerified: true}, nil
		},
	}
	sender := &mockCodeSender{}
	svc := newTestService(t, users, &mockChallengeRepository{}, sender)

	err := svc.RequestCode(context.Background(), 100, "ivanov@pari.ru")
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err))
	assert.Empty(t, sender.sent)
}
