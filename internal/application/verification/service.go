// Package verification implements the email ownership check that gates
// every other bot feature: a 6-digit code mailed to a corporate address.
package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/mishbel44/ortp-botik/internal/domain/identity"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/email"
	"github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

type Service struct {
	users      identity.UserRepository
	challenges identity.ChallengeRepository
	sender     email.CodeSender
	pattern    *regexp.Regexp
	codeTTL    time.Duration
	cooldown   time.Duration
	logger     logger.Interface

	now          func() time.Time
	generateCode func() (string, error)
}

func NewService(
	users identity.UserRepository,
	challenges identity.ChallengeRepository,
	sender email.CodeSender,
	emailPattern string,
	codeTTL time.Duration,
	cooldown time.Duration,
	log logger.Interface,
) (*Service, error) {
	pattern, err := regexp.Compile(emailPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid email pattern: %w", err)
	}
	return &Service{
		users:        users,
		challenges:   challenges,
		sender:       sender,
		pattern:      pattern,
		codeTTL:      codeTTL,
		cooldown:     cooldown,
		logger:       log,
		now:          time.Now,
		generateCode: randomCode,
	}, nil
}

// randomCode returns a 6-digit numeric code with leading zeros allowed.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsVerified reports whether the user completed email verification.
func (s *Service) IsVerified(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsVerified, nil
}

// RequestCode validates the address, stores an unverified claim and mails
// a fresh code. A request inside the cooldown window is rejected with a
// rate limited error carrying the seconds left.
func (s *Service) RequestCode(ctx context.Context, userID int64, address string) error {
	if !s.pattern.MatchString(address) {
		return errors.NewValidationError("email address is not a corporate address")
	}

	owner, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		return err
	}
	if owner != nil && owner.UserID != userID {
		return errors.NewConflictError("email address already claimed by another user")
	}

	if err := s.checkCooldown(ctx, userID); err != nil {
		return err
	}

	code, err := s.generateCode()
	if err != nil {
		return errors.NewInternalError("failed to generate verification code", err.Error())
	}

	if err := s.users.UpsertEmailClaim(ctx, userID, address); err != nil {
		return err
	}

	now := s.now()
	challenge := &identity.Challenge{
		UserID:        userID,
		Code:          code,
		ExpiresAt:     now.Add(s.codeTTL),
		LastRequestAt: now,
	}
	if err := s.challenges.Upsert(ctx, challenge); err != nil {
		return err
	}

	if err := s.sender.SendVerificationCode(address, code); err != nil {
		s.logger.Errorw("failed to send verification code", "user_id", userID, "error", err)
		return errors.NewInternalError("failed to send verification email", err.Error())
	}

	s.logger.Infow("verification code sent", "user_id", userID)
	return nil
}

// Resend mails a new code to the address the user already claimed.
func (s *Service) Resend(ctx context.Context, userID int64) error {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.NewNotFoundError("no email address on file")
	}
	return s.RequestCode(ctx, userID, user.Email)
}

// ResendAvailability returns how long the user must still wait before a
// new code may be requested. Zero means a resend is allowed now.
func (s *Service) ResendAvailability(ctx context.Context, userID int64) (time.Duration, error) {
	challenge, err := s.challenges.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if challenge == nil {
		return 0, nil
	}
	return challenge.CooldownRemaining(s.now(), s.cooldown), nil
}

// CheckCode confirms the code and flips the user to verified on match.
func (s *Service) CheckCode(ctx context.Context, userID int64, code string) error {
	challenge, err := s.challenges.Get(ctx, userID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return errors.NewNotFoundError("no verification code was requested")
	}
	if challenge.IsExpired(s.now()) {
		return errors.NewStaleActionError("verification code expired")
	}
	if challenge.Code != code {
		return errors.NewValidationError("verification code does not match")
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return err
	}

	s.logger.Infow("user verified", "user_id", userID)
	return nil
}

func (s *Service) checkCooldown(ctx context.Context, userID int64) error {
	challenge, err := s.challenges.Get(ctx, userID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return nil
	}
	if remaining := challenge.CooldownRemaining(s.now(), s.cooldown); remaining > 0 {
		seconds := int(remaining.Round(time.Second).Seconds())
		return errors.NewRateLimitedError("verification code was requested too recently", fmt.Sprintf("%d", seconds))
	}
	return nil
}
