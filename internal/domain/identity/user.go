// Package identity holds the verified user/email binding and the
// one-time verification challenge issued during email confirmation.
package identity

import "time"

// User binds a Telegram user ID to a corporate email address.
// The binding starts unverified and is flipped once a challenge code
// is confirmed. Users are never deleted.
type User struct {
	UserID     int64
	Email      string
	IsVerified bool
}

// Challenge is a short-lived one-time code bound to a user and an email.
// One active challenge per user; a new request overwrites the previous one.
type Challenge struct {
	UserID        int64
	Code          string
	ExpiresAt     time.Time
	LastRequestAt time.Time
}

// IsExpired reports whether the code is no longer acceptable.
func (c *Challenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CooldownRemaining returns the seconds left before a new code may be
// requested, or zero when outside the cooldown window.
func (c *Challenge) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	elapsed := now.Sub(c.LastRequestAt)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}
