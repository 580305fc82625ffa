package identity

import "context"

// UserRepository persists telegram-user/email bindings.
// Lookup methods return (nil, nil) when no row exists.
type UserRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpsertEmailClaim stores an unverified claim for the email,
	// overwriting any previous claim by the same user.
	UpsertEmailClaim(ctx context.Context, userID int64, email string) error
	MarkVerified(ctx context.Context, userID int64) error
}

// ChallengeRepository persists one-time verification codes, one row per user.
type ChallengeRepository interface {
	// Upsert overwrites the user's challenge row.
	Upsert(ctx context.Context, challenge *Challenge) error
	// Get returns the user's challenge row regardless of expiry,
	// or (nil, nil) when none exists.
	Get(ctx context.Context, userID int64) (*Challenge, error)
}
