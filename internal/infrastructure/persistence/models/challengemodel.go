package models

import "time"

// ChallengeModel holds at most one active verification code per user.
type ChallengeModel struct {
	UserID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Code          string    `gorm:"size:6;not null"`
	ExpiresAt     time.Time `gorm:"not null"`
	LastRequestAt time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

func (ChallengeModel) TableName() string {
	return "verification_codes"
}
