package models

import "time"

// UserModel is keyed by the Telegram user ID; rows are never deleted.
type UserModel struct {
	UserID     int64  `gorm:"primaryKey;autoIncrement:false"`
	Email      string `gorm:"size:255;not null;uniqueIndex"`
	IsVerified bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (UserModel) TableName() string {
	return "users"
}
