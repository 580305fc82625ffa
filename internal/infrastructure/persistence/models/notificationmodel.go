package models

import "time"

type NotificationModel struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      int64     `gorm:"not null;index:idx_notifications_user_ts"`
	IssueKey    string    `gorm:"size:32;not null"`
	EventType   string    `gorm:"size:32;not null"`
	MessageText string    `gorm:"type:text;not null"`
	Timestamp   time.Time `gorm:"not null;index:idx_notifications_user_ts"`
	IsRead      bool      `gorm:"not null;default:false"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}
