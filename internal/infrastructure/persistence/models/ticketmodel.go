package models

import "time"

type TicketModel struct {
	IssueKey  string    `gorm:"primaryKey;size:32"`
	UserID    int64     `gorm:"not null;index:idx_tickets_user_created"`
	Title     string    `gorm:"size:255;not null"`
	Status    string    `gorm:"size:50;not null"`
	CreatedAt time.Time `gorm:"index:idx_tickets_user_created"`
	UpdatedAt time.Time
}

func (TicketModel) TableName() string {
	return "tickets"
}
