// Package notification holds the bounded per-user log of pushes produced
// by the webhook pipeline.
package notification

import (
	"fmt"
	"time"
)

// RetentionLimit is the maximum number of notifications kept per user.
// Older rows beyond the limit are pruned whenever a new one is inserted.
const RetentionLimit = 100

type Notification struct {
	ID          uint
	UserID      int64
	IssueKey    string
	EventType   EventType
	MessageText string
	Timestamp   time.Time
	IsRead      bool
}

func NewNotification(userID int64, issueKey string, eventType EventType, messageText string) (*Notification, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if issueKey == "" {
		return nil, fmt.Errorf("issue key is required")
	}
	if !eventType.IsValid() {
		return nil, fmt.Errorf("invalid event type: %s", eventType)
	}
	if messageText == "" {
		return nil, fmt.Errorf("message text is required")
	}
	return &Notification{
		UserID:      userID,
		IssueKey:    issueKey,
		EventType:   eventType,
		MessageText: messageText,
		Timestamp:   time.Now(),
	}, nil
}
