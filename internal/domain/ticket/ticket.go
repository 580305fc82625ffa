// Package ticket mirrors Jira issues created through the bot: key, title
// and last-known status per owner. Status is advanced only by confirmed
// webhook events; rows are never deleted.
package ticket

import (
	"fmt"
	"time"
)

type Ticket struct {
	IssueKey  string
	UserID    int64
	Title     string
	Status    Status
	CreatedAt time.Time
}

// NewTicket creates a registry entry for a freshly created Jira issue.
// New issues always start in "To Do".
func NewTicket(issueKey string, userID int64, title string) (*Ticket, error) {
	if issueKey == "" {
		return nil, fmt.Errorf("issue key is required")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	return &Ticket{
		IssueKey:  issueKey,
		UserID:    userID,
		Title:     title,
		Status:    StatusToDo,
		CreatedAt: time.Now(),
	}, nil
}
