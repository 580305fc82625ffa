package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mishbel44/ortp-botik/internal/shared/errors"
)

// tokenTTL is how long a timestamped inline button stays actionable.
// Older buttons answer with a "no longer relevant" alert instead of
// acting on stale list positions.
const tokenTTL = 60 * time.Second

func isStale(issuedAt int64, now time.Time) bool {
	return now.Unix()-issuedAt > int64(tokenTTL/time.Second)
}

// TaskToken identifies a ticket button: task_<key>_<ts>_<page>.
type TaskToken struct {
	IssueKey string
	IssuedAt int64
	Page     int
}

func NewTaskToken(issueKey string, page int, now time.Time) TaskToken {
	return TaskToken{IssueKey: issueKey, IssuedAt: now.Unix(), Page: page}
}

func (t TaskToken) Encode() string {
	return fmt.Sprintf("task_%s_%d_%d", t.IssueKey, t.IssuedAt, t.Page)
}

func ParseTaskToken(data string) (TaskToken, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 4 || parts[0] != "task" {
		return TaskToken{}, errors.NewValidationError("malformed task token", data)
	}
	issuedAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return TaskToken{}, errors.NewValidationError("malformed task token", data)
	}
	page, err := strconv.Atoi(parts[3])
	if err != nil {
		return TaskToken{}, errors.NewValidationError("malformed task token", data)
	}
	return TaskToken{IssueKey: parts[1], IssuedAt: issuedAt, Page: page}, nil
}

func (t TaskToken) Stale(now time.Time) bool {
	return isStale(t.IssuedAt, now)
}

// PriorityToken identifies a priority button: priority_<id>_<ts>.
type PriorityToken struct {
	PriorityID string
	IssuedAt   int64
}

func NewPriorityToken(priorityID string, now time.Time) PriorityToken {
	return PriorityToken{PriorityID: priorityID, IssuedAt: now.Unix()}
}

func (t PriorityToken) Encode() string {
	return fmt.Sprintf("priority_%s_%d", t.PriorityID, t.IssuedAt)
}

func ParsePriorityToken(data string) (PriorityToken, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 || parts[0] != "priority" {
		return PriorityToken{}, errors.NewValidationError("malformed priority token", data)
	}
	issuedAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return PriorityToken{}, errors.NewValidationError("malformed priority token", data)
	}
	return PriorityToken{PriorityID: parts[1], IssuedAt: issuedAt}, nil
}

func (t PriorityToken) Stale(now time.Time) bool {
	return isStale(t.IssuedAt, now)
}

// NotifToken identifies a notification button: notif_<id>_<ts>_<page>.
type NotifToken struct {
	ID       uint
	IssuedAt int64
	Page     int
}

func NewNotifToken(id uint, page int, now time.Time) NotifToken {
	return NotifToken{ID: id, IssuedAt: now.Unix(), Page: page}
}

func (t NotifToken) Encode() string {
	return fmt.Sprintf("notif_%d_%d_%d", t.ID, t.IssuedAt, t.Page)
}

func ParseNotifToken(data string) (NotifToken, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 4 || parts[0] != "notif" {
		return NotifToken{}, errors.NewValidationError("malformed notification token", data)
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return NotifToken{}, errors.NewValidationError("malformed notification token", data)
	}
	issuedAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return NotifToken{}, errors.NewValidationError("malformed notification token", data)
	}
	page, err := strconv.Atoi(parts[3])
	if err != nil {
		return NotifToken{}, errors.NewValidationError("malformed notification token", data)
	}
	return NotifToken{ID: uint(id), IssuedAt: issuedAt, Page: page}, nil
}

func (t NotifToken) Stale(now time.Time) bool {
	return isStale(t.IssuedAt, now)
}

// NotifDeleteToken identifies the delete button in the notification
// view: notif_delete_<id>_<page>. Deletion is not timestamped; the view
// it sits on was already freshness-checked.
type NotifDeleteToken struct {
	ID   uint
	Page int
}

func (t NotifDeleteToken) Encode() string {
	return fmt.Sprintf("notif_delete_%d_%d", t.ID, t.Page)
}

func ParseNotifDeleteToken(data string) (NotifDeleteToken, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 4 || parts[0] != "notif" || parts[1] != "delete" {
		return NotifDeleteToken{}, errors.NewValidationError("malformed delete token", data)
	}
	id, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return NotifDeleteToken{}, errors.NewValidationError("malformed delete token", data)
	}
	page, err := strconv.Atoi(parts[3])
	if err != nil {
		return NotifDeleteToken{}, errors.NewValidationError("malformed delete token", data)
	}
	return NotifDeleteToken{ID: uint(id), Page: page}, nil
}

// parsePageSuffix extracts N from callbacks like request_page_N.
func parsePageSuffix(data, prefix string) (int, error) {
	page, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil {
		return 0, errors.NewValidationError("malformed page token", data)
	}
	return page, nil
}
