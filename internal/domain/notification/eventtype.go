package notification

// EventType identifies the kind of tracker change a notification reports.
type EventType string

const (
	EventStatusChanged   EventType = "status_changed"
	EventCommentAdded    EventType = "comment_added"
	EventAssigneeChanged EventType = "assignee_changed"
)

func (e EventType) String() string {
	return string(e)
}

func (e EventType) IsValid() bool {
	switch e {
	case EventStatusChanged, EventCommentAdded, EventAssigneeChanged:
		return true
	}
	return false
}

var eventLabels = map[EventType]string{
	EventStatusChanged:   "статус",
	EventCommentAdded:    "комментарий",
	EventAssigneeChanged: "исполнитель",
}

// Label returns the localized short name used in list rows.
func (e EventType) Label() string {
	if label, ok := eventLabels[e]; ok {
		return label
	}
	return string(e)
}
