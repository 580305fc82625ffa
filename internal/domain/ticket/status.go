package ticket

// Status is the Jira workflow status vocabulary the bot understands.
// Unknown statuses coming from webhooks are carried through verbatim and
// rendered without a glyph.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusTesting    Status = "Testing"
	StatusDeclined   Status = "Declined"
	StatusStopped    Status = "Stopped"
	StatusDone       Status = "Done"
	StatusBacklog    Status = "Backlog"
)

func (s Status) String() string {
	return string(s)
}

// IsDone reports whether the status is the terminal "done" state in which
// Jira rejects new comments.
func (s Status) IsDone() bool {
	return s == StatusDone
}

var statusGlyphs = map[Status]string{
	StatusToDo:       "🔵",
	StatusInProgress: "🟡",
	StatusTesting:    "🟠",
	StatusDeclined:   "🔴",
	StatusStopped:    "⚪",
	StatusDone:       "🟢",
	StatusBacklog:    "⚫",
}

var statusLabels = map[Status]string{
	StatusToDo:       "К выполнению",
	StatusInProgress: "В работе",
	StatusTesting:    "Тестирование",
	StatusDeclined:   "Отменена",
	StatusStopped:    "Приостановлена",
	StatusDone:       "Выполнена",
	StatusBacklog:    "В ожидании",
}

// Glyph returns the colored circle for the status, empty for unknown ones.
func (s Status) Glyph() string {
	return statusGlyphs[s]
}

// Label returns the localized status name, falling back to the raw status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}
