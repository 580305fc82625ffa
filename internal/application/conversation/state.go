// Package conversation drives the chat dialogue: a per-user state
// machine over Telegram messages and inline-keyboard callbacks.
package conversation

// State is the position of a user inside the dialogue.
type State string

const (
	StateIdle              State = "idle"
	StateVerifyEmail       State = "verify_email"
	StateVerifyCode        State = "verify_code"
	StateCreateTitle       State = "create_title"
	StateCreateDescription State = "create_description"
	StateCreatePriority    State = "create_priority"
	StateAddComment        State = "add_comment"
)

func (s State) String() string {
	return string(s)
}

// BackTarget returns where the generic back button leads from the given
// state. Inside the create flow it steps one prompt back; everywhere
// else it abandons the flow and returns to the main menu.
func BackTarget(s State) State {
	switch s {
	case StateCreateDescription:
		return StateCreateTitle
	case StateCreatePriority:
		return StateCreateDescription
	default:
		return StateIdle
	}
}

// CancelTarget returns where the cancel button leads. Cancelling code
// entry re-asks for the email instead of dropping out of verification,
// since an unverified user has nowhere else to go.
func CancelTarget(s State) State {
	if s == StateVerifyCode {
		return StateVerifyEmail
	}
	return StateIdle
}
