package flows

// Status is the flow-local outcome tag. The root package re-exports these
// values one to one, so the order is part of the public contract.
type Status uint8

const (
	Logined Status = iota
	NotFound
	WrongPass
	Error
	LeftAttempts
	Blocked
	NotActive
	SendCode
	UserExists
	WrongEmail
	WrongConfirmCode
)

var statusNames = [...]string{
	Logined:          "logined",
	NotFound:         "not_found",
	WrongPass:        "wrong_pass",
	Error:            "error",
	LeftAttempts:     "left_attempts",
	Blocked:          "blocked",
	NotActive:        "not_active",
	SendCode:         "send_code",
	UserExists:       "user_exists",
	WrongEmail:       "wrong_email",
	WrongConfirmCode: "wrong_confirm_code",
}

// StatusCount is the number of defined statuses.
const StatusCount = len(statusNames)

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Transition names recorded on an Outcome when a flow changes account state.
const (
	TransitionBlocked         = "account_blocked"
	TransitionActivated       = "account_activated"
	TransitionCodeIssued      = "code_issued"
	TransitionPasswordChanged = "password_changed"
	TransitionHashUpgraded    = "password_hash_upgraded"
	TransitionCreated         = "account_created"
)
