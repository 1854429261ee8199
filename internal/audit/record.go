package audit

import (
	"strings"
	"time"
)

// Record describes one finished engine operation. The dispatcher expands it
// into the operation event followed by one event per transition, so the
// events of a single call reach the sink together and in order.
type Record struct {
	At           time.Time
	Operation    string
	Status       string
	Failed       bool
	UserID       string
	Email        string // unmasked; Events masks it
	IP           string
	LeftAttempts int
	Err          error
	Transitions  []string
}

// size is the number of events the record expands to.
func (r Record) size() int {
	return 1 + len(r.Transitions)
}

// Events expands r. Transition events carry no status or error: they only
// happen on writes that succeeded.
func (r Record) Events() []Event {
	email := MaskEmail(r.Email)
	at := r.At.UTC()

	out := make([]Event, 0, r.size())
	op := Event{
		Timestamp:    at,
		EventType:    r.Operation,
		Status:       r.Status,
		UserID:       r.UserID,
		Email:        email,
		IP:           r.IP,
		LeftAttempts: r.LeftAttempts,
		Success:      !r.Failed,
	}
	if r.Err != nil {
		op.Error = r.Err.Error()
	}
	out = append(out, op)

	for _, t := range r.Transitions {
		out = append(out, Event{
			Timestamp: at,
			EventType: t,
			Operation: r.Operation,
			UserID:    r.UserID,
			Email:     email,
			IP:        r.IP,
			Success:   true,
		})
	}
	return out
}

// MaskEmail keeps the first rune of the local part and the domain.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local := []rune(email[:at])
	return string(local[0]) + "***" + email[at:]
}
