package flows

// Outcome is the flow-local operation result. U is the host document type.
type Outcome[U any] struct {
	Status       Status
	User         *U
	Token        string
	Code         string
	LeftAttempts int
	Err          error

	// UserID is the account the flow acted on, when one was resolved.
	UserID string
	// Transitions lists the state changes the flow persisted, in order.
	Transitions []string
}

func failed[U any](userID string, err error) Outcome[U] {
	return Outcome[U]{Status: Error, Err: err, UserID: userID}
}

func (o *Outcome[U]) transition(name string) {
	o.Transitions = append(o.Transitions, name)
}
