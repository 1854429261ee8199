package flows

import "github.com/MrEthical07/mongoAuth/account"

// LoginDecision is the result of DecideLogin.
type LoginDecision struct {
	Status       Status
	LeftAttempts int
	// Patch is nil when the decision writes nothing.
	Patch *account.Patch
	// Guard marks a failed-attempt write, which must only apply to the
	// snapshot's attempt counter.
	Guard bool
	// NeedsCode asks the caller to generate a code and set it on Patch.
	NeedsCode bool
	// NeedsToken asks the caller to issue a token for the account.
	NeedsToken bool
	// Blocks reports that Patch sets the block flag.
	Blocks bool
}

// DecideLogin maps an account snapshot and a password check onto a login decision.
//
// The block flag is checked before the attempt counter is evaluated, so a blocked
// account never yields LeftAttempts. A nil state means no such account.
func DecideLogin(state *account.State, passwordMatches bool, maxAttempts int) LoginDecision {
	if state == nil {
		return LoginDecision{Status: NotFound}
	}
	if state.Blocked {
		return LoginDecision{Status: Blocked}
	}

	if passwordMatches {
		if !state.Active {
			return LoginDecision{
				Status:    SendCode,
				Patch:     &account.Patch{Attempts: intPtr(0)},
				NeedsCode: true,
			}
		}
		return LoginDecision{
			Status:     Logined,
			Patch:      &account.Patch{Attempts: intPtr(0)},
			NeedsToken: true,
		}
	}

	next := state.Attempts + 1
	if next >= maxAttempts {
		return LoginDecision{
			Status: Blocked,
			Patch: &account.Patch{
				Attempts: intPtr(maxAttempts),
				Blocked:  boolPtr(true),
			},
			Guard:  true,
			Blocks: true,
		}
	}
	return LoginDecision{
		Status:       LeftAttempts,
		LeftAttempts: maxAttempts - next,
		Patch:        &account.Patch{Attempts: intPtr(next)},
		Guard:        true,
	}
}

// RegisterDecision is the result of DecideRegister.
type RegisterDecision struct {
	Status Status
	Create bool
}

// DecideRegister refuses a taken email and otherwise asks for a new inactive account.
func DecideRegister(existing *account.State) RegisterDecision {
	if existing != nil {
		return RegisterDecision{Status: UserExists}
	}
	return RegisterDecision{Status: SendCode, Create: true}
}

// ForgotDecision is the result of DecideForgot.
type ForgotDecision struct {
	Status    Status
	NeedsCode bool
}

// DecideForgot asks for a fresh code on a known email. Password and the
// active and blocked flags are left untouched.
func DecideForgot(existing *account.State) ForgotDecision {
	if existing == nil {
		return ForgotDecision{Status: WrongEmail}
	}
	return ForgotDecision{Status: SendCode, NeedsCode: true}
}

// ConfirmDecision is the result of DecideConfirm.
type ConfirmDecision struct {
	Status     Status
	Patch      *account.Patch
	Activates  bool
	NeedsToken bool
}

// DecideConfirm consumes the code of the account matched by email and code.
// A nil newPasswordHash keeps the current password.
func DecideConfirm(matched *account.State, newPasswordHash *string) ConfirmDecision {
	if matched == nil {
		return ConfirmDecision{Status: WrongConfirmCode}
	}

	patch := &account.Patch{
		ClearCode: true,
		Active:    boolPtr(true),
		Attempts:  intPtr(0),
	}
	if newPasswordHash != nil {
		h := *newPasswordHash
		patch.PasswordHash = &h
	}

	return ConfirmDecision{
		Status:     Logined,
		Patch:      patch,
		Activates:  !matched.Active,
		NeedsToken: true,
	}
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
