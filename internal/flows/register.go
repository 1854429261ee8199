package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mongoAuth/account"
)

// RunRegister creates an inactive account holding a fresh code.
//
// The existence check and the insert are separate calls. A store that enforces
// unique emails reports the lost race as account.ErrDuplicate, which maps to
// UserExists as well.
func RunRegister[U any](ctx context.Context, email, password string, extra *U, deps RegisterDeps[U]) Outcome[U] {
	if deps.Store == nil || deps.HashPassword == nil || deps.GenerateCode == nil {
		return failed[U]("", deps.Errors.EngineNotReady)
	}

	if deps.CheckThrottle != nil {
		if err := deps.CheckThrottle(ctx, email); err != nil {
			return failed[U]("", err)
		}
	}

	existing, err := findState(ctx, deps.Store, account.Filter{Email: email})
	if err != nil {
		return failed[U]("", err)
	}

	decision := DecideRegister(existing)
	if !decision.Create {
		return Outcome[U]{Status: decision.Status, UserID: existing.ID}
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return failed[U]("", fmt.Errorf("hash password: %w", err))
	}
	code, err := deps.GenerateCode()
	if err != nil {
		return failed[U]("", fmt.Errorf("generate code: %w", err))
	}

	id, err := deps.Store.Create(ctx, account.State{
		Email:        email,
		PasswordHash: hash,
		Active:       false,
		Blocked:      false,
		Attempts:     0,
		Code:         code,
		HasCode:      true,
	}, extra)
	if err != nil {
		if errors.Is(err, account.ErrDuplicate) {
			return Outcome[U]{Status: UserExists}
		}
		return failed[U]("", err)
	}

	return Outcome[U]{
		Status:      decision.Status,
		Code:        code,
		UserID:      id,
		Transitions: []string{TransitionCreated, TransitionCodeIssued},
	}
}
