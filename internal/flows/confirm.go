package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mongoAuth/account"
)

// RunConfirmCode consumes the pending code of the account with email and
// signs it in. An empty newPassword keeps the current password.
//
// With ConditionalUpdates the write is filtered on the code as well, so two
// confirmations racing on one code cannot both succeed.
func RunConfirmCode[U any](ctx context.Context, email, code, newPassword string, deps ConfirmDeps[U]) Outcome[U] {
	if deps.Store == nil || deps.IssueToken == nil {
		return failed[U]("", deps.Errors.EngineNotReady)
	}

	if deps.CheckThrottle != nil {
		if err := deps.CheckThrottle(ctx, email); err != nil {
			return failed[U]("", err)
		}
	}

	if code == "" {
		return Outcome[U]{Status: WrongConfirmCode}
	}

	matched, err := findState(ctx, deps.Store, account.Filter{Email: email, Code: &code})
	if err != nil {
		return failed[U]("", err)
	}

	var newHash *string
	if matched != nil && newPassword != "" {
		if deps.HashPassword == nil {
			return failed[U](matched.ID, deps.Errors.EngineNotReady)
		}
		hash, err := deps.HashPassword(newPassword)
		if err != nil {
			return failed[U](matched.ID, fmt.Errorf("hash password: %w", err))
		}
		newHash = &hash
	}

	decision := DecideConfirm(matched, newHash)
	if decision.Patch == nil {
		return Outcome[U]{Status: decision.Status}
	}

	opts := account.UpdateOptions{ReturnDocument: true}
	var user *U
	if deps.ConditionalUpdates {
		user, err = deps.Store.FindOneAndUpdate(ctx, account.Filter{ID: matched.ID, Code: &code}, *decision.Patch, opts)
	} else {
		user, err = deps.Store.FindByIDAndUpdate(ctx, matched.ID, *decision.Patch, opts)
	}
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome[U]{Status: WrongConfirmCode, UserID: matched.ID}
		}
		return failed[U](matched.ID, err)
	}

	out := Outcome[U]{
		Status: decision.Status,
		User:   user,
		UserID: matched.ID,
	}
	if decision.Activates {
		out.transition(TransitionActivated)
	}
	if newHash != nil {
		out.transition(TransitionPasswordChanged)
	}

	token, err := deps.IssueToken(matched.ID)
	if err != nil {
		out.Status, out.Err, out.User = Error, fmt.Errorf("issue token: %w", err), nil
		return out
	}
	out.Token = token
	return out
}
