package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mongoAuth/account"
)

// RunForgotPassword stores a fresh code on the account with email.
func RunForgotPassword[U any](ctx context.Context, email string, deps ForgotDeps[U]) Outcome[U] {
	if deps.Store == nil || deps.GenerateCode == nil {
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

	decision := DecideForgot(existing)
	if !decision.NeedsCode {
		return Outcome[U]{Status: decision.Status}
	}

	code, err := deps.GenerateCode()
	if err != nil {
		return failed[U](existing.ID, fmt.Errorf("generate code: %w", err))
	}

	if _, err := deps.Store.FindByIDAndUpdate(ctx, existing.ID, account.Patch{Code: &code}, account.UpdateOptions{}); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome[U]{Status: WrongEmail}
		}
		return failed[U](existing.ID, err)
	}

	return Outcome[U]{
		Status:      decision.Status,
		Code:        code,
		UserID:      existing.ID,
		Transitions: []string{TransitionCodeIssued},
	}
}
