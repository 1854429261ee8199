package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mongoAuth/account"
)

// RunAuthenticateByID issues a fresh token for the account with id.
//
// Without GuardReauth the block and active flags are not consulted. With it, a
// blocked account yields Blocked and an inactive one NotActive.
func RunAuthenticateByID[U any](ctx context.Context, id string, deps AuthenticateDeps[U]) Outcome[U] {
	if deps.Store == nil || deps.IssueToken == nil {
		return failed[U]("", deps.Errors.EngineNotReady)
	}
	if id == "" {
		return Outcome[U]{Status: NotFound}
	}

	if deps.GuardReauth {
		state, err := findState(ctx, deps.Store, account.Filter{ID: id})
		if err != nil {
			if errors.Is(err, account.ErrInvalidID) {
				return Outcome[U]{Status: NotFound}
			}
			return failed[U](id, err)
		}
		switch {
		case state == nil:
			return Outcome[U]{Status: NotFound}
		case state.Blocked:
			return Outcome[U]{Status: Blocked, UserID: id}
		case !state.Active:
			return Outcome[U]{Status: NotActive, UserID: id}
		}
	}

	user, err := deps.Store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) || errors.Is(err, account.ErrInvalidID) {
			return Outcome[U]{Status: NotFound}
		}
		return failed[U](id, err)
	}

	token, err := deps.IssueToken(id)
	if err != nil {
		return failed[U](id, fmt.Errorf("issue token: %w", err))
	}

	return Outcome[U]{
		Status: Logined,
		User:   user,
		Token:  token,
		UserID: id,
	}
}
