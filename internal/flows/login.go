package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mongoAuth/account"
)

// RunLogin executes the login flow for email and password.
//
// When ConditionalUpdates is set, failed-attempt writes only apply to the
// attempt counter that was read. A lost race re-reads the account and decides
// again, at most ConflictRetries times.
func RunLogin[U any](ctx context.Context, email, password string, deps LoginDeps[U]) Outcome[U] {
	if deps.Warn == nil {
		deps.Warn = noWarn
	}
	if deps.Store == nil ||
		deps.VerifyPassword == nil ||
		deps.GenerateCode == nil ||
		deps.IssueToken == nil ||
		deps.MaxAttempts <= 0 {
		return failed[U]("", deps.Errors.EngineNotReady)
	}

	state, err := findState(ctx, deps.Store, account.Filter{Email: email})
	if err != nil {
		return failed[U]("", err)
	}

	var (
		verifiedHash string
		matches      bool
		verified     bool
	)

	for try := 0; ; try++ {
		if state == nil {
			return Outcome[U]{Status: NotFound}
		}

		if !state.Blocked && (!verified || state.PasswordHash != verifiedHash) {
			matches, err = checkPassword(deps.VerifyPassword, password, state.PasswordHash)
			if err != nil {
				return failed[U](state.ID, err)
			}
			verifiedHash, verified = state.PasswordHash, true
		}

		decision := DecideLogin(state, matches, deps.MaxAttempts)
		out, err := applyLogin(ctx, state, password, decision, deps)
		if err == nil {
			return out
		}
		if !errors.Is(err, account.ErrConflict) {
			return failed[U](state.ID, err)
		}
		if try >= deps.ConflictRetries {
			return failed[U](state.ID, deps.Errors.ConcurrentUpdate)
		}

		state, err = findState(ctx, deps.Store, account.Filter{ID: state.ID})
		if err != nil {
			return failed[U]("", err)
		}
	}
}

func applyLogin[U any](ctx context.Context, state *account.State, password string, d LoginDecision, deps LoginDeps[U]) (Outcome[U], error) {
	out := Outcome[U]{
		Status:       d.Status,
		LeftAttempts: d.LeftAttempts,
		UserID:       state.ID,
	}
	if d.Patch == nil {
		return out, nil
	}
	patch := *d.Patch

	if d.NeedsCode {
		code, err := deps.GenerateCode()
		if err != nil {
			return out, fmt.Errorf("generate code: %w", err)
		}
		patch.Code = &code
		out.Code = code
	}

	upgraded := false
	if d.NeedsToken && deps.UpgradeHashOnLogin {
		if hash, ok := upgradedHash(password, state.PasswordHash, deps); ok {
			patch.PasswordHash = &hash
			upgraded = true
		}
	}

	if d.Guard {
		filter := account.Filter{ID: state.ID}
		if deps.ConditionalUpdates {
			attempts := state.Attempts
			filter.Attempts = &attempts
		}
		if _, err := deps.Store.FindOneAndUpdate(ctx, filter, patch, account.UpdateOptions{}); err != nil {
			return out, err
		}
		if d.Blocks {
			out.transition(TransitionBlocked)
		}
		return out, nil
	}

	if !d.NeedsToken {
		if _, err := deps.Store.FindByIDAndUpdate(ctx, state.ID, patch, account.UpdateOptions{}); err != nil {
			return out, err
		}
		if d.NeedsCode {
			out.transition(TransitionCodeIssued)
		}
		return out, nil
	}

	user, err := deps.Store.FindByIDAndUpdate(ctx, state.ID, patch, account.UpdateOptions{ReturnDocument: true})
	if err != nil {
		return out, err
	}
	if upgraded {
		out.transition(TransitionHashUpgraded)
	}

	token, err := deps.IssueToken(state.ID)
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}
	out.User = user
	out.Token = token
	return out, nil
}

// upgradedHash rehashes password when the stored hash uses outdated parameters.
// Failures are reported through Warn and leave the stored hash in place.
func upgradedHash[U any](password, encoded string, deps LoginDeps[U]) (string, bool) {
	if deps.NeedsUpgrade == nil || deps.HashPassword == nil {
		return "", false
	}
	needs, err := deps.NeedsUpgrade(encoded)
	if err != nil {
		deps.Warn("password hash upgrade check failed", err)
		return "", false
	}
	if !needs {
		return "", false
	}
	hash, err := deps.HashPassword(password)
	if err != nil {
		deps.Warn("password hash upgrade generation failed", err)
		return "", false
	}
	return hash, true
}

func checkPassword(verify func(string, string) (bool, error), password, encoded string) (bool, error) {
	if encoded == "" {
		return false, nil
	}
	ok, err := verify(password, encoded)
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return ok, nil
}

// findState returns nil without error when nothing matches.
func findState[U any](ctx context.Context, store account.Store[U], filter account.Filter) (*account.State, error) {
	state, err := store.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}
