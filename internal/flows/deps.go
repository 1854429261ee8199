package flows

import (
	"context"

	"github.com/MrEthical07/mongoAuth/account"
)

// Errors carries host-level sentinel errors used by the flows.
type Errors struct {
	EngineNotReady   error
	ConcurrentUpdate error
}

// LoginDeps captures login dependencies.
type LoginDeps[U any] struct {
	MaxAttempts        int
	ConditionalUpdates bool
	ConflictRetries    int
	UpgradeHashOnLogin bool

	Store account.Store[U]

	VerifyPassword func(plain, encoded string) (bool, error)
	NeedsUpgrade   func(encoded string) (bool, error)
	HashPassword   func(string) (string, error)
	GenerateCode   func() (string, error)
	IssueToken     func(id string) (string, error)

	Warn func(msg string, err error)

	Errors Errors
}

// AuthenticateDeps captures re-authentication dependencies.
type AuthenticateDeps[U any] struct {
	GuardReauth bool

	Store      account.Store[U]
	IssueToken func(id string) (string, error)

	Errors Errors
}

// RegisterDeps captures registration dependencies.
type RegisterDeps[U any] struct {
	Store account.Store[U]

	CheckThrottle func(ctx context.Context, email string) error
	HashPassword  func(string) (string, error)
	GenerateCode  func() (string, error)

	Errors Errors
}

// ForgotDeps captures forgot-password dependencies.
type ForgotDeps[U any] struct {
	Store account.Store[U]

	CheckThrottle func(ctx context.Context, email string) error
	GenerateCode  func() (string, error)

	Errors Errors
}

// ConfirmDeps captures code confirmation dependencies.
type ConfirmDeps[U any] struct {
	ConditionalUpdates bool

	Store account.Store[U]

	CheckThrottle func(ctx context.Context, email string) error
	HashPassword  func(string) (string, error)
	IssueToken    func(id string) (string, error)

	Errors Errors
}

func noWarn(string, error) {}
