package account

import "context"

// Store is the persistence contract of the engine. U is the host document type
// returned as the sanitized (projected) account view.
//
// Lookups that match nothing return ErrNotFound. Updates whose Filter carries an
// Attempts guard return ErrConflict instead when nothing matches.
type Store[U any] interface {
	// FindOne returns the snapshot of the single account matching filter.
	FindOne(ctx context.Context, filter Filter) (*State, error)
	// FindByID returns the projected document with the given id.
	FindByID(ctx context.Context, id string) (*U, error)
	// Create inserts a new account built from state merged over extra and
	// returns its id. A taken email yields ErrDuplicate.
	Create(ctx context.Context, state State, extra *U) (string, error)
	// FindOneAndUpdate applies patch to the account matching filter.
	FindOneAndUpdate(ctx context.Context, filter Filter, patch Patch, opts UpdateOptions) (*U, error)
	// FindByIDAndUpdate applies patch to the account with the given id.
	FindByIDAndUpdate(ctx context.Context, id string, patch Patch, opts UpdateOptions) (*U, error)
}

// Unblocker is implemented by stores that expose the administrative unblock
// path. The engine never calls it.
type Unblocker interface {
	Unblock(ctx context.Context, email string) error
}
