package flows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/mongoAuth/account"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	errNotReady   = errors.New("engine not ready")
	errConcurrent = errors.New("concurrent update")
	testErrors    = Errors{EngineNotReady: errNotReady, ConcurrentUpdate: errConcurrent}
)

type testUser struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password,omitempty"`
	Code      string        `bson:"code,omitempty"`
	IsActive  bool          `bson:"isActive"`
	IsBlocked bool          `bson:"isBlocked"`
	Attempts  int           `bson:"attempts"`
	Name      string        `bson:"name,omitempty"`
}

func newFlowStore(t *testing.T) *account.MemoryStore[testUser] {
	t.Helper()

	fields := account.DefaultFields()
	store, err := account.NewMemoryStore[testUser](fields, account.DefaultProjection(fields))
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	return store
}

func seedAccount(t *testing.T, store account.Store[testUser], state account.State) string {
	t.Helper()

	id, err := store.Create(context.Background(), state, nil)
	if err != nil {
		t.Fatalf("seed account failed: %v", err)
	}
	return id
}

func mustState(t *testing.T, store account.Store[testUser], email string) *account.State {
	t.Helper()

	state, err := store.FindOne(context.Background(), account.Filter{Email: email})
	if err != nil {
		t.Fatalf("FindOne(%q) failed: %v", email, err)
	}
	return state
}

func fakeHash(p string) (string, error) { return "h:" + p, nil }

func fakeVerify(p, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "h:") {
		return false, errors.New("malformed hash")
	}
	return encoded == "h:"+p, nil
}

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func tokenFor(id string) (string, error) { return "token-" + id, nil }

func loginDeps(store account.Store[testUser]) LoginDeps[testUser] {
	return LoginDeps[testUser]{
		MaxAttempts:        3,
		ConditionalUpdates: true,
		ConflictRetries:    3,
		Store:              store,
		VerifyPassword:     fakeVerify,
		HashPassword:       fakeHash,
		GenerateCode:       fixedCode("424242"),
		IssueToken:         tokenFor,
		Errors:             testErrors,
	}
}

// racingStore simulates a concurrent failed login landing between the read and
// the guarded write, for the first races guarded writes.
type racingStore struct {
	account.Store[testUser]
	races int
}

func (s *racingStore) FindOneAndUpdate(ctx context.Context, filter account.Filter, patch account.Patch, opts account.UpdateOptions) (*testUser, error) {
	if filter.Attempts != nil && s.races > 0 {
		s.races--
		bumped := *filter.Attempts + 1
		if _, err := s.Store.FindByIDAndUpdate(ctx, filter.ID, account.Patch{Attempts: &bumped}, account.UpdateOptions{}); err != nil {
			return nil, err
		}
	}
	return s.Store.FindOneAndUpdate(ctx, filter, patch, opts)
}

// faultyStore fails every read.
type faultyStore struct {
	account.Store[testUser]
	err error
}

func (s faultyStore) FindOne(context.Context, account.Filter) (*account.State, error) {
	return nil, s.err
}
