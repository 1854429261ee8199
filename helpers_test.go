package mongoAuth

import (
	"context"
	"testing"

	"github.com/MrEthical07/mongoAuth/account"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type testUser struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email,omitempty"`
	Name      string        `bson:"name,omitempty"`
	IsActive  bool          `bson:"isActive"`
	IsBlocked bool          `bson:"isBlocked"`
	Attempts  int           `bson:"attempts"`
	Password  string        `bson:"password,omitempty"`
	Code      string        `bson:"code,omitempty"`
}

const testPassword = "correct-horse-battery"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

type testEnv struct {
	engine *Engine[testUser]
	store  *account.MemoryStore[testUser]
	redis  *miniredis.Miniredis
}

// newTestEnv builds an engine over a fresh MemoryStore and miniredis. mutate
// and configure may be nil.
func newTestEnv(t testing.TB, mutate func(*Config), configure func(*Builder[testUser])) testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := account.NewMemoryStore[testUser](cfg.Fields, cfg.Projection)
	require.NoError(t, err)

	mr, rdb := newTestRedis(t)

	b := New[testUser]().
		WithConfig(cfg).
		WithStore(store).
		WithRedis(rdb)
	if configure != nil {
		configure(b)
	}
	engine, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return testEnv{engine: engine, store: store, redis: mr}
}

// activate registers email and confirms it, returning the account id.
func (env testEnv) activate(t testing.TB, email, password string) string {
	t.Helper()
	ctx := context.Background()

	reg := env.engine.Register(ctx, email, password, &testUser{Name: "test"})
	require.Equal(t, SendCode, reg.Status, "register: %v", reg.Error())
	require.NotEmpty(t, reg.Code)

	res := env.engine.ConfirmCode(ctx, email, reg.Code, "")
	require.Equal(t, Logined, res.Status, "confirm: %v", res.Error())
	require.NotNil(t, res.User)
	return res.User.ID.Hex()
}

func (env testEnv) state(t *testing.T, email string) *account.State {
	t.Helper()
	st, err := env.store.FindOne(context.Background(), account.Filter{Email: email})
	require.NoError(t, err)
	return st
}
