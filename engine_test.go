package mongoAuth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/MrEthical07/mongoAuth/codes"
	"github.com/MrEthical07/mongoAuth/jwt"
	"github.com/MrEthical07/mongoAuth/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginThreeStrikesThenBlocked(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.activate(t, "alice@example.com", testPassword)
	ctx := context.Background()

	res := env.engine.Login(ctx, "alice@example.com", "wrong-password", 3)
	require.Equal(t, LeftAttempts, res.Status)
	assert.Equal(t, 2, res.LeftAttempts)

	res = env.engine.Login(ctx, "alice@example.com", "wrong-password", 3)
	require.Equal(t, LeftAttempts, res.Status)
	assert.Equal(t, 1, res.LeftAttempts)

	res = env.engine.Login(ctx, "alice@example.com", "wrong-password", 3)
	require.Equal(t, Blocked, res.Status)
	assert.Empty(t, res.JWT)

	st := env.state(t, "alice@example.com")
	assert.True(t, st.Blocked)
	assert.Equal(t, 3, st.Attempts)

	// Any password, including the right one, stays blocked and writes nothing.
	for _, pw := range []string{"wrong-password", testPassword} {
		res = env.engine.Login(ctx, "alice@example.com", pw, 3)
		assert.Equal(t, Blocked, res.Status)
		assert.Zero(t, res.LeftAttempts)
	}
	assert.Equal(t, 3, env.state(t, "alice@example.com").Attempts)
}

func TestLoginAttemptsCappedAtMax(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.activate(t, "cap@example.com", testPassword)
	ctx := context.Background()

	env.engine.Login(ctx, "cap@example.com", "wrong-password", 5)
	env.engine.Login(ctx, "cap@example.com", "wrong-password", 5)

	// A lower limit on a later call blocks at that limit.
	res := env.engine.Login(ctx, "cap@example.com", "wrong-password", 2)
	require.Equal(t, Blocked, res.Status)

	st := env.state(t, "cap@example.com")
	assert.True(t, st.Blocked)
	assert.Equal(t, 2, st.Attempts)
}

func TestLoginSuccessResetsAttempts(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.activate(t, "reset@example.com", testPassword)
	ctx := context.Background()

	env.engine.Login(ctx, "reset@example.com", "wrong-password", 3)
	env.engine.Login(ctx, "reset@example.com", "wrong-password", 3)

	res := env.engine.Login(ctx, "reset@example.com", testPassword, 3)
	require.Equal(t, Logined, res.Status)
	require.True(t, res.OK())
	require.NotEmpty(t, res.JWT)
	require.NotNil(t, res.User)
	assert.Equal(t, "reset@example.com", res.User.Email)
	assert.Empty(t, res.User.Password, "projection must hide the hash")
	assert.Empty(t, res.User.Code, "projection must hide the code")
	assert.Equal(t, 0, env.state(t, "reset@example.com").Attempts)

	res = env.engine.Login(ctx, "reset@example.com", "wrong-password", 3)
	require.Equal(t, LeftAttempts, res.Status)
	assert.Equal(t, 2, res.LeftAttempts)
}

func TestLoginOverlongPasswordCountsAsWrong(t *testing.T) {
	for _, algorithm := range []string{"argon2", "bcrypt"} {
		t.Run(algorithm, func(t *testing.T) {
			env := newTestEnv(t, func(cfg *Config) {
				cfg.Password.Algorithm = algorithm
				cfg.Password.BcryptCost = 4
			}, nil)
			env.activate(t, "long@example.com", testPassword)
			ctx := context.Background()
			long := strings.Repeat("x", 2000)

			res := env.engine.Login(ctx, "long@example.com", long, 3)
			require.Equal(t, LeftAttempts, res.Status, "err: %v", res.Err)
			assert.Equal(t, 2, res.LeftAttempts)

			env.engine.Login(ctx, "long@example.com", long, 3)
			res = env.engine.Login(ctx, "long@example.com", long, 3)
			require.Equal(t, Blocked, res.Status)

			st := env.state(t, "long@example.com")
			assert.True(t, st.Blocked)
			assert.Equal(t, 3, st.Attempts)
		})
	}
}

func TestLoginDefaultMaxAttempts(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.Login.MaxAttempts = 2 }, nil)
	env.activate(t, "def@example.com", testPassword)

	res := env.engine.Login(context.Background(), "def@example.com", "wrong-password", 0)
	require.Equal(t, LeftAttempts, res.Status)
	assert.Equal(t, 1, res.LeftAttempts)

	res = env.engine.Login(context.Background(), "def@example.com", "wrong-password", -1)
	assert.Equal(t, Blocked, res.Status)
}

func TestLoginNotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	res := env.engine.Login(context.Background(), "ghost@example.com", testPassword, 3)
	assert.Equal(t, NotFound, res.Status)
	assert.NoError(t, res.Error())
}

func TestLoginInactiveCorrectPasswordReissuesCode(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.Codes.Strategy = codes.StrategyUUID }, nil)
	ctx := context.Background()

	reg := env.engine.Register(ctx, "new@example.com", testPassword, nil)
	require.Equal(t, SendCode, reg.Status)

	res := env.engine.Login(ctx, "new@example.com", testPassword, 3)
	require.Equal(t, SendCode, res.Status)
	require.NotEmpty(t, res.Code)
	assert.NotEqual(t, reg.Code, res.Code)
	assert.Empty(t, res.JWT)

	st := env.state(t, "new@example.com")
	assert.False(t, st.Active)
	assert.Equal(t, res.Code, st.Code)

	// The registration code was replaced.
	stale := env.engine.ConfirmCode(ctx, "new@example.com", reg.Code, "")
	assert.Equal(t, WrongConfirmCode, stale.Status)

	ok := env.engine.ConfirmCode(ctx, "new@example.com", res.Code, "")
	assert.Equal(t, Logined, ok.Status)
}

func TestLoginInactiveWrongPasswordCountsAttempts(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()

	require.Equal(t, SendCode, env.engine.Register(ctx, "idle@example.com", testPassword, nil).Status)

	res := env.engine.Login(ctx, "idle@example.com", "wrong-password", 2)
	require.Equal(t, LeftAttempts, res.Status)
	assert.Equal(t, 1, res.LeftAttempts)

	res = env.engine.Login(ctx, "idle@example.com", "wrong-password", 2)
	assert.Equal(t, Blocked, res.Status)
}

func TestRegisterConfirmLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()

	reg := env.engine.Register(ctx, "round@example.com", testPassword, &testUser{Name: "Round"})
	require.Equal(t, SendCode, reg.Status)
	require.Len(t, reg.Code, 6)

	st := env.state(t, "round@example.com")
	assert.False(t, st.Active)
	assert.False(t, st.Blocked)
	assert.Equal(t, 0, st.Attempts)
	assert.True(t, st.HasCode)
	assert.NotEqual(t, testPassword, st.PasswordHash)

	dup := env.engine.Register(ctx, "round@example.com", "another-password", nil)
	assert.Equal(t, UserExists, dup.Status)
	assert.Empty(t, dup.Code)

	wrong := env.engine.ConfirmCode(ctx, "round@example.com", "not-the-code", "")
	assert.Equal(t, WrongConfirmCode, wrong.Status)
	empty := env.engine.ConfirmCode(ctx, "round@example.com", "", "")
	assert.Equal(t, WrongConfirmCode, empty.Status)

	conf := env.engine.ConfirmCode(ctx, "round@example.com", reg.Code, "")
	require.Equal(t, Logined, conf.Status)
	require.NotNil(t, conf.User)
	assert.Equal(t, "Round", conf.User.Name)
	assert.True(t, conf.User.IsActive)

	id, err := env.engine.parser.ParseID(conf.JWT)
	require.NoError(t, err)
	assert.Equal(t, conf.User.ID.Hex(), id)

	st = env.state(t, "round@example.com")
	assert.True(t, st.Active)
	assert.False(t, st.HasCode)

	again := env.engine.ConfirmCode(ctx, "round@example.com", reg.Code, "")
	assert.Equal(t, WrongConfirmCode, again.Status, "a code is single use")

	login := env.engine.Login(ctx, "round@example.com", testPassword, 3)
	assert.Equal(t, Logined, login.Status)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	res := env.engine.Register(context.Background(), "short@example.com", "short", nil)
	require.Equal(t, Error, res.Status)
	assert.ErrorIs(t, res.Error(), password.ErrPasswordTooShort)
	assert.Equal(t, 0, env.store.Count())
}

func TestForgotPasswordAndReset(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.activate(t, "forgot@example.com", testPassword)
	ctx := context.Background()

	unknown := env.engine.ForgotPassword(ctx, "nobody@example.com")
	assert.Equal(t, WrongEmail, unknown.Status)

	before := env.state(t, "forgot@example.com")
	res := env.engine.ForgotPassword(ctx, "forgot@example.com")
	require.Equal(t, SendCode, res.Status)
	require.NotEmpty(t, res.Code)

	after := env.state(t, "forgot@example.com")
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, before.Active, after.Active)
	assert.Equal(t, before.Blocked, after.Blocked)
	assert.Equal(t, res.Code, after.Code)

	const newPassword = "a-brand-new-password"
	conf := env.engine.ConfirmCode(ctx, "forgot@example.com", res.Code, newPassword)
	require.Equal(t, Logined, conf.Status)

	assert.Equal(t, LeftAttempts, env.engine.Login(ctx, "forgot@example.com", testPassword, 3).Status)
	assert.Equal(t, Logined, env.engine.Login(ctx, "forgot@example.com", newPassword, 3).Status)
}

func TestConfirmDoesNotUnblock(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.activate(t, "locked@example.com", testPassword)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		env.engine.Login(ctx, "locked@example.com", "wrong-password", 2)
	}
	require.True(t, env.state(t, "locked@example.com").Blocked)

	fp := env.engine.ForgotPassword(ctx, "locked@example.com")
	require.Equal(t, SendCode, fp.Status)
	conf := env.engine.ConfirmCode(ctx, "locked@example.com", fp.Code, "")
	require.Equal(t, Logined, conf.Status)

	st := env.state(t, "locked@example.com")
	assert.True(t, st.Blocked)
	assert.Equal(t, 0, st.Attempts)
	assert.Equal(t, Blocked, env.engine.Login(ctx, "locked@example.com", testPassword, 2).Status)

	require.NoError(t, env.store.Unblock(ctx, "locked@example.com"))
	assert.Equal(t, Logined, env.engine.Login(ctx, "locked@example.com", testPassword, 2).Status)
}

func TestAuthenticateByIDIgnoresFlagsByDefault(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	id := env.activate(t, "reauth@example.com", testPassword)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		env.engine.Login(ctx, "reauth@example.com", "wrong-password", 2)
	}

	res := env.engine.AuthenticateByID(ctx, id)
	require.Equal(t, Logined, res.Status)
	assert.NotEmpty(t, res.JWT)
	require.NotNil(t, res.User)
	assert.True(t, res.User.IsBlocked)

	assert.Equal(t, NotFound, env.engine.AuthenticateByID(ctx, "").Status)
	assert.Equal(t, NotFound, env.engine.AuthenticateByID(ctx, "000000000000000000000000").Status)
}

func TestAuthenticateByIDGuarded(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.Login.GuardReauth = true }, nil)
	ctx := context.Background()

	active := env.activate(t, "ok@example.com", testPassword)
	assert.Equal(t, Logined, env.engine.AuthenticateByID(ctx, active).Status)

	reg := env.engine.Register(ctx, "pending@example.com", testPassword, nil)
	require.Equal(t, SendCode, reg.Status)
	pending := env.state(t, "pending@example.com").ID
	assert.Equal(t, NotActive, env.engine.AuthenticateByID(ctx, pending).Status)

	for i := 0; i < 2; i++ {
		env.engine.Login(ctx, "ok@example.com", "wrong-password", 2)
	}
	assert.Equal(t, Blocked, env.engine.AuthenticateByID(ctx, active).Status)
}

func TestAuthenticateToken(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.activate(t, "tok@example.com", testPassword)
	ctx := context.Background()

	login := env.engine.Login(ctx, "tok@example.com", testPassword, 3)
	require.Equal(t, Logined, login.Status)

	res := env.engine.AuthenticateToken(ctx, login.JWT)
	require.Equal(t, Logined, res.Status)
	assert.Equal(t, login.User.ID, res.User.ID)

	bad := env.engine.AuthenticateToken(ctx, "not-a-jwt")
	require.Equal(t, Error, bad.Status)
	assert.ErrorIs(t, bad.Error(), ErrInvalidToken)
}

type issuerOnly struct{}

func (issuerOnly) Issue(id string) (string, error) { return "opaque-" + id, nil }

func TestAuthenticateTokenWithoutParser(t *testing.T) {
	env := newTestEnv(t, nil, func(b *Builder[testUser]) { b.WithTokenIssuer(issuerOnly{}) })

	res := env.engine.AuthenticateToken(context.Background(), "opaque-x")
	require.Equal(t, Error, res.Status)
	assert.ErrorIs(t, res.Error(), ErrTokenParserMissing)

	id := env.activate(t, "opaque@example.com", testPassword)
	login := env.engine.Login(context.Background(), "opaque@example.com", testPassword, 3)
	assert.Equal(t, "opaque-"+id, login.JWT)
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine[testUser]
	ctx := context.Background()

	for _, res := range []Result[testUser]{
		e.Login(ctx, "a@example.com", testPassword, 3),
		e.AuthenticateByID(ctx, "id"),
		e.AuthenticateToken(ctx, "token"),
		e.Register(ctx, "a@example.com", testPassword, nil),
		e.ForgotPassword(ctx, "a@example.com"),
		e.ConfirmCode(ctx, "a@example.com", "123456", ""),
	} {
		assert.Equal(t, Error, res.Status)
		assert.ErrorIs(t, res.Error(), ErrEngineNotReady)
	}
	e.Close()
	assert.Zero(t, e.AuditDropped())
}

func TestConcurrentWrongPasswordsBlockOnce(t *testing.T) {
	const maxAttempts = 5
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Login.ConflictRetries = 64
		cfg.Metrics.Enabled = true
	}, nil)
	env.activate(t, "race@example.com", testPassword)

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.engine.Login(context.Background(), "race@example.com", "wrong-password", maxAttempts)
		}()
	}
	wg.Wait()

	st := env.state(t, "race@example.com")
	assert.True(t, st.Blocked)
	assert.Equal(t, maxAttempts, st.Attempts)

	snap := env.engine.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricAccountBlocked])
	assert.Equal(t, uint64(maxAttempts-1), snap.Counters[MetricLoginWrongPassword])
}

func TestPasswordHashUpgradedOnLogin(t *testing.T) {
	old := testConfig()
	old.Password.Algorithm = "bcrypt"
	old.Password.BcryptCost = 4

	env := newTestEnv(t, func(cfg *Config) { *cfg = old }, nil)
	env.activate(t, "up@example.com", testPassword)
	before := env.state(t, "up@example.com").PasswordHash

	stronger := old
	stronger.Password.BcryptCost = 5
	stronger.Metrics.Enabled = true
	engine, err := New[testUser]().WithConfig(stronger).WithStore(env.store).Build()
	require.NoError(t, err)
	defer engine.Close()

	res := engine.Login(context.Background(), "up@example.com", testPassword, 3)
	require.Equal(t, Logined, res.Status)

	after := env.state(t, "up@example.com").PasswordHash
	assert.NotEqual(t, before, after)
	assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[MetricPasswordHashUpgraded])

	res = engine.Login(context.Background(), "up@example.com", testPassword, 3)
	require.Equal(t, Logined, res.Status)
	assert.Equal(t, after, env.state(t, "up@example.com").PasswordHash)
}

func TestIssuedTokenCarriesID(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	id := env.activate(t, "claims@example.com", testPassword)

	res := env.engine.Login(context.Background(), "claims@example.com", testPassword, 3)
	require.Equal(t, Logined, res.Status)

	m, err := jwt.NewManager(jwt.Config{
		TTL:           testConfig().JWT.TTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    testConfig().JWT.PrivateKey,
	})
	require.NoError(t, err)
	got, err := m.ParseID(res.JWT)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestStoreFaultBecomesError(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := env.engine.Login(ctx, "any@example.com", testPassword, 3)
	require.Equal(t, Error, res.Status)
	assert.True(t, errors.Is(res.Error(), context.Canceled))
}
