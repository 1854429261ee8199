// Command mongoauth-loadtest drives concurrent logins against an engine and
// checks that the attempt counter and block flag stay consistent under
// contention.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	mongoAuth "github.com/MrEthical07/mongoAuth"
	"github.com/MrEthical07/mongoAuth/account"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type user struct {
	ID    bson.ObjectID `bson:"_id,omitempty"`
	Email string        `bson:"email"`
}

const seedPassword = "load-test-password"

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		maxAttempts = flag.Int("max-attempts", 5, "attempts before an account is blocked")
		mongoURI    = flag.String("mongo-uri", "", "mongo uri; if empty, MONGOAUTH_MONGO_URI env or the in-memory store is used")
		database    = flag.String("database", "mongoauth_loadtest", "mongo database")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 || *maxAttempts <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, ops and max-attempts must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	cfg := mongoAuth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("mongoauth-loadtest-signing-key-000")
	cfg.Login.MaxAttempts = *maxAttempts
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = 4

	uri := *mongoURI
	if uri == "" {
		uri = os.Getenv("MONGOAUTH_MONGO_URI")
	}

	store, cleanup, err := openStore(ctx, uri, *database, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	engine, err := mongoAuth.New[user]().WithConfig(cfg).WithStore(store).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	emails := make([]string, *accounts)
	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := range emails {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
		if err := seed(ctx, engine, emails[i]); err != nil {
			fmt.Fprintf(os.Stderr, "seed %s: %v\n", emails[i], err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) bool {
		res := engine.Login(ctx, emails[r.Intn(len(emails))], seedPassword, 0)
		return res.Status == mongoAuth.Logined
	})

	// Wrong passwords target a small hot set so attempts race on the same documents.
	hot := emails[:min(len(emails), *concurrency)]
	var blocked int64
	wrongStats := runPhase(*ops, *concurrency, func(r *rand.Rand) bool {
		res := engine.Login(ctx, hot[r.Intn(len(hot))], "not-the-password", 0)
		// Error here is a lost conflict retry under contention.
		return res.Status == mongoAuth.LeftAttempts || res.Status == mongoAuth.Blocked
	})

	for _, email := range hot {
		res := engine.Login(ctx, email, seedPassword, 0)
		if res.Status == mongoAuth.Blocked {
			blocked++
		}
	}

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("wrong-password", wrongStats)
	fmt.Printf("hot accounts blocked: %d/%d\n", blocked, len(hot))
	if wrongStats.ops >= len(hot)*(*maxAttempts)*4 && int(blocked) != len(hot) {
		fmt.Fprintln(os.Stderr, "expected every hot account to be blocked")
		os.Exit(1)
	}
}

func seed(ctx context.Context, engine *mongoAuth.Engine[user], email string) error {
	res := engine.Register(ctx, email, seedPassword, nil)
	if res.Status != mongoAuth.SendCode {
		return fmt.Errorf("register: %s: %v", res.Status, res.Error())
	}
	res = engine.ConfirmCode(ctx, email, res.Code, "")
	if res.Status != mongoAuth.Logined {
		return fmt.Errorf("confirm: %s: %v", res.Status, res.Error())
	}
	return nil
}

func openStore(ctx context.Context, uri, database string, cfg mongoAuth.Config) (account.Store[user], func(), error) {
	if uri == "" {
		fmt.Println("using in-memory store")
		store, err := account.NewMemoryStore[user](cfg.Fields, cfg.Projection)
		return store, func() {}, err
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = client.Disconnect(context.Background()) }

	coll := client.Database(database).Collection("users")
	if err := coll.Drop(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	store, err := account.NewMongoStore[user](coll, cfg.Fields, cfg.Projection)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	fmt.Printf("using mongo at %s\n", uri)
	return store, cleanup, nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(r)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
