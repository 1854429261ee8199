//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"

	mongoAuth "github.com/MrEthical07/mongoAuth"
	"github.com/MrEthical07/mongoAuth/account"
)

func TestStoreConsistencyConcurrentWrongPasswordsBlock(t *testing.T) {
	const maxAttempts = 3
	engine, store, _ := newIntegrationEngine(t, func(cfg *mongoAuth.Config) {
		cfg.Login.ConflictRetries = 10
	})
	registerActive(t, engine, "race@example.com", "correct-horse")

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.Login(context.Background(), "race@example.com", "wrong-password", maxAttempts)
		}()
	}
	wg.Wait()

	state, err := store.FindOne(context.Background(), account.Filter{Email: "race@example.com"})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if !state.Blocked {
		t.Fatalf("expected account blocked after concurrent failures")
	}
	if state.Attempts != maxAttempts {
		t.Fatalf("expected attempts %d, got %d", maxAttempts, state.Attempts)
	}

	res := engine.Login(context.Background(), "race@example.com", "correct-horse", maxAttempts)
	if res.Status != mongoAuth.Blocked {
		t.Fatalf("expected blocked, got %s", res.Status)
	}
}

func TestStoreConsistencyConcurrentRegisterSingleWinner(t *testing.T) {
	engine, _, _ := newIntegrationEngine(t, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[mongoAuth.Status]int{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := engine.Register(context.Background(), "dup@example.com", "correct-horse", nil)
			mu.Lock()
			results[res.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if results[mongoAuth.SendCode] != 1 {
		t.Fatalf("expected one send_code, got %v", results)
	}
	if results[mongoAuth.UserExists] != 7 {
		t.Fatalf("expected seven user_exists, got %v", results)
	}
}

func TestStoreConsistencyProjectionHidesSecrets(t *testing.T) {
	engine, _, _ := newIntegrationEngine(t, nil)
	registerActive(t, engine, "proj@example.com", "correct-horse")

	res := engine.Login(context.Background(), "proj@example.com", "correct-horse", 0)
	if res.Status != mongoAuth.Logined {
		t.Fatalf("expected logined, got %s", res.Status)
	}
	if res.User == nil || res.User.Email != "proj@example.com" || res.User.Name != "it" {
		t.Fatalf("unexpected projected user: %+v", res.User)
	}

	again := engine.AuthenticateByID(context.Background(), res.User.ID.Hex())
	if again.Status != mongoAuth.Logined || again.JWT == "" {
		t.Fatalf("expected re-authentication, got %s (%v)", again.Status, again.Error())
	}
}
