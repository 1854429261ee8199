//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	mongoAuth "github.com/MrEthical07/mongoAuth"
	"github.com/MrEthical07/mongoAuth/account"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type user struct {
	ID       bson.ObjectID `bson:"_id,omitempty"`
	Email    string        `bson:"email"`
	Name     string        `bson:"name,omitempty"`
	IsActive bool          `bson:"isActive"`
}

// newIntegrationCollection returns a fresh collection on the server named by
// MONGOAUTH_TEST_MONGO_URI and skips the test when the variable is unset.
func newIntegrationCollection(t *testing.T) *mongo.Collection {
	t.Helper()

	uri := os.Getenv("MONGOAUTH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MONGOAUTH_TEST_MONGO_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("mongo ping failed: %v", err)
	}

	coll := client.Database("mongoauth_it").Collection(fmt.Sprintf("users_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = coll.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return coll
}

func newIntegrationEngine(t *testing.T, mutate func(*mongoAuth.Config)) (*mongoAuth.Engine[user], *account.MongoStore[user], *miniredis.Miniredis) {
	t.Helper()

	coll := newIntegrationCollection(t)

	cfg := mongoAuth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("integration-signing-key-0123456789")
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = 4
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := account.NewMongoStore[user](coll, cfg.Fields, cfg.Projection)
	if err != nil {
		t.Fatalf("NewMongoStore failed: %v", err)
	}
	if err := store.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	engine, err := mongoAuth.New[user]().
		WithConfig(cfg).
		WithStore(store).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store, mr
}

func registerActive(t *testing.T, engine *mongoAuth.Engine[user], email, password string) {
	t.Helper()
	ctx := context.Background()

	reg := engine.Register(ctx, email, password, &user{Name: "it"})
	if reg.Status != mongoAuth.SendCode {
		t.Fatalf("Register: expected send_code, got %s (%v)", reg.Status, reg.Error())
	}
	res := engine.ConfirmCode(ctx, email, reg.Code, "")
	if res.Status != mongoAuth.Logined {
		t.Fatalf("ConfirmCode: expected logined, got %s (%v)", res.Status, res.Error())
	}
}
