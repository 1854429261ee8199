// Command mongoauth-demo serves the mongoAuth operations over HTTP.
//
// Configuration comes from MONGOAUTH_* variables or a .env file. Without
// MONGOAUTH_MONGO_URI accounts live in memory, and without
// MONGOAUTH_REDIS_ADDR an embedded miniredis backs the throttles.
//
//	POST /register  {"email":"...","password":"...","name":"..."}
//	POST /confirm   {"email":"...","code":"...","new_password":"..."}
//	POST /login     {"email":"...","password":"..."}
//	POST /forgot    {"email":"..."}
//	GET  /me        Authorization: Bearer <token>
//	GET  /metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongoAuth "github.com/MrEthical07/mongoAuth"
	"github.com/MrEthical07/mongoAuth/account"
	"github.com/MrEthical07/mongoAuth/internal/config"
	"github.com/MrEthical07/mongoAuth/internal/logger"
	promexport "github.com/MrEthical07/mongoAuth/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.Must(cfg.App.Env)
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("demo stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, lg *zap.Logger) error {
	engineCfg := cfg.EngineConfig()

	store, closeStore, err := openStore(ctx, cfg, engineCfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, closeRedis, err := openRedis(cfg, lg)
	if err != nil {
		return err
	}
	defer closeRedis()

	engine, err := mongoAuth.New[User]().
		WithConfig(engineCfg).
		WithStore(store).
		WithRedis(rdb).
		WithLogger(lg).
		WithAuditSink(mongoAuth.NewZapSink(lg)).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	report := engine.SecurityReport()
	for _, w := range report.Warnings {
		lg.Warn("security posture", zap.String("warning", w))
	}
	if cfg.Production() && !report.ConfirmThrottled {
		lg.Warn("confirm throttle disabled in production")
	}

	srv := &server{
		engine:            engine,
		sender:            logSender{logger: lg.Named("mailer")},
		logger:            lg,
		metrics:           promexport.NewPrometheusExporter(engine).Handler(),
		requestsPerMinute: cfg.HTTPRate.RequestsPerMinute,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	lg.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.AppConfig, engineCfg mongoAuth.Config, lg *zap.Logger) (account.Store[User], func(), error) {
	if cfg.Mongo.URI == "" {
		lg.Warn("mongo uri not set, using in-memory accounts")
		store, err := account.NewMemoryStore[User](engineCfg.Fields, engineCfg.Projection)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pctx, nil); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	store, err := account.NewMongoStore[User](coll, engineCfg.Fields, engineCfg.Projection)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := store.EnsureIndexes(pctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	lg.Info("using mongo accounts",
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Mongo.Collection),
	)
	return store, closeFn, nil
}

func openRedis(cfg *config.AppConfig, lg *zap.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Redis.Addr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		lg.Warn("redis addr not set, using miniredis", zap.String("addr", mr.Addr()))
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return client, func() { _ = client.Close() }, nil
}
