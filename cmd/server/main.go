package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"complyline/internal/activity"
	"complyline/internal/document/engine"
	docmetrics "complyline/internal/document/metrics"
	"complyline/internal/document/feed"
	"complyline/internal/document/handler"
	pgstore "complyline/internal/document/store/postgres"
	"complyline/internal/platform/config"
	"complyline/internal/platform/httpserver"
	"complyline/internal/platform/logger"
	"complyline/internal/platform/metrics"
	"complyline/internal/platform/middleware"
	"complyline/internal/platform/postgres"
	"complyline/internal/platform/redis"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pgstore.Migrate(ctx, db); err != nil {
		log.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	storeOpts := []pgstore.Option{pgstore.WithLogger(log)}
	var subscriber feed.Subscriber
	if redisClient != nil {
		defer redisClient.Close()
		storeOpts = append(storeOpts,
			pgstore.WithPublisher(feed.NewRedisPublisher(redisClient.Client, cfg.Documents.FeedChannel)))
		subscriber = feed.NewRedisSubscriber(redisClient.Client, cfg.Documents.FeedChannel, log)
	} else {
		log.Warn("redis not configured, change feed disabled")
	}
	store := pgstore.New(db, storeOpts...)

	var publisher engine.ActivityPublisher = activity.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := activity.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ActivityTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		log.Warn("kafka not configured, activity trail disabled")
	}

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(docmetrics.New()),
		engine.WithActivityPublisher(publisher),
		engine.WithTickInterval(cfg.Documents.TickInterval),
		engine.WithOverdueThreshold(cfg.Documents.OverdueThreshold),
		engine.WithExpiryLookahead(cfg.Documents.ExpiryLookahead),
	}
	if subscriber != nil {
		engineOpts = append(engineOpts, engine.WithSubscriber(subscriber))
	}
	eng, err := engine.New(store, engineOpts...)
	if err != nil {
		log.Error("failed to start lifecycle engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	if _, err := eng.Fetch(ctx); err != nil {
		// Recoverable; the UI retries through /documents/refresh.
		log.Warn("initial document fetch failed", "error", err)
	}

	router := chi.NewRouter()
	docHandler := handler.New(eng, log, metrics.New(), middleware.NewHMACValidator(cfg.JWTSigningKey))
	docHandler.Register(router)

	healthz := &handler.Healthz{Checks: map[string]func(ctx context.Context) error{
		"postgres": func(ctx context.Context) error { return postgres.Health(ctx, db) },
	}}
	if redisClient != nil {
		healthz.Checks["redis"] = redisClient.Health
	}
	healthz.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting complyline", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
