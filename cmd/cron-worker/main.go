package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/internal/cron"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db"
	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/metrics"
	"github.com/univlive/univlive-backend/pkg/migrate"
	"github.com/univlive/univlive-backend/pkg/razorpay"
	"github.com/univlive/univlive-backend/pkg/redis"
)

const lockKeyFormat = "ul:cron-worker:lock:%s"

func main() {
	ctx := context.Background()
	log := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		log.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	fatalOn(ctx, log, "load config", err)

	cfg.Service.Kind = "cron-worker"
	log = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, log)
	fatalOn(ctx, log, "bootstrap database", err)
	defer closeQuietly(ctx, log, "database", dbClient.Close)

	err = migrate.MaybeRunDev(ctx, cfg, log, dbClient)
	fatalOn(ctx, log, "run dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, log)
	fatalOn(ctx, log, "bootstrap redis", err)
	defer closeQuietly(ctx, log, "redis", redisClient.Close)

	razorpayClient, err := razorpay.NewClient(ctx, cfg.Razorpay, log)
	fatalOn(ctx, log, "create razorpay client", err)

	reconcileJob, err := cron.NewSubscriptionReconcileJob(cron.SubscriptionReconcileJobParams{
		Logger:      log,
		DB:          dbClient,
		BillingRepo: billing.NewRepository(dbClient.DB()),
		Gateway:     razorpayClient,
		Limit:       cfg.Cron.ReconcileLimit,
		Lookback:    cfg.Cron.ReconcileLookback,
	})
	fatalOn(ctx, log, "create reconcile job", err)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	fatalOn(ctx, log, "create cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   log,
		Registry: cron.NewRegistry(reconcileJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	fatalOn(ctx, log, "create cron service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = log.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	log.Info(runCtx, "starting cron worker")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(runCtx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	log.Info(runCtx, "cron worker shutting down gracefully")
}

func fatalOn(ctx context.Context, log *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	log.Error(ctx, "startup failed: "+step, err)
	os.Exit(1)
}

func closeQuietly(ctx context.Context, log *logger.Logger, name string, close func() error) {
	if err := close(); err != nil {
		log.Error(ctx, "error closing "+name, err)
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
