package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/univlive/univlive-backend/api/routes"
	"github.com/univlive/univlive-backend/internal/auth"
	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/internal/seats"
	"github.com/univlive/univlive-backend/internal/students"
	"github.com/univlive/univlive-backend/internal/tenants"
	"github.com/univlive/univlive-backend/internal/users"
	rzwebhook "github.com/univlive/univlive-backend/internal/webhooks/razorpay"
	"github.com/univlive/univlive-backend/pkg/auth/session"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db"
	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/metrics"
	"github.com/univlive/univlive-backend/pkg/migrate"
	"github.com/univlive/univlive-backend/pkg/pubsub"
	"github.com/univlive/univlive-backend/pkg/razorpay"
	"github.com/univlive/univlive-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	razorpayClient, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create pubsub client", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "gcp project not configured, billing events disabled")
	}

	usersRepo := users.NewRepository(dbClient.DB())
	educatorsRepo := tenants.NewRepository(dbClient.DB())
	studentsRepo := students.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	authStores, err := auth.NewStores(dbClient, usersRepo, educatorsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth stores", err)
		os.Exit(1)
	}
	authService, err := auth.NewService(authStores, sessionManager, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	tenantsService, err := tenants.NewService(educatorsRepo, cfg.Tenant)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenants service", err)
		os.Exit(1)
	}

	studentsService, err := students.NewService(studentsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create students service", err)
		os.Exit(1)
	}

	billingService, err := newBillingService(dbClient, billingRepo, razorpayClient, pubsubClient, cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	seatsService, err := seats.NewService(dbClient, billingRepo, studentsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create seats service", err)
		os.Exit(1)
	}

	dedupeGuard, err := rzwebhook.NewDedupeGuard(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook dedupe guard", err)
		os.Exit(1)
	}
	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)
	webhookService, err := newWebhookService(dbClient, billingRepo, dedupeGuard, pubsubClient, webhookMetrics, logg, razorpayClient.WebhookSecret())
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			tenantsService,
			studentsService,
			billingService,
			seatsService,
			webhookService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}

// The billing and webhook constructors take unexported consumer interfaces;
// a disabled pubsub client has to be passed as an untyped nil so the services
// see a truly absent publisher.
func newBillingService(dbClient *db.Client, repo billing.Repository, rzp *razorpay.Client, ps *pubsub.Client, cfg *config.Config, logg *logger.Logger) (billing.Service, error) {
	if ps == nil {
		return billing.NewService(dbClient, repo, rzp, nil, cfg.Razorpay, logg)
	}
	return billing.NewService(dbClient, repo, rzp, ps, cfg.Razorpay, logg)
}

func newWebhookService(dbClient *db.Client, repo billing.Repository, guard *rzwebhook.DedupeGuard, ps *pubsub.Client, m *metrics.WebhookMetrics, logg *logger.Logger, secret string) (rzwebhook.Service, error) {
	if ps == nil {
		return rzwebhook.NewService(dbClient, repo, guard, nil, m, logg, secret)
	}
	return rzwebhook.NewService(dbClient, repo, guard, ps, m, logg, secret)
}
