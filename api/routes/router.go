package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/univlive/univlive-backend/api/controllers"
	webhookcontrollers "github.com/univlive/univlive-backend/api/controllers/webhooks"
	"github.com/univlive/univlive-backend/api/middleware"
	"github.com/univlive/univlive-backend/internal/auth"
	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/internal/seats"
	"github.com/univlive/univlive-backend/internal/students"
	"github.com/univlive/univlive-backend/internal/tenants"
	"github.com/univlive/univlive-backend/pkg/auth/session"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db"
	"github.com/univlive/univlive-backend/pkg/enums"
	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	tenantsService tenants.Service,
	studentsService students.Service,
	billingService billing.Service,
	seatsService seats.Service,
	webhookService webhookcontrollers.RazorpayWebhookService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.ReadinessProbe{
			"database": dbP,
			"redis":    redisClient,
		}))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/tenants/resolve", controllers.TenantResolve(tenantsService, logg))
	})

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(webhookService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.UserRoleEducator), string(enums.UserRoleAdmin)))
			r.Use(middleware.RequireEducatorContext(logg))

			r.Route("/students", func(r chi.Router) {
				r.Post("/", controllers.StudentCreate(studentsService, logg))
				r.Get("/", controllers.StudentList(studentsService, logg))
				r.Get("/{studentID}", controllers.StudentGet(studentsService, logg))
			})

			r.Route("/billing", func(r chi.Router) {
				r.Post("/subscribe", controllers.BillingSubscribe(billingService, logg))
				r.Post("/verify-payment", controllers.BillingVerifyPayment(billingService, logg))
				r.Post("/cancel", controllers.BillingCancel(billingService, logg))
				r.Get("/subscription", controllers.BillingOverview(billingService, logg))
				r.Get("/invoices", controllers.BillingInvoices(billingService, logg))
			})

			r.Route("/seats", func(r chi.Router) {
				r.Get("/", controllers.SeatList(seatsService, logg))
				r.Post("/assign", controllers.SeatAssign(seatsService, logg))
				r.Post("/revoke", controllers.SeatRevoke(seatsService, logg))
			})
		})
	})

	return r
}
