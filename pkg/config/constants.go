package config

// EnvPrefix scopes every environment variable the platform reads.
const EnvPrefix = "UNIVLIVE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "UNIVLIVE_APP_ENV"
	EnvPort       = "UNIVLIVE_APP_PORT"
	EnvDBDSN      = "UNIVLIVE_DB_DSN"
	EnvDBHost     = "UNIVLIVE_DB_HOST"
	EnvDBUser     = "UNIVLIVE_DB_USER"
	EnvDBName     = "UNIVLIVE_DB_NAME"
	EnvRedisURL   = "UNIVLIVE_REDIS_URL"
	EnvJWTSecret  = "UNIVLIVE_JWT_SECRET"
	EnvJWTIssuer  = "UNIVLIVE_JWT_ISSUER"
	EnvJWTExpMins = "UNIVLIVE_JWT_EXPIRATION_MINUTES"

	EnvBaseDomain = "UNIVLIVE_BASE_DOMAIN"

	EnvRazorpayKeyID         = "UNIVLIVE_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "UNIVLIVE_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret = "UNIVLIVE_RAZORPAY_WEBHOOK_SECRET"
	EnvRazorpayPlanID        = "UNIVLIVE_RAZORPAY_PLAN_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
