package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Tenant        TenantConfig
	Razorpay      RazorpayConfig
	Media         MediaConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"UNIVLIVE_APP_ENV" required:"true"`
	Port         string `envconfig:"UNIVLIVE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"UNIVLIVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UNIVLIVE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"UNIVLIVE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"UNIVLIVE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"UNIVLIVE_DB_DSN"`
	Driver string `envconfig:"UNIVLIVE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"UNIVLIVE_DB_HOST"`
	LegacyPort     int    `envconfig:"UNIVLIVE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UNIVLIVE_DB_USER"`
	LegacyPassword string `envconfig:"UNIVLIVE_DB_PASSWORD"`
	LegacyName     string `envconfig:"UNIVLIVE_DB_NAME"`
	LegacySSLMode  string `envconfig:"UNIVLIVE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UNIVLIVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UNIVLIVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UNIVLIVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UNIVLIVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"UNIVLIVE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"UNIVLIVE_REDIS_ADDR"`
	Password     string        `envconfig:"UNIVLIVE_REDIS_PASSWORD"`
	DB           int           `envconfig:"UNIVLIVE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UNIVLIVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UNIVLIVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UNIVLIVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UNIVLIVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UNIVLIVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"UNIVLIVE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"UNIVLIVE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"UNIVLIVE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"UNIVLIVE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"UNIVLIVE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"UNIVLIVE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"UNIVLIVE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"UNIVLIVE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"UNIVLIVE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"UNIVLIVE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"UNIVLIVE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"UNIVLIVE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"UNIVLIVE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"UNIVLIVE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"UNIVLIVE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"UNIVLIVE_AUTO_MIGRATE" default:"false"`
}

// TenantConfig controls subdomain-based tenant resolution.
type TenantConfig struct {
	BaseDomain     string `envconfig:"UNIVLIVE_BASE_DOMAIN" required:"true"`
	LocalhostParam string `envconfig:"UNIVLIVE_TENANT_QUERY_PARAM" default:"tenant"`
}

// RazorpayConfig holds the payment gateway credentials. The webhook secret
// signs asynchronous events; the key secret signs client-side checkout
// confirmations.
type RazorpayConfig struct {
	KeyID         string `envconfig:"UNIVLIVE_RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string `envconfig:"UNIVLIVE_RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string `envconfig:"UNIVLIVE_RAZORPAY_WEBHOOK_SECRET" required:"true"`
	PlanID        string `envconfig:"UNIVLIVE_RAZORPAY_PLAN_ID" required:"true"`
	PlanKey       string `envconfig:"UNIVLIVE_RAZORPAY_PLAN_KEY" default:"standard"`
}

// MediaConfig carries the third-party media-upload service credentials. The
// service itself is external; the backend only passes these through.
type MediaConfig struct {
	UploadURL   string `envconfig:"UNIVLIVE_MEDIA_UPLOAD_URL"`
	PublicKey   string `envconfig:"UNIVLIVE_MEDIA_PUBLIC_KEY"`
	PrivateKey  string `envconfig:"UNIVLIVE_MEDIA_PRIVATE_KEY"`
	MaxUploadMB int    `envconfig:"UNIVLIVE_MAX_UPLOAD_MB" default:"50"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"UNIVLIVE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"UNIVLIVE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"UNIVLIVE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BillingTopic string `envconfig:"UNIVLIVE_PUBSUB_BILLING_TOPIC" default:"ul-billing-events"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"UNIVLIVE_CRON_INTERVAL" default:"24h"`
	ReconcileLimit    int           `envconfig:"UNIVLIVE_CRON_RECONCILE_LIMIT" default:"250"`
	ReconcileLookback time.Duration `envconfig:"UNIVLIVE_CRON_RECONCILE_LOOKBACK" default:"168h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
