package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string
	// Origins allowed to call the API with credentials (the SPA dev server, etc.)
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Replit OIDC (optional)
	ReplitClientID     string
	ReplitClientSecret string
	ReplitIssuerURL    string

	// Firebase REST proxy (optional)
	FirebaseAPIKey string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Payment
	PaymentProvider string // "paypal", "stripe" or "polar"
	// Payment - PayPal
	PayPalClientID     string
	PayPalClientSecret string
	PayPalWebhookID    string
	PayPalPlanID       string
	PayPalSandboxMode  bool
	// Payment - Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	// Payment - Polar
	PolarAPIKey        string
	PolarWebhookSecret string
	PolarProductID     string
	PolarSandboxMode   bool

	// Observability (optional)
	SentryDSN string

	// Storage: "local", "s3" or "minio"
	StorageDriver string
	UploadDir     string
	MaxUploadSize int64

	// S3-compatible storage (AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string
	S3PresignExpiryPublic  time.Duration
	S3PresignExpiryPrivate time.Duration

	// MinIO (native client)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Redis (optional: daily quote cache and shared rate limiting)
	RedisURL string

	// Meilisearch (optional, SQL LIKE fallback otherwise)
	MeiliURL    string
	MeiliAPIKey string

	// Kafka (optional, user activity events)
	KafkaBrokers       []string
	KafkaActivityTopic string

	// PDF export
	ChromePath    string
	ExportTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:         envString("APP_NAME", "MindVault"),
		AppEnv:          envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:          envRequired("APP_URL"), // Required: base URL for OAuth redirects and absolute media links
		Port:            envString("PORT", "5000"),
		SupportEmail:    envString("SUPPORT_EMAIL", "hello@example.com"),
		CORSOrigins:     envList("CORS_ORIGINS", nil),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/mindvault.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Replit OIDC
		ReplitClientID:     envString("REPLIT_CLIENT_ID", ""),
		ReplitClientSecret: envString("REPLIT_CLIENT_SECRET", ""),
		ReplitIssuerURL:    envString("REPLIT_ISSUER_URL", "https://replit.com/oidc"),

		// Firebase
		FirebaseAPIKey: envString("FIREBASE_API_KEY", ""),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Payment
		PaymentProvider:     envString("PAYMENT_PROVIDER", "paypal"),
		PayPalClientID:      envString("PAYPAL_CLIENT_ID", ""),
		PayPalClientSecret:  envString("PAYPAL_CLIENT_SECRET", ""),
		PayPalWebhookID:     envString("PAYPAL_WEBHOOK_ID", ""),
		PayPalPlanID:        envString("PAYPAL_PLAN_ID", ""),
		PayPalSandboxMode:   envBool("PAYPAL_SANDBOX_MODE", envString("APP_ENV", "development") == "development"),
		StripeSecretKey:     envString("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: envString("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceID:       envString("STRIPE_PRICE_ID", ""),
		PolarAPIKey:         envString("POLAR_API_KEY", ""),
		PolarWebhookSecret:  envString("POLAR_WEBHOOK_SECRET", ""),
		PolarProductID:      envString("POLAR_PRODUCT_ID", ""),
		PolarSandboxMode:    envBool("POLAR_SANDBOX_MODE", envString("APP_ENV", "development") == "development"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		StorageDriver: envString("STORAGE_DRIVER", "local"),
		UploadDir:     envString("UPLOAD_DIR", "./data/uploads"),
		MaxUploadSize: envInt64("MAX_UPLOAD_SIZE", 50<<20), // 50MB

		S3Region:               envString("S3_REGION", ""),
		S3Bucket:               envString("S3_BUCKET", ""),
		S3AccessKey:            envString("S3_ACCESS_KEY", ""),
		S3SecretKey:            envString("S3_SECRET_KEY", ""),
		S3Endpoint:             envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic:  envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour),

		MinioEndpoint:  envString("MINIO_ENDPOINT", ""),
		MinioAccessKey: envString("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: envString("MINIO_SECRET_KEY", ""),
		MinioBucket:    envString("MINIO_BUCKET", "mindvault"),
		MinioUseSSL:    envBool("MINIO_USE_SSL", false),

		RedisURL: envString("REDIS_URL", ""),

		MeiliURL:    envString("MEILI_URL", ""),
		MeiliAPIKey: envString("MEILI_API_KEY", ""),

		KafkaBrokers:       envList("KAFKA_BROKERS", nil),
		KafkaActivityTopic: envString("KAFKA_ACTIVITY_TOPIC", "mindvault.user-activity"),

		ChromePath:    envString("CHROME_PATH", ""),
		ExportTimeout: envDuration("EXPORT_TIMEOUT", 30*time.Second),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows some services (like email) to use fallback modes for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires JWT_SECRET of at least 32 characters")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) ReplitEnabled() bool {
	return c.ReplitClientID != ""
}

func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseAPIKey != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,
		CORSOrigins:  c.CORSOrigins,

		EmailFrom: c.EmailFrom,

		ReplitClientID:  c.ReplitClientID,
		ReplitIssuerURL: c.ReplitIssuerURL,

		PaymentProvider: c.PaymentProvider,
		PayPalClientID:  c.PayPalClientID,

		StorageDriver: c.StorageDriver,
		MaxUploadSize: c.MaxUploadSize,
		S3Endpoint:    c.S3Endpoint,
	}
}
