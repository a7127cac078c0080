package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	GCP       GCPConfig
	S3        S3Config
	Renderer  RendererConfig
	PubSub    PubSubConfig
	Outbox    OutboxConfig
	RateLimit RateLimitConfig
	Cron      CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDORHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDORHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDORHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDORHUB_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"VENDORHUB_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"VENDORHUB_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,https://admin.vendorhub.app,https://seller.vendorhub.app"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN         string `envconfig:"VENDORHUB_DB_DSN"`
	Driver      string `envconfig:"VENDORHUB_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"VENDORHUB_AUTO_MIGRATE" default:"false"`

	LegacyHost     string `envconfig:"VENDORHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDORHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDORHUB_DB_USER"`
	LegacyPassword string `envconfig:"VENDORHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDORHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDORHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDORHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDORHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDORHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDORHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"VENDORHUB_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL            string        `envconfig:"VENDORHUB_REDIS_URL" required:"true"`
	Address        string        `envconfig:"VENDORHUB_REDIS_ADDR"`
	Password       string        `envconfig:"VENDORHUB_REDIS_PASSWORD"`
	DB             int           `envconfig:"VENDORHUB_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"VENDORHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"VENDORHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"VENDORHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"VENDORHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"VENDORHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"VENDORHUB_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VENDORHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VENDORHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VENDORHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// StorageConfig selects the object store generated documents are written to.
type StorageConfig struct {
	Driver        string `envconfig:"VENDORHUB_STORAGE_DRIVER" default:"gcs"`
	Bucket        string `envconfig:"VENDORHUB_STORAGE_BUCKET" required:"true"`
	PublicBaseURL string `envconfig:"VENDORHUB_STORAGE_PUBLIC_BASE_URL"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageDriverGCS, StorageDriverS3:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvStorageDriver, StorageDriverGCS, StorageDriverS3)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VENDORHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"VENDORHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VENDORHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type S3Config struct {
	Endpoint     string `envconfig:"VENDORHUB_S3_ENDPOINT"`
	Region       string `envconfig:"VENDORHUB_S3_REGION" default:"us-east-1"`
	AccessKey    string `envconfig:"VENDORHUB_S3_ACCESS_KEY"`
	SecretKey    string `envconfig:"VENDORHUB_S3_SECRET_KEY"`
	UseSSL       bool   `envconfig:"VENDORHUB_S3_USE_SSL" default:"true"`
	UsePathStyle bool   `envconfig:"VENDORHUB_S3_USE_PATH_STYLE" default:"false"`
}

type RendererConfig struct {
	GotenbergURL string        `envconfig:"VENDORHUB_GOTENBERG_URL" default:"http://localhost:3000"`
	Timeout      time.Duration `envconfig:"VENDORHUB_RENDER_TIMEOUT" default:"30s"`
}

type PubSubConfig struct {
	OrdersTopic   string `envconfig:"VENDORHUB_PUBSUB_ORDERS_TOPIC" default:"vh-order-events"`
	DisputesTopic string `envconfig:"VENDORHUB_PUBSUB_DISPUTES_TOPIC"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VENDORHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VENDORHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VENDORHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type RateLimitConfig struct {
	DocumentsPerMinute int `envconfig:"VENDORHUB_RATE_LIMIT_DOCUMENTS_PER_MINUTE" default:"10"`
}

// CronConfig tunes the maintenance worker.
type CronConfig struct {
	Interval        time.Duration `envconfig:"VENDORHUB_CRON_INTERVAL" default:"1h"`
	OutboxRetention time.Duration `envconfig:"VENDORHUB_CRON_OUTBOX_RETENTION" default:"336h"`
	RefundSLA       time.Duration `envconfig:"VENDORHUB_CRON_REFUND_SLA" default:"72h"`
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
