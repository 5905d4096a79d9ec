package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the platform reads.
	EnvPrefix = "stocklane"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STOCKLANE_DB_DSN"
	EnvDBHost = "STOCKLANE_DB_HOST"
	EnvDBUser = "STOCKLANE_DB_USER"
	EnvDBName = "STOCKLANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Engine       EngineConfig
	Alerts       AlertsConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"STOCKLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKLANE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKLANE_DB_DSN"`
	Driver string `envconfig:"STOCKLANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKLANE_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKLANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKLANE_DB_USER"`
	LegacyPassword string `envconfig:"STOCKLANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKLANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKLANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKLANE_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKLANE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKLANE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKLANE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// EngineConfig tunes the movement engine's contention handling. A movement that
// keeps hitting serialization failures is retried RetryAttempts times with
// RetryBackoff between attempts, then surfaced as a transient error.
type EngineConfig struct {
	RetryAttempts int           `envconfig:"STOCKLANE_ENGINE_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"STOCKLANE_ENGINE_RETRY_BACKOFF" default:"25ms"`
	TxTimeout     time.Duration `envconfig:"STOCKLANE_ENGINE_TX_TIMEOUT" default:"5s"`
}

type AlertsConfig struct {
	EvaluationInterval time.Duration `envconfig:"STOCKLANE_ALERTS_EVALUATION_INTERVAL" default:"5m"`
}

// RateLimitConfig throttles mutating requests. A window of zero disables the
// limiter entirely.
type RateLimitConfig struct {
	WriteWindow    time.Duration `envconfig:"STOCKLANE_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteIPLimit   int           `envconfig:"STOCKLANE_RATE_LIMIT_WRITE_IP_LIMIT" default:"300"`
	WriteUserLimit int           `envconfig:"STOCKLANE_RATE_LIMIT_WRITE_USER_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKLANE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKLANE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKLANE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOCKLANE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKLANE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"STOCKLANE_PUBSUB_DOMAIN_TOPIC" default:"sl-domain-events"`
	DomainSubscription string `envconfig:"STOCKLANE_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"STOCKLANE_BIGQUERY_DATASET"`
	StockEventsTable string `envconfig:"STOCKLANE_BIGQUERY_STOCK_EVENTS_TABLE" default:"stock_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"STOCKLANE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"STOCKLANE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"STOCKLANE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"STOCKLANE_OUTBOX_IDEMPOTENCY_TTL" default:"72h"`
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
