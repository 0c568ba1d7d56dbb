package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "mathmind"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
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
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Assistant     AssistantConfig
	Wolfram       WolframConfig
	Mail          MailConfig
	Retention     RetentionConfig
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
	Env          string `envconfig:"MATHMIND_APP_ENV" required:"true"`
	Port         string `envconfig:"MATHMIND_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MATHMIND_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MATHMIND_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MATHMIND_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MATHMIND_DB_DSN"`
	Driver string `envconfig:"MATHMIND_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MATHMIND_DB_HOST"`
	Port     int    `envconfig:"MATHMIND_DB_PORT" default:"5432"`
	User     string `envconfig:"MATHMIND_DB_USER"`
	Password string `envconfig:"MATHMIND_DB_PASSWORD"`
	Name     string `envconfig:"MATHMIND_DB_NAME"`
	SSLMode  string `envconfig:"MATHMIND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MATHMIND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MATHMIND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MATHMIND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MATHMIND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return fmt.Errorf("db config requires either MATHMIND_DB_DSN or host/user/name fields")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	query := dsn.Query()
	query.Set("sslmode", db.SSLMode)
	dsn.RawQuery = query.Encode()
	db.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MATHMIND_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MATHMIND_REDIS_ADDR"`
	Password     string        `envconfig:"MATHMIND_REDIS_PASSWORD"`
	DB           int           `envconfig:"MATHMIND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MATHMIND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MATHMIND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MATHMIND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MATHMIND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MATHMIND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MATHMIND_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MATHMIND_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MATHMIND_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"MATHMIND_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MATHMIND_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MATHMIND_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MATHMIND_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MATHMIND_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MATHMIND_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MATHMIND_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MATHMIND_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MATHMIND_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MATHMIND_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MATHMIND_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MATHMIND_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MATHMIND_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MATHMIND_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MATHMIND_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MATHMIND_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic           string `envconfig:"MATHMIND_PUBSUB_DOMAIN_TOPIC" default:"mm-domain-events"`
	EmailSubscription     string `envconfig:"MATHMIND_PUBSUB_EMAIL_SUBSCRIPTION"`
	AnalyticsSubscription string `envconfig:"MATHMIND_PUBSUB_ANALYTICS_SUBSCRIPTION"`
}

type BigQueryConfig struct {
	Dataset               string `envconfig:"MATHMIND_BIGQUERY_DATASET" default:"mathmind"`
	CalculationUsageTable string `envconfig:"MATHMIND_BIGQUERY_CALCULATION_TABLE" default:"calculation_usage"`
	MetadataCheckEnabled  bool   `envconfig:"MATHMIND_BIGQUERY_METADATA_CHECK" default:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MATHMIND_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MATHMIND_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MATHMIND_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AssistantConfig struct {
	BaseURL     string        `envconfig:"MATHMIND_ASSISTANT_BASE_URL" default:"https://api.aimlapi.com/v1"`
	APIKey      string        `envconfig:"MATHMIND_ASSISTANT_API_KEY"`
	Model       string        `envconfig:"MATHMIND_ASSISTANT_MODEL" default:"mistralai/Mistral-7B-Instruct-v0.2"`
	Temperature float64       `envconfig:"MATHMIND_ASSISTANT_TEMPERATURE" default:"0.7"`
	MaxTokens   int           `envconfig:"MATHMIND_ASSISTANT_MAX_TOKENS" default:"256"`
	Timeout     time.Duration `envconfig:"MATHMIND_ASSISTANT_TIMEOUT" default:"30s"`
	MaxRetries  int           `envconfig:"MATHMIND_ASSISTANT_MAX_RETRIES" default:"2"`
}

type WolframConfig struct {
	BaseURL    string        `envconfig:"MATHMIND_WOLFRAM_BASE_URL" default:"https://api.wolframalpha.com/v1/result"`
	AppID      string        `envconfig:"MATHMIND_WOLFRAM_APP_ID"`
	Timeout    time.Duration `envconfig:"MATHMIND_WOLFRAM_TIMEOUT" default:"15s"`
	MaxRetries int           `envconfig:"MATHMIND_WOLFRAM_MAX_RETRIES" default:"2"`
}

type MailConfig struct {
	APIURL    string `envconfig:"MATHMIND_MAIL_API_URL"`
	APIKey    string `envconfig:"MATHMIND_MAIL_API_KEY"`
	FromEmail string `envconfig:"MATHMIND_MAIL_FROM_EMAIL" default:"hello@mathmind.app"`
	FromName  string `envconfig:"MATHMIND_MAIL_FROM_NAME" default:"MathMind"`
}

type RetentionConfig struct {
	InactiveAfterDays int           `envconfig:"MATHMIND_RETENTION_INACTIVE_AFTER_DAYS" default:"365"`
	PurgeAfterDays    int           `envconfig:"MATHMIND_RETENTION_PURGE_AFTER_DAYS" default:"30"`
	CronInterval      time.Duration `envconfig:"MATHMIND_CRON_INTERVAL" default:"24h"`
}
