package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Migrate MigrateConfig
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
	Env          string   `envconfig:"MULTIFOLKS_APP_ENV" required:"true"`
	Port         string   `envconfig:"MULTIFOLKS_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"MULTIFOLKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MULTIFOLKS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MULTIFOLKS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MULTIFOLKS_DB_DSN"`

	Host     string `envconfig:"MULTIFOLKS_DB_HOST"`
	Port     int    `envconfig:"MULTIFOLKS_DB_PORT" default:"5432"`
	User     string `envconfig:"MULTIFOLKS_DB_USER"`
	Password string `envconfig:"MULTIFOLKS_DB_PASSWORD"`
	Name     string `envconfig:"MULTIFOLKS_DB_NAME"`
	SSLMode  string `envconfig:"MULTIFOLKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MULTIFOLKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MULTIFOLKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MULTIFOLKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MULTIFOLKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either MULTIFOLKS_DB_DSN or host/user/name must be set")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MULTIFOLKS_REDIS_URL"`
	Address      string        `envconfig:"MULTIFOLKS_REDIS_ADDR"`
	Password     string        `envconfig:"MULTIFOLKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MULTIFOLKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MULTIFOLKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MULTIFOLKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MULTIFOLKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MULTIFOLKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MULTIFOLKS_REDIS_WRITE_TIMEOUT" default:"5s"`
	CatalogTTL   time.Duration `envconfig:"MULTIFOLKS_REDIS_CATALOG_TTL" default:"10m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MULTIFOLKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MULTIFOLKS_JWT_ISSUER" default:"multifolks"`
	ExpirationMinutes int    `envconfig:"MULTIFOLKS_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MULTIFOLKS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrderEventsTopic string        `envconfig:"MULTIFOLKS_PUBSUB_ORDER_EVENTS_TOPIC" default:"order-events"`
	PublishTimeout   time.Duration `envconfig:"MULTIFOLKS_PUBSUB_PUBLISH_TIMEOUT" default:"10s"`
}

type MigrateConfig struct {
	AutoRun bool   `envconfig:"MULTIFOLKS_MIGRATE_AUTORUN" default:"false"`
	Dir     string `envconfig:"MULTIFOLKS_MIGRATE_DIR" default:"pkg/migrate/migrations"`
}
