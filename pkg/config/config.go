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
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"REWARDS_APP_ENV" required:"true"`
	Port         string `envconfig:"REWARDS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REWARDS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REWARDS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REWARDS_DB_DSN"`
	Driver string `envconfig:"REWARDS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"REWARDS_DB_HOST"`
	Port     int    `envconfig:"REWARDS_DB_PORT" default:"5432"`
	User     string `envconfig:"REWARDS_DB_USER"`
	Password string `envconfig:"REWARDS_DB_PASSWORD"`
	Name     string `envconfig:"REWARDS_DB_NAME"`
	SSLMode  string `envconfig:"REWARDS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REWARDS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REWARDS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REWARDS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REWARDS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	db.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.User),
		url.QueryEscape(db.Password),
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"REWARDS_REDIS_URL"`
	Address      string        `envconfig:"REWARDS_REDIS_ADDR"`
	Password     string        `envconfig:"REWARDS_REDIS_PASSWORD"`
	DB           int           `envconfig:"REWARDS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REWARDS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REWARDS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REWARDS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REWARDS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REWARDS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"REWARDS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REWARDS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REWARDS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REWARDS_AUTO_MIGRATE" default:"false"`
}
