package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Redis   RedisConfig
	Token   TokenConfig
	Stripe  StripeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ARTVINCI_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"ARTVINCI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARTVINCI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig locates the marketplace backend.
type APIConfig struct {
	BaseURL   string        `envconfig:"ARTVINCI_API_BASE_URL" required:"true"`
	Timeout   time.Duration `envconfig:"ARTVINCI_API_TIMEOUT" default:"30s"`
	UserAgent string        `envconfig:"ARTVINCI_API_USER_AGENT" default:"artvinci-go"`
}

// StorageConfig selects the durable key-value backend holding the cart and
// session snapshots.
type StorageConfig struct {
	Backend string `envconfig:"ARTVINCI_STORAGE_BACKEND" default:"file"`
	Dir     string `envconfig:"ARTVINCI_STORAGE_DIR" default:"~/.artvinci"`
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case StorageBackendFile, StorageBackendRedis:
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q (want %q or %q)",
			s.Backend, StorageBackendFile, StorageBackendRedis)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"ARTVINCI_REDIS_URL"`
	Address      string        `envconfig:"ARTVINCI_REDIS_ADDR"`
	Password     string        `envconfig:"ARTVINCI_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARTVINCI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARTVINCI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARTVINCI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARTVINCI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARTVINCI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARTVINCI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// TokenConfig tunes client-side token handling. The client never verifies
// signatures; leeway only affects the local expiry hint.
type TokenConfig struct {
	ExpiryLeeway time.Duration `envconfig:"ARTVINCI_TOKEN_EXPIRY_LEEWAY" default:"30s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"ARTVINCI_STRIPE_API_KEY"`
	Env    string `envconfig:"ARTVINCI_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}
