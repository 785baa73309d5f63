package config

// EnvPrefix namespaces every environment variable consumed by the client.
const EnvPrefix = "artvinci"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageBackendFile  = "file"
	StorageBackendRedis = "redis"
)

// Environment variable names, exported so tests and docs reference one place.
const (
	EnvAppEnv         = "ARTVINCI_APP_ENV"
	EnvLogLevel       = "ARTVINCI_LOG_LEVEL"
	EnvAPIBaseURL     = "ARTVINCI_API_BASE_URL"
	EnvAPITimeout     = "ARTVINCI_API_TIMEOUT"
	EnvStorageBackend = "ARTVINCI_STORAGE_BACKEND"
	EnvStorageDir     = "ARTVINCI_STORAGE_DIR"
	EnvRedisURL       = "ARTVINCI_REDIS_URL"
	EnvStripeAPIKey   = "ARTVINCI_STRIPE_API_KEY"
	EnvStripeEnv      = "ARTVINCI_STRIPE_ENV"
)
