package config

// EnvPrefix is passed to envconfig; individual tags spell the full names so
// the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, docs).
const (
	EnvAppEnv       = "PLAYPALM_APP_ENV"
	EnvPort         = "PLAYPALM_APP_PORT"
	EnvDBDSN        = "PLAYPALM_DB_DSN"
	EnvDBHost       = "PLAYPALM_DB_HOST"
	EnvDBUser       = "PLAYPALM_DB_USER"
	EnvDBName       = "PLAYPALM_DB_NAME"
	EnvRedisURL     = "PLAYPALM_REDIS_URL"
	EnvJWTSecret    = "PLAYPALM_JWT_SECRET"
	EnvJWTIssuer    = "PLAYPALM_JWT_ISSUER"
	EnvJWTExpMins   = "PLAYPALM_JWT_EXPIRATION_MINUTES"
	EnvCacheTTL     = "PLAYPALM_CATALOG_CACHE_TTL"
	EnvLocalDataDir = "PLAYPALM_LOCAL_DATA_DIR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
