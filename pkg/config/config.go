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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Catalog       CatalogConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"PLAYPALM_APP_ENV" default:"development"`
	Port         string `envconfig:"PLAYPALM_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"PLAYPALM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLAYPALM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig describes the remote Postgres store. The DSN is optional: when
// neither it nor the legacy host/user/name pieces are set, the API boots in
// local-only mode and serves everything from the JSON fallback store.
type DBConfig struct {
	DSN    string `envconfig:"PLAYPALM_DB_DSN"`
	Driver string `envconfig:"PLAYPALM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLAYPALM_DB_HOST"`
	LegacyPort     int    `envconfig:"PLAYPALM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLAYPALM_DB_USER"`
	LegacyPassword string `envconfig:"PLAYPALM_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLAYPALM_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLAYPALM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLAYPALM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLAYPALM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLAYPALM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLAYPALM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Configured reports whether a remote database was supplied at all.
func (db DBConfig) Configured() bool {
	return db.DSN != "" || db.LegacyHost != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"PLAYPALM_REDIS_URL"`
	Address      string        `envconfig:"PLAYPALM_REDIS_ADDR"`
	Password     string        `envconfig:"PLAYPALM_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLAYPALM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLAYPALM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLAYPALM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLAYPALM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLAYPALM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLAYPALM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a Redis endpoint was supplied. Redis only backs
// the login rate limiter, so it is optional.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"PLAYPALM_JWT_SECRET" default:"dev_secret_change_me"`
	Issuer            string `envconfig:"PLAYPALM_JWT_ISSUER" default:"playpalm"`
	ExpirationMinutes int    `envconfig:"PLAYPALM_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PLAYPALM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PLAYPALM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PLAYPALM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PLAYPALM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PLAYPALM_ARGON_KEY_LEN" default:"32"`
}

// CatalogConfig tunes the product catalog layers: read-cache TTL, remote
// per-call timeout, and the location of the JSON fallback files.
type CatalogConfig struct {
	CacheTTL        time.Duration `envconfig:"PLAYPALM_CATALOG_CACHE_TTL" default:"30s"`
	RemoteTimeout   time.Duration `envconfig:"PLAYPALM_REMOTE_TIMEOUT" default:"2s"`
	LocalDataDir    string        `envconfig:"PLAYPALM_LOCAL_DATA_DIR" default:"database"`
	SearchLimit     int           `envconfig:"PLAYPALM_CATALOG_SEARCH_LIMIT" default:"20"`
	DefaultCategory string        `envconfig:"PLAYPALM_CATALOG_DEFAULT_CATEGORY" default:"Console"`
}

// ProductsFile is the JSON fallback file for the product catalog.
func (c CatalogConfig) ProductsFile() string {
	return c.LocalDataDir + "/products.json"
}

// UsersFile is the JSON fallback file for user records.
func (c CatalogConfig) UsersFile() string {
	return c.LocalDataDir + "/users.json"
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PLAYPALM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"PLAYPALM_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PLAYPALM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PLAYPALM_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PLAYPALM_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.LegacyHost == "" {
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
