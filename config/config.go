package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers selected from the DATABASE_URL scheme.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from environment variables.
// It is loaded once at startup and shared read-only.
type Config struct {
	AppName   string `env:"APP_NAME" envDefault:"user-account-service"`
	Env       string `env:"APP_ENV" envDefault:"development"` // development, staging, production
	Port      string `env:"PORT" envDefault:"8080"`
	GinMode   string `env:"GIN_MODE" envDefault:"release"`
	APIPrefix string `env:"API_PREFIX" envDefault:""`

	// Credential store
	DatabaseURL   string        `env:"DATABASE_URL,required,notEmpty"`
	MongoDatabase string        `env:"MONGO_DATABASE" envDefault:"accounts"`
	DBMaxConns    int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLife time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	MigrationsDir string        `env:"MIGRATIONS_DIR" envDefault:"db/migrations"`

	// Sessions
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"10"`
	HashWorkers int           `env:"HASH_WORKERS" envDefault:"0"` // 0 = runtime.NumCPU()

	// Cookies
	CookieDomain string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Redis (optional): logout revocation list
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// RabbitMQ (optional): account events
	Broker

	// Elasticsearch: user directory mirror written by cmd/indexer
	Search

	// Whether signup may set isAdmin/status from the request body
	AllowPrivilegedSignup bool `env:"ALLOW_PRIVILEGED_SIGNUP" envDefault:"false"`

	// Debug metrics (/debug/vars)
	DebugMetricsEnabled bool `env:"DEBUG_METRICS_ENABLED" envDefault:"false"`

	// HTTP access log toggle
	HTTPLogEnabled bool `env:"HTTP_LOG_ENABLED" envDefault:"false"`
}

// Broker locates the account events queue.
type Broker struct {
	RabbitMQURL         string `env:"RABBITMQ_URL"`
	RabbitMQEventsQueue string `env:"RABBITMQ_EVENTS_QUEUE" envDefault:"account_events"`
}

type Search struct {
	ElasticsearchAddrs []string `env:"ELASTICSEARCH_ADDRS" envSeparator:"," envDefault:"http://localhost:9200"`
	ElasticsearchUser  string   `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPass  string   `env:"ELASTICSEARCH_PASSWORD"`
	ESUsersIndex       string   `env:"ES_USERS_INDEX" envDefault:"users"`
}

// IndexerConfig is the subset read by cmd/indexer, which needs neither the
// credential store nor the session secret.
type IndexerConfig struct {
	AppName string `env:"APP_NAME" envDefault:"user-account-service"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Broker
	Search
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.StoreDriver(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET must not be blank")
	}
	return &cfg, nil
}

// StoreDriver derives the credential store backend from the DATABASE_URL scheme.
func (c *Config) StoreDriver() (string, error) {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "memory":
		return DriverMemory, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

// LoadIndexer loads the indexer configuration. RABBITMQ_URL is required here.
func LoadIndexer() (*IndexerConfig, error) {
	cfg, err := env.ParseAs[IndexerConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RabbitMQURL == "" {
		return nil, errors.New("RABBITMQ_URL is required")
	}
	if len(cfg.ESAddrs()) == 0 {
		return nil, errors.New("ELASTICSEARCH_ADDRS is required")
	}
	return &cfg, nil
}

// CORSOrigins returns the allowed origins as slice
func (c *Config) CORSOrigins() []string {
	return compact(c.CORSAllowedOrigins)
}

// ESAddrs returns Elasticsearch addresses as a slice
func (c *Search) ESAddrs() []string {
	return compact(c.ElasticsearchAddrs)
}

func compact(parts []string) []string {
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
