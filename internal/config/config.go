package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Database    DatabaseConfig    `mapstructure:"database"`
	State       StateConfig       `mapstructure:"state"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Seed        SeedConfig        `mapstructure:"seed"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Host                    string        `mapstructure:"host"`
	Port                    int           `mapstructure:"port"`
	Mode                    string        `mapstructure:"mode"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
	MaxBodyBytes            int64         `mapstructure:"max_body_bytes"`
}

type StoreConfig struct {
	Backend   string `mapstructure:"backend"` // "memory" | "postgres" | "redis"
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type StateConfig struct {
	Backend string `mapstructure:"backend"` // "redis" | "memory"
}

type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type SeedConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Recipes []SeedRecipe `mapstructure:"recipes"`
}

type SeedRecipe struct {
	Name        string   `mapstructure:"name"`
	Ingredients []string `mapstructure:"ingredients"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.graceful_shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.key_prefix", "recipes")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.db", "recipes")
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.max_open_conns", 20)
	v.SetDefault("database.postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("database.postgres.auto_migrate", true)

	v.SetDefault("database.redis.host", "localhost")
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.pool_size", 10)

	v.SetDefault("state.backend", "memory")

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", 24*time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 100)
	v.SetDefault("rate_limit.burst", 200)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Request-Id"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 12*time.Hour)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("seed.enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// Environment variable override: DATABASE_POSTGRES_HOST -> database.postgres.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration with environment overrides applied.
func Default() *Config {
	cfg := &Config{}
	// Unmarshal of defaults into the typed struct cannot fail.
	_ = newViper().Unmarshal(cfg)
	return cfg
}

// Load reads the YAML file at path, overlays environment variables, and
// returns Config. A missing file is not an error: defaults and environment
// still apply.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "postgres", "redis":
	default:
		return errors.New("store.backend must be one of memory, postgres, redis")
	}
	switch c.State.Backend {
	case "memory", "redis":
	default:
		return errors.New("state.backend must be one of memory, redis")
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return errors.New("server.mode must be one of debug, release, test")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("server.port out of range")
	}
	return nil
}
