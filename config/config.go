package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	// Driver selects the storage backend: "postgres" (default) or "memory"
	// (in-process, volatile; dev and test only).
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig configures verification of bearer identity tokens. Token
// issuance belongs to the external authentication layer; this service only
// verifies signatures and extracts the caller identity from the subject.
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// LedgerConfig carries the product policies of the ledger core.
type LedgerConfig struct {
	// MaxOwners bounds the owner set per account (creator included). Guards
	// against unbounded iteration cost in quorum checks.
	MaxOwners int `mapstructure:"max_owners"`
	// MaxAccountsPerOwner bounds how many accounts one identity may co-own.
	MaxAccountsPerOwner int `mapstructure:"max_accounts_per_owner"`
	// QuorumPolicy: "unanimous-others" (default) or "fixed".
	QuorumPolicy string `mapstructure:"quorum_policy"`
	// QuorumThreshold is only consulted when QuorumPolicy is "fixed".
	QuorumThreshold int `mapstructure:"quorum_threshold"`
	// LockTimeout bounds how long a mutation waits on a per-account lock
	// before failing with SYS_002 instead of queueing behind a slow caller.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SAL_ (Shared Account Ledger).
// Nested keys use underscore: SAL_DATABASE_HOST, SAL_LEDGER_MAX_OWNERS, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "shared_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "shared-account-ledger")
	v.SetDefault("auth.token_expiry", "24h")
	v.SetDefault("ledger.max_owners", 4)
	v.SetDefault("ledger.max_accounts_per_owner", 3)
	v.SetDefault("ledger.quorum_policy", "unanimous-others")
	v.SetDefault("ledger.quorum_threshold", 1)
	v.SetDefault("ledger.lock_timeout", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SAL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "memory" {
		return nil, fmt.Errorf("database.driver must be postgres or memory, got %q", cfg.Database.Driver)
	}
	if cfg.Ledger.MaxOwners < 1 {
		return nil, fmt.Errorf("ledger.max_owners must be at least 1, got %d", cfg.Ledger.MaxOwners)
	}
	if cfg.Ledger.LockTimeout <= 0 {
		return nil, fmt.Errorf("ledger.lock_timeout must be positive, got %s", cfg.Ledger.LockTimeout)
	}

	return &cfg, nil
}
