package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends understood by Load.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Bolt     BoltConfig     `mapstructure:"bolt"`
	AES      AESConfig      `mapstructure:"aes"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	LNURL    LNURLConfig    `mapstructure:"lnurl"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Identity IdentityConfig `mapstructure:"identity"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`       // debug, release, test
	PublicURL string `mapstructure:"public_url"` // base for payment page links; empty = derive from Host header
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"` // redis, postgres, bolt
}

type DatabaseConfig struct {
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

type BoltConfig struct {
	Path string `mapstructure:"path"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

type PaymentConfig struct {
	ExpiryWindow  time.Duration `mapstructure:"expiry_window"`  // invoice lifetime
	RecordTTL     time.Duration `mapstructure:"record_ttl"`     // store expiry for payment documents
	VerifyTimeout time.Duration `mapstructure:"verify_timeout"` // LNURL-verify poll bound
}

type LNURLConfig struct {
	Scheme  string        `mapstructure:"scheme"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WebhookConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type IdentityConfig struct {
	Product string `mapstructure:"product"` // HMAC domain-separation prefix shared with clients
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: LPG_ (Lightning Payment Gateway).
// Nested keys use underscore: LPG_STORAGE_BACKEND, LPG_PAYMENT_EXPIRY_WINDOW, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.public_url", "")
	v.SetDefault("storage.backend", BackendRedis)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "lightning_payments")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("bolt.path", "./data/lpg.db")
	v.SetDefault("aes.key", "")
	v.SetDefault("payment.expiry_window", "10m")
	v.SetDefault("payment.record_ttl", "24h")
	v.SetDefault("payment.verify_timeout", "5s")
	v.SetDefault("lnurl.scheme", "https")
	v.SetDefault("lnurl.timeout", "10s")
	v.SetDefault("webhook.timeout", "5s")
	v.SetDefault("identity.product", "glow-pay")
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

	// Environment variables: LPG_STORAGE_BACKEND -> storage.backend
	v.SetEnvPrefix("LPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required; env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that defaults cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendRedis, BackendPostgres, BackendBolt:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.AES.Key == "" {
		return fmt.Errorf("aes.key is required")
	}
	if c.Payment.ExpiryWindow <= 0 {
		return fmt.Errorf("payment.expiry_window must be positive")
	}
	// A payment document must outlive its invoice, or a status read could
	// miss a payment that is still settleable.
	if c.Payment.RecordTTL > 0 && c.Payment.RecordTTL <= c.Payment.ExpiryWindow {
		return fmt.Errorf("payment.record_ttl (%s) must exceed payment.expiry_window (%s)",
			c.Payment.RecordTTL, c.Payment.ExpiryWindow)
	}
	if c.Payment.VerifyTimeout <= 0 {
		return fmt.Errorf("payment.verify_timeout must be positive")
	}
	if c.LNURL.Timeout <= 0 {
		return fmt.Errorf("lnurl.timeout must be positive")
	}
	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("webhook.timeout must be positive")
	}
	if c.Identity.Product == "" {
		return fmt.Errorf("identity.product is required")
	}
	return nil
}
