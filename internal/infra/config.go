package infra

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selectable through ACADEMY_STORE.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Progress store
	Store      string `env:"ACADEMY_STORE" envDefault:"memory"`
	StorageKey string `env:"ACADEMY_STORAGE_KEY" envDefault:"academy:progress"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"academy"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"academy"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"academy"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Progression rules
	CatalogPath     string `env:"ACADEMY_CATALOG_PATH"`
	TimeZone        string `env:"ACADEMY_TIMEZONE" envDefault:"UTC"`
	ApplyBadgeBonus bool   `env:"ACADEMY_APPLY_BADGE_BONUS" envDefault:"false"`

	// Server
	APIPort            int    `env:"API_PORT" envDefault:"3100"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	// Proxies allowed to set X-Forwarded-For, as IPs or CIDR ranges.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"academy.progress"`

	// Store circuit breaker
	StoreFailThreshold int           `env:"STORE_FAIL_THRESHOLD" envDefault:"5"`
	StoreResetTimeout  time.Duration `env:"STORE_RESET_TIMEOUT" envDefault:"30s"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("ACADEMY_STORE must be one of memory, redis, postgres; got %q", c.Store)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("ACADEMY_STORAGE_KEY must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT out of range: %d", c.APIPort)
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_ENABLED=true")
	}
	if c.StoreFailThreshold <= 0 {
		return fmt.Errorf("STORE_FAIL_THRESHOLD must be positive, got %d", c.StoreFailThreshold)
	}
	if c.StoreResetTimeout <= 0 {
		return fmt.Errorf("STORE_RESET_TIMEOUT must be positive, got %s", c.StoreResetTimeout)
	}
	return nil
}

// Location resolves ACADEMY_TIMEZONE, the zone streak days are counted in.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("ACADEMY_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. A bare address is a single-host range.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
