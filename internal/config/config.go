package config

import (
	"errors"
	"time"
)

// Config represents the catalog service configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Primary     DatabaseConfig    `mapstructure:"primary"`
	Secondary   DatabaseConfig    `mapstructure:"secondary"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Replication ReplicationConfig `mapstructure:"replication"`
	Consistency ConsistencyConfig `mapstructure:"consistency"`
	Upload      UploadConfig      `mapstructure:"upload"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig represents one PostgreSQL video store.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MinConnections int    `mapstructure:"min_connections"`
}

// RedisConfig represents the cache backend connection.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig tunes the video cache and popularity ranking.
type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	MaxRanked int           `mapstructure:"max_ranked"`
	ListLimit int           `mapstructure:"list_limit"`
}

// ReplicationConfig tunes the async replication queue and worker.
type ReplicationConfig struct {
	QueueCapacity int           `mapstructure:"queue_capacity"`
	OpTimeout     time.Duration `mapstructure:"op_timeout"`
}

// ConsistencyConfig tunes the periodic consistency auditor.
type ConsistencyConfig struct {
	SampleSize    int           `mapstructure:"sample_size"`
	OpTimeout     time.Duration `mapstructure:"op_timeout"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Periodic      bool          `mapstructure:"periodic"`
}

// UploadConfig points at the upload service owning media files. An empty
// URL disables media cleanup.
type UploadConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimiterConfig tunes the optional HTTP rate limiter.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// MetricsConfig represents the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Primary.Host == "" {
		return errors.New("primary.host is required")
	}
	if c.Primary.Database == "" {
		return errors.New("primary.database is required")
	}
	if c.Primary.User == "" {
		return errors.New("primary.user is required")
	}
	if c.Secondary.Host == "" {
		return errors.New("secondary.host is required")
	}
	if c.Secondary.Database == "" {
		return errors.New("secondary.database is required")
	}
	if c.Secondary.User == "" {
		return errors.New("secondary.user is required")
	}
	if c.Redis.Host == "" {
		return errors.New("redis.host is required")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Cache.MaxRanked <= 0 {
		return errors.New("cache.max_ranked must be positive")
	}
	if c.Replication.QueueCapacity <= 0 {
		return errors.New("replication.queue_capacity must be positive")
	}
	if c.Consistency.SampleSize <= 0 {
		return errors.New("consistency.sample_size must be positive")
	}
	if c.Consistency.OpTimeout <= 0 {
		return errors.New("consistency.op_timeout must be positive")
	}
	if c.Consistency.Periodic && c.Consistency.CheckInterval <= 0 {
		return errors.New("consistency.check_interval must be positive when periodic auditing is enabled")
	}
	if c.RateLimiter.Enabled && c.RateLimiter.RequestsPerSecond <= 0 {
		return errors.New("rate_limiter.requests_per_second must be positive when enabled")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Primary: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "ualflix_primary",
			User:           "catalog",
			Password:       "",
			MaxConnections: 50,
			MinConnections: 5,
		},
		Secondary: DatabaseConfig{
			Host:           "localhost",
			Port:           5433,
			Database:       "ualflix_replica",
			User:           "catalog",
			Password:       "",
			MaxConnections: 50,
			MinConnections: 5,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
		},
		Cache: CacheConfig{
			TTL:       time.Hour,
			MaxRanked: 50,
			ListLimit: 30,
		},
		Replication: ReplicationConfig{
			QueueCapacity: 1024,
			OpTimeout:     5 * time.Second,
		},
		Consistency: ConsistencyConfig{
			SampleSize:    10,
			OpTimeout:     5 * time.Second,
			CheckInterval: time.Minute,
			Periodic:      false,
		},
		Upload: UploadConfig{
			URL:     "",
			Timeout: 5 * time.Second,
		},
		RateLimiter: RateLimiterConfig{
			Enabled:           false,
			RequestsPerSecond: 100,
			BurstSize:         200,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
