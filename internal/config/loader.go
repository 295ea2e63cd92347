package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Load loads configuration from an optional YAML file and environment
// variables; the environment takes precedence.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional if environment variables are set.
		fmt.Fprintf(os.Stderr, "warning: could not read config file %s: %v, using defaults and environment\n", configPath, err)
	} else {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides.
func applyEnvironmentOverrides(cfg *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	overrideDatabase(&cfg.Primary, "PRIMARY")
	overrideDatabase(&cfg.Secondary, "SECONDARY")

	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		cfg.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		if p, err := strconv.Atoi(redisPort); err == nil {
			cfg.Redis.Port = p
		}
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}

	if uploadURL := os.Getenv("UPLOAD_SERVICE_URL"); uploadURL != "" {
		cfg.Upload.URL = uploadURL
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func overrideDatabase(db *DatabaseConfig, prefix string) {
	if host := os.Getenv(prefix + "_DB_HOST"); host != "" {
		db.Host = host
	}
	if port := os.Getenv(prefix + "_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			db.Port = p
		}
	}
	if name := os.Getenv(prefix + "_DB_NAME"); name != "" {
		db.Database = name
	}
	if user := os.Getenv(prefix + "_DB_USER"); user != "" {
		db.User = user
	}
	if password := os.Getenv(prefix + "_DB_PASSWORD"); password != "" {
		db.Password = password
	}
}
