package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"afrochain-auth-go/internal/platform/errors"
)

// Loader reads configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config file path. An empty path
// skips the file stage.
func NewLoader(path string) *Loader {
	return &Loader{
		path:      path,
		useDotEnv: true,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Load merges all configuration sources and validates the result.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		// A missing .env file is fine; the process environment still applies.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrap(errors.KindConfig, "config.load", "read config file", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AFROCHAIN_ENV"); v != "" {
		cfg.Server.Environment = v
	}
	if v := os.Getenv("AFROCHAIN_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AFROCHAIN_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("AFROCHAIN_DB_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("AFROCHAIN_REDIS_ADDR"); v != "" {
		cfg.Auth.Challenge.Driver = "redis"
		cfg.Auth.Challenge.Redis.Addr = v
	}
	if v := os.Getenv("AFROCHAIN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
