package config

import (
	"strings"
	"time"

	"afrochain-auth-go/internal/platform/errors"
)

// Environment modes. Anything other than development enforces the secret
// policy at startup.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// insecureSecrets are defaults that ship in sample configs and must never
// reach a security-sensitive environment.
var insecureSecrets = map[string]struct{}{
	"":                      {},
	"changeme":              {},
	"secret":                {},
	"afrochain_secret_key":  {},
	"your_jwt_secret":       {},
}

const minSecretLength = 32

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Web           WebConfig           `yaml:"web"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	IP          string `yaml:"ip"`
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// WebConfig controls serving of the built storefront assets.
type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StaticDir string `yaml:"static_dir"`
}

type AuthConfig struct {
	JWTSecret string          `yaml:"jwt_secret"`
	TokenTTL  time.Duration   `yaml:"token_ttl"`
	Challenge ChallengeConfig `yaml:"challenge"`
}

type ChallengeConfig struct {
	Driver  string        `yaml:"driver"`
	TTL     time.Duration `yaml:"ttl"`
	Cleanup time.Duration `yaml:"cleanup"`
	Redis   RedisConfig   `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ObservabilityConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate enforces startup invariants. A missing or insecure JWT secret
// outside development mode is fatal, never silently degraded.
func (c *Config) Validate() error {
	env := strings.ToLower(c.Server.Environment)
	if env == "" {
		env = EnvProduction
	}

	secret := c.Auth.JWTSecret
	if env != EnvDevelopment {
		if _, insecure := insecureSecrets[strings.ToLower(secret)]; insecure {
			return errors.New(
				errors.KindConfig,
				"config.validate",
				"jwt secret is missing or a known insecure default",
			)
		}
		if len(secret) < minSecretLength {
			return errors.New(
				errors.KindConfig,
				"config.validate",
				"jwt secret is too short for a production deployment",
			)
		}
	} else if secret == "" {
		// Development still needs some secret so issued tokens verify.
		return errors.New(
			errors.KindConfig,
			"config.validate",
			"jwt secret must not be empty",
		)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate", "invalid server port")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "token ttl must be positive")
	}
	if c.Auth.Challenge.TTL <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "challenge ttl must be positive")
	}
	return nil
}

// IsDevelopment reports whether the relaxed secret policy applies.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Server.Environment) == EnvDevelopment
}
