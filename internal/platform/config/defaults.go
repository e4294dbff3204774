package config

import "time"

// DefaultConfig returns the development-mode defaults. Production deployments
// must override the environment and the JWT secret.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:          "0.0.0.0",
			Port:        8080,
			Environment: EnvDevelopment,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "auth-server.log",
		},
		Web: WebConfig{
			Enabled:   false,
			StaticDir: "./web",
		},
		Auth: AuthConfig{
			JWTSecret: "dev-only-secret",
			TokenTTL:  7 * 24 * time.Hour,
			Challenge: ChallengeConfig{
				Driver:  "memory",
				TTL:     5 * time.Minute,
				Cleanup: time.Minute,
			},
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "data/afrochain.db",
		},
		Observability: ObservabilityConfig{
			Enabled: false,
		},
	}
}
