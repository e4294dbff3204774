package challenge

import (
	"context"
	"time"
)

// Store tracks outstanding challenges keyed by normalized wallet address.
// At most one challenge is live per wallet; a new Put replaces the old one.
type Store interface {
	Put(ctx context.Context, ch Challenge) error

	// Get returns the live challenge for the wallet without consuming it.
	// Expired challenges are reported as absent.
	Get(ctx context.Context, wallet string) (Challenge, bool, error)

	// Consume atomically removes and returns the live challenge. A second
	// Consume for the same wallet reports absent, which is what defeats
	// signature replay.
	Consume(ctx context.Context, wallet string) (Challenge, bool, error)

	CleanupExpired(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config describes the store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Memory *MemoryConfig
	Redis  *RedisConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
