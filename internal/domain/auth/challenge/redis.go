package challenge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis constructs a redis-backed challenge store. Expiry is enforced by
// key TTLs; consumption uses GETDEL so replay checks stay atomic even across
// multiple server instances.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "auth:challenge:"
	}
	return &redisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

func (s *redisStore) key(wallet string) string {
	return s.prefix + wallet
}

func (s *redisStore) Put(ctx context.Context, ch Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	expiry := time.Until(ch.ExpiresAt)
	if expiry <= 0 {
		return fmt.Errorf("challenge already expired")
	}
	return s.client.Set(ctx, s.key(ch.WalletAddress), data, expiry).Err()
}

func (s *redisStore) Get(ctx context.Context, wallet string) (Challenge, bool, error) {
	raw, err := s.client.Get(ctx, s.key(wallet)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Challenge{}, false, nil
		}
		return Challenge{}, false, err
	}
	return s.decode(raw)
}

func (s *redisStore) Consume(ctx context.Context, wallet string) (Challenge, bool, error) {
	raw, err := s.client.GetDel(ctx, s.key(wallet)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Challenge{}, false, nil
		}
		return Challenge{}, false, err
	}
	return s.decode(raw)
}

func (s *redisStore) decode(raw []byte) (Challenge, bool, error) {
	var ch Challenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return Challenge{}, false, err
	}
	if ch.Expired(s.now()) {
		return Challenge{}, false, nil
	}
	return ch, true, nil
}

func (s *redisStore) CleanupExpired(context.Context) error {
	// Redis handles expiration via key TTLs.
	return nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
