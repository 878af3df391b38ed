package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/muntakson/salama/internal/models"
)

const keyPrefix = "salama:admin_session:"

// RedisStore keeps sessions in Redis with a per-key expiry
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions holds the Redis connection settings
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, opts RedisOptions, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create issues a new session token
func (s *RedisStore) Create(ctx context.Context) (*models.AdminSession, error) {
	token, err := models.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.client.Set(ctx, keyPrefix+token, now.Unix(), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	slog.Debug("admin session created", "expires_in", s.ttl)
	return &models.AdminSession{Token: token, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}, nil
}

// Valid returns ErrInvalidSession unless the token is live
func (s *RedisStore) Valid(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidSession
	}

	n, err := s.client.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if n == 0 {
		return ErrInvalidSession
	}
	return nil
}

// Revoke deletes the token; unknown tokens are ignored
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
