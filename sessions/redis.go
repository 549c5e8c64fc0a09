package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "cart:"

// Redis is the production Store; bindings survive process restarts and are
// shared across replicas. Entries expire after ttl so abandoned carts do not
// pin tokens forever.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to read session binding: %w", err)
	}

	orderID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt session binding %q: %w", val, err)
	}
	return orderID, true, nil
}

func (r *Redis) Bind(ctx context.Context, token string, orderID uuid.UUID) error {
	if err := r.client.Set(ctx, keyPrefix+token, orderID.String(), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to bind session: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to clear session binding: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
