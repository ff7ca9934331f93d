package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lborres/clientportal/core"
)

// RateStore implements core.WindowStore on Redis counters.
type RateStore struct {
	client goredis.UniversalClient
}

var _ core.WindowStore = (*RateStore)(nil)

func NewRateStore(client goredis.UniversalClient) *RateStore {
	return &RateStore{client: client}
}

// NewClient connects to addr and pings it before returning.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// IncrementWindow counts one event for key. The first event of a window sets
// its expiry, so the window is fixed from that moment.
func (r *RateStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, errors.New("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, errors.New("invalid rate window")
	}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("failed to set ttl on %s: %w", key, err)
		}
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read ttl of %s: %w", key, err)
	}
	// repair a key left without expiry
	if ttl == -1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("failed to set ttl on %s: %w", key, err)
		}
		ttl = window
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}

// Reset deletes key's counter.
func (r *RateStore) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset %s: %w", key, err)
	}
	return nil
}
