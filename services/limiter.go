package services

import (
	"context"
	"errors"
	"time"

	"github.com/lborres/clientportal/core"
	"github.com/lborres/clientportal/pkg/crypto"
)

const (
	defaultLoginWindow = 15 * time.Minute
	limiterKeyPrefix   = "login:attempts:"
)

// LoginLimiter caps login attempts per key inside a fixed window.
type LoginLimiter struct {
	store       core.WindowStore
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter returns nil when throttling is disabled, which every method
// treats as "always allow".
func NewLoginLimiter(store core.WindowStore, config core.LimiterConfig) *LoginLimiter {
	if store == nil || config.MaxAttempts <= 0 {
		return nil
	}
	if config.Window <= 0 {
		config.Window = defaultLoginWindow
	}

	return &LoginLimiter{store: store, maxAttempts: config.MaxAttempts, window: config.Window}
}

// Allow records one attempt for scope/identifier and reports whether it is
// within the limit, plus the time left in the window when it is not.
func (l *LoginLimiter) Allow(ctx context.Context, scope, identifier string) (bool, time.Duration, error) {
	if l == nil {
		return true, 0, nil
	}
	if scope == "" {
		return false, 0, errors.New("limiter scope is required")
	}

	key := limiterKey(scope, identifier)

	count, ttl, err := l.store.IncrementWindow(ctx, key, l.window)
	if err != nil {
		return false, 0, err
	}
	if count > int64(l.maxAttempts) {
		return false, ttl, nil
	}

	return true, 0, nil
}

// Reset clears the attempts recorded for scope/identifier.
func (l *LoginLimiter) Reset(ctx context.Context, scope, identifier string) error {
	if l == nil {
		return nil
	}
	return l.store.Reset(ctx, limiterKey(scope, identifier))
}

// identifiers are emails and IPs; only their digest reaches the store
func limiterKey(scope, identifier string) string {
	return limiterKeyPrefix + scope + ":" + crypto.HashToken(identifier)
}
