package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lborres/clientportal/adapters/memory"
	pgxadapter "github.com/lborres/clientportal/adapters/pgx"
	redisadapter "github.com/lborres/clientportal/adapters/redis"
	"github.com/lborres/clientportal/core"
	"github.com/lborres/clientportal/internal/config"
	"github.com/lborres/clientportal/pkg/cache"
	"github.com/lborres/clientportal/pkg/crypto"
)

// resolveSecret returns the configured secret, or a random one outside
// production. Sessions signed with a random secret die with the process.
func resolveSecret(cfg config.Config, log *zap.Logger) (string, error) {
	if cfg.Session.Secret != "" {
		return cfg.Session.Secret, nil
	}
	if cfg.Production() {
		return "", core.ErrSecretRequired
	}

	secret, err := crypto.GenerateSecret(0)
	if err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	log.Warn("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")

	return secret, nil
}

// buildDirectory connects Postgres when a DSN is configured and otherwise
// returns an in-memory directory loaded from the seed file.
func buildDirectory(ctx context.Context, cfg config.Config, log *zap.Logger) (core.Directory, func(), error) {
	if cfg.Postgres.DSN != "" {
		pool, err := pgxadapter.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		dir := pgxadapter.New(pool)

		if cfg.Postgres.Migrate {
			applied, err := dir.Migrate(ctx)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}
			log.Info("postgres migrations applied", zap.Strings("files", applied))
		}

		log.Info("using postgres directory")
		return dir, pool.Close, nil
	}

	dir := memory.New()
	if cfg.Seed.File != "" {
		f, err := os.Open(cfg.Seed.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()

		if err := dir.Load(f); err != nil {
			return nil, nil, err
		}
	}

	log.Info("using in-memory directory", zap.String("seed", cfg.Seed.File))
	return dir, func() {}, nil
}

// buildLimiter returns the counter store for login throttling: Redis when
// configured, process memory otherwise.
func buildLimiter(ctx context.Context, cfg config.Config, log *zap.Logger) (core.WindowStore, func(), error) {
	if cfg.Login.MaxAttempts == 0 {
		log.Info("login throttling disabled")
		return nil, func() {}, nil
	}

	if cfg.Redis.Addr != "" {
		client, err := redisadapter.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}

		log.Info("using redis login counters", zap.String("addr", cfg.Redis.Addr))
		return redisadapter.NewRateStore(client), func() { _ = client.Close() }, nil
	}

	log.Info("using in-memory login counters")
	return cache.NewWindowCounter(0), func() {}, nil
}
