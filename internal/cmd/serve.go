package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	portal "github.com/lborres/clientportal"
	fiberadapter "github.com/lborres/clientportal/adapters/fiber"
	"github.com/lborres/clientportal/core"
	"github.com/lborres/clientportal/internal/config"
	"github.com/lborres/clientportal/internal/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portal HTTP server",
	Long: `Run the portal HTTP server.

Configuration is read from --config, then overridden by environment variables
(APP_ENV, HTTP_ADDR, POSTGRES_DSN, REDIS_ADDR, SESSION_SECRET, ...). Without a
POSTGRES_DSN the server uses an in-memory directory loaded from SEED_FILE.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := cmd.Context()
	app, cleanup, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		log.Info("portal listening", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.Env))
		errCh <- app.Listen(cfg.HTTP.Addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("shutdown portal", zap.Error(err))
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("portal server failed: %w", err)
		}
		return nil
	}
}

// newServer builds the fiber app with the portal routes mounted. cleanup
// releases the backing stores.
func newServer(ctx context.Context, cfg config.Config, log *zap.Logger) (*fiber.App, func(), error) {
	secret, err := resolveSecret(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	directory, closeDirectory, err := buildDirectory(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	limiter, closeLimiter, err := buildLimiter(ctx, cfg, log)
	if err != nil {
		closeDirectory()
		return nil, nil, err
	}

	cleanup := func() {
		closeLimiter()
		closeDirectory()
	}

	app := fiber.New(fiber.Config{
		AppName:      "portal",
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     logFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "Local",
	}))
	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	_, err = portal.New(portal.Config{
		Secret:    secret,
		Directory: directory,
		HTTP:      fiberadapter.New(app),
		SessionConfig: &core.SessionConfig{
			CookieName: cfg.Session.CookieName,
			MaxAge:     cfg.Session.TTL,
			Secure:     cfg.Production(),
		},
		Limiter: limiter,
		LimiterConfig: core.LimiterConfig{
			MaxAttempts: cfg.Login.MaxAttempts,
			Window:      cfg.Login.Window,
		},
		Logger: log,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return app, cleanup, nil
}

func logFormat() string {
	format := []string{
		// Timestamp
		"${time}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}",

		// Request details
		"${method}|${path}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

// errorHandler logs unhandled errors and keeps their detail out of responses.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(code).JSON(fiber.Map{"error": "internal server error"})
		}
		return c.Status(code).JSON(fiber.Map{"error": fe.Message})
	}
}
