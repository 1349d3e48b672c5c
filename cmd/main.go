package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/repositories"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/session"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	config, err := loadConfig(cmp.Or(os.Getenv("SOUNDWAVE_CONFIG"), "config.toml"))
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	opts := RunnerOpts{Config: config, Logger: logger}

	store, closeStore, err := openTokenStore(ctx, config.Storage)
	if err != nil {
		logger.Warn("token storage unavailable, run 'soundwave setup database'", "error", err)
	} else {
		defer closeStore()

		httpClient := &http.Client{Timeout: config.API.Timeout()}
		manager, err := session.NewManager(ctx, session.ManagerOpts{
			API:    session.NewAuthAPI(config.API.BaseURL, httpClient),
			Store:  store,
			Logger: logger,
		})
		if err != nil {
			logger.Warn("failed to restore session", "error", err)
		} else {
			defer manager.Close()
			opts.Session = manager
			opts.API = services.NewAPIService(config.API.BaseURL, session.NewClient(httpClient, manager, logger))
		}
	}

	app := newApp(NewRunner(opts))

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "soundwave",
		Usage:    "Browse and curate the artist and album catalogue",
		Version:  "0.3.0",
		Commands: runner.register(),
	}
}

// loadConfig layers the .env file, path (when present) and SOUNDWAVE_* variables over the defaults.
func loadConfig(path string) (*shared.Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := shared.ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// openTokenStore opens the configured token storage. The returned func releases it.
func openTokenStore(ctx context.Context, cfg shared.StorageConfig) (repositories.TokenStore, func(), error) {
	switch cfg.Driver {
	case shared.StorageSQLite:
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repositories.NewTokenRepository(db), closer(db), nil
	case shared.StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%w: redis %s: %v", shared.ErrTokenStore, cfg.RedisAddr, err)
		}
		return repositories.NewRedisTokenStore(client, cfg.RedisPrefix), closer(client), nil
	default:
		return repositories.NewMemoryTokenStore(nil), func() {}, nil
	}
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn("failed to close token storage", "error", err)
		}
	}
}
