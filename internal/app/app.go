// Package app is the composition root: it loads configuration, selects a
// backend binding, and wires the adapter and session facade the commands
// run against.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aora-app/client/internal/aora"
	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/backend/devstack"
	"github.com/aora-app/client/internal/backend/memory"
	"github.com/aora-app/client/internal/backend/rest"
	"github.com/aora-app/client/internal/config"
	"github.com/aora-app/client/internal/logging"
	"github.com/aora-app/client/internal/session"
)

const usage = "expected command: register, login, logout, whoami, feed, latest, search, mine, upload, or migrate"

// Run executes one CLI command.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	if args[0] == "migrate" {
		return runMigrations(ctx, cfg)
	}

	provider, cleanup, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	adapter := aora.New(provider, aora.Target{
		DatabaseID:        cfg.DatabaseID,
		UserCollectionID:  cfg.UserCollectionID,
		VideoCollectionID: cfg.VideoCollectionID,
		StorageID:         cfg.StorageID,
	})
	facade := session.NewFacade(adapter)

	return runCommand(ctx, adapter, facade, args)
}

// buildProvider selects the backend binding named by the configuration.
func buildProvider(ctx context.Context, cfg config.Config) (backend.Provider, func(), error) {
	switch cfg.Backend {
	case "rest":
		sessions, err := sessionStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		client, err := rest.New(rest.Options{
			Endpoint:          cfg.Endpoint,
			ProjectID:         cfg.ProjectID,
			Platform:          cfg.Platform,
			Sessions:          sessions,
			RequestsPerSecond: 10,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil

	case "devstack":
		pool, err := devstack.Connect(ctx, cfg.Devstack.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		provider, err := devstack.New(ctx, pool, cfg.Devstack)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return provider, pool.Close, nil

	case "memory":
		return memory.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func sessionStore(cfg config.Config) (rest.SessionStore, error) {
	path := cfg.SessionFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determine home directory: %w", err)
		}
		path = filepath.Join(home, ".aora", "session")
	}
	return rest.NewFileSessionStore(path)
}

func runMigrations(ctx context.Context, cfg config.Config) error {
	pool, err := devstack.Connect(ctx, cfg.Devstack.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return devstack.Migrate(ctx, pool, cfg.Devstack.MigrationDir)
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
