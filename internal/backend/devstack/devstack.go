// Package devstack binds backend.Provider to self-hosted infrastructure:
// accounts, sessions and documents live in PostgreSQL, files in an
// S3-compatible object store. It exists for development rigs and CI where
// no hosted provider is available; the hosted binding is internal/backend/rest.
package devstack

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/config"
)

// Pool abstracts the pgx connection pool to make testing easier.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// Connect initialises a PostgreSQL connection pool for the binding.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return pool, nil
}

// Provider implements backend.Provider over Postgres and S3.
type Provider struct {
	*AccountStore
	*DocumentStore
	*FileStore
}

// New assembles the binding. The caller owns the pool's lifecycle.
func New(ctx context.Context, pool Pool, cfg config.DevstackConfig) (*Provider, error) {
	files, err := NewFileStore(ctx, cfg.ObjectStore)
	if err != nil {
		return nil, err
	}

	return &Provider{
		AccountStore:  NewAccountStore(pool),
		DocumentStore: NewDocumentStore(pool),
		FileStore:     files,
	}, nil
}

var _ backend.Provider = (*Provider)(nil)
