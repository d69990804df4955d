// Package postgres provides the pgx connection pool behind the pgvector store.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/coursemind/pkg/component/storage"
	options "github.com/kart-io/coursemind/pkg/options/postgres"
)

// Client wraps pgxpool.Pool with the storage.Client interface.
type Client struct {
	pool *pgxpool.Pool
}

var _ storage.Client = (*Client)(nil)

// New creates the pool and pings the server.
func New(ctx context.Context, opts *options.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid postgres options: %w", utilerrors.NewAggregate(errs))
	}

	cfg, err := pgxpool.ParseConfig(opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opts.MaxOpenConnections > 0 {
		cfg.MaxConns = int32(opts.MaxOpenConnections)
	}
	if opts.MaxConnectionLifeTime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnectionLifeTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Client{pool: pool}, nil
}

// Name implements storage.Client.
func (c *Client) Name() string { return "postgres" }

// Ping implements storage.Client.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close implements storage.Client.
func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

// Pool returns the pgx pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}
