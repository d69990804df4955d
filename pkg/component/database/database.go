// Package database opens the gorm connection used for conversation history.
// sqlite, postgres and mysql are supported.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/coursemind/pkg/component/storage"
	convopts "github.com/kart-io/coursemind/pkg/options/conversation"
)

const slowQueryThreshold = 200 * time.Millisecond

// Client wraps gorm.DB with the storage.Client interface.
type Client struct {
	db     *gorm.DB
	driver string
}

var _ storage.Client = (*Client)(nil)

// Open connects using the driver selected in opts and verifies the connection.
func Open(ctx context.Context, opts *convopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("conversation options cannot be nil")
	}

	var (
		dialector gorm.Dialector
		maxOpen   int
		lifetime  time.Duration
	)
	switch opts.Driver {
	case convopts.DriverSQLite:
		if dir := filepath.Dir(opts.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dialector = sqlite.Open(opts.SQLitePath)
		// sqlite 只允许单写
		maxOpen = 1
	case convopts.DriverPostgres:
		dialector = postgres.Open(opts.Postgres.DSN())
		maxOpen, lifetime = opts.Postgres.MaxOpenConnections, opts.Postgres.MaxConnectionLifeTime
	case convopts.DriverMySQL:
		dialector = mysql.Open(opts.MySQL.DSN())
		maxOpen, lifetime = opts.MySQL.MaxOpenConnections, opts.MySQL.MaxConnectionLifeTime
	default:
		return nil, fmt.Errorf("unsupported conversation driver %q", opts.Driver)
	}

	return open(ctx, opts.Driver, dialector, maxOpen, lifetime)
}

// OpenSQLite opens a sqlite database at path; ":memory:" is allowed.
func OpenSQLite(ctx context.Context, path string) (*Client, error) {
	return open(ctx, convopts.DriverSQLite, sqlite.Open(path), 1, 0)
}

func open(ctx context.Context, driver string, dialector gorm.Dialector, maxOpen int, lifetime time.Duration) (*Client, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(gormlogger.Warn, slowQueryThreshold),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if lifetime > 0 {
		sqlDB.SetConnMaxLifetime(lifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	return &Client{db: db, driver: driver}, nil
}

// Name implements storage.Client.
func (c *Client) Name() string { return c.driver }

// Ping implements storage.Client.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements storage.Client.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the gorm handle.
func (c *Client) DB() *gorm.DB {
	return c.db
}
