package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Client owns the database/sql pool the result and prediction stores share.
type Client struct {
	db *sql.DB
}

func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("clickhouse", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	c := &Client{db: db}
	if err := c.waitReady(cfg.ConnectAttempts, cfg.ConnectBackoff, cfg.DialTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// NewFromDB wraps an existing pool, e.g. a sqlmock connection.
func NewFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) waitReady(attempts int, backoff, timeout time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err = c.db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if i < attempts {
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("clickhouse ping after %d attempt(s): %w", attempts, err)
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// InitSchema runs idempotent DDL (CREATE ... IF NOT EXISTS) in order and
// stops at the first failure.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
