package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"health-assistant/internal/common/config"

	_ "github.com/lib/pq"
	"golang.org/x/sync/singleflight"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Opener creates and verifies a connection pool.
type Opener func(ctx context.Context) (*sql.DB, error)

// PostgresOpener opens a pool from cfg and pings it within the connect
// timeout.
func PostgresOpener(cfg config.PostgresConfig) Opener {
	return func(ctx context.Context) (*sql.DB, error) {
		client, err := NewPostgres(cfg)
		if err != nil {
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.ConnectTimeout))
		defer cancel()

		if err := client.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		return client.DB, nil
	}
}

// LazyPostgres opens the pool on first use. Concurrent first callers share
// a single open attempt; a failed attempt is not cached so the next call
// retries.
type LazyPostgres struct {
	open  Opener
	group singleflight.Group

	mu sync.RWMutex
	db *sql.DB
}

func NewLazyPostgres(open Opener) *LazyPostgres {
	return &LazyPostgres{open: open}
}

func (l *LazyPostgres) Get(ctx context.Context) (*sql.DB, error) {
	l.mu.RLock()
	db := l.db
	l.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	// The shared attempt must not die with the first caller's context.
	openCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan("postgres", func() (interface{}, error) {
		l.mu.RLock()
		existing := l.db
		l.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		opened, err := l.open(openCtx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.db = opened
		l.mu.Unlock()
		return opened, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sql.DB), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ready reports whether a pool has been opened.
func (l *LazyPostgres) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.db != nil
}

func (l *LazyPostgres) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
