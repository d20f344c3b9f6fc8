// Package postgres owns the process-wide PostgreSQL connection pool.
//
// The pool can be rebuilt at runtime by the health monitor's healing action.
// Reset swaps in a freshly-opened pool and retires the old one in the
// background, so in-flight transactions on the old pool run to completion
// instead of being aborted mid-statement.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"

	"tributo/internal/platform/config"
)

// Pool wraps *sql.DB so the underlying pool can be swapped atomically.
type Pool struct {
	mu  sync.RWMutex
	db  *sql.DB
	cfg config.PostgresConfig
}

// New opens and verifies a PostgreSQL connection pool.
func New(ctx context.Context, cfg config.PostgresConfig) (*Pool, error) {
	db, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Pool{db: db, cfg: cfg}, nil
}

// DB returns the current underlying pool. Callers must not retain the
// returned handle across operations; fetch it per call so healing resets
// take effect.
func (p *Pool) DB() *sql.DB {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db
}

// PingContext probes the current pool.
func (p *Pool) PingContext(ctx context.Context) error {
	return p.DB().PingContext(ctx)
}

// Reset tears down the current pool and establishes a fresh one. The old
// pool is closed in the background once the swap succeeds; if the new pool
// cannot be verified, the old one stays in place.
func (p *Pool) Reset(ctx context.Context) error {
	fresh, err := open(ctx, p.cfg)
	if err != nil {
		return fmt.Errorf("open replacement pool: %w", err)
	}

	p.mu.Lock()
	old := p.db
	p.db = fresh
	p.mu.Unlock()

	// Close releases idle connections immediately and lets in-flight
	// transactions on the old pool finish before their connections drop.
	go func() { _ = old.Close() }()
	return nil
}

// Close shuts down the current pool.
func (p *Pool) Close() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db.Close()
}

func open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
