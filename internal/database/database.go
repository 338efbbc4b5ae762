// Package database owns the PostgreSQL connection pool shared by every
// repository.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/imggen/internal/common"
	"github.com/dharsanguruparan/imggen/internal/logging"
)

// Options bounds the pool. Zero values fall back to the defaults below.
type Options struct {
	MaxConns       int32
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
}

const (
	defaultMaxConns       = 20
	defaultIdleTimeout    = 30 * time.Second
	defaultConnectTimeout = 2 * time.Second
)

// Querier is the subset of pgx used by repositories. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

// ConnectionError reports that the database could not be reached at startup.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", common.ErrConnection, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, common.ErrConnection) match.
func (e *ConnectionError) Is(target error) bool { return target == common.ErrConnection }

// Connect opens a pgx pool for dsn, then acquires one connection, pings it
// and hands it back. The pool is returned only if that round trip succeeds.
func Connect(ctx context.Context, dsn string, opts Options, logger logging.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error(ctx, "postgres connection error", "err", err)
		return nil, &ConnectionError{Cause: fmt.Errorf("parse dsn: %w", err)}
	}
	applyOptions(cfg, opts)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "postgres connection error", "err", err)
		return nil, &ConnectionError{Cause: err}
	}
	if err := check(ctx, pool, cfg.ConnConfig.ConnectTimeout); err != nil {
		pool.Close()
		logger.Error(ctx, "postgres connection error", "host", cfg.ConnConfig.Host, "err", err)
		return nil, &ConnectionError{Cause: err}
	}
	logger.Info(ctx, "connected to postgres",
		"host", cfg.ConnConfig.Host,
		"port", cfg.ConnConfig.Port,
		"database", cfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns,
	)
	return pool, nil
}

func applyOptions(cfg *pgxpool.Config, opts Options) {
	cfg.MaxConns = opts.MaxConns
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = defaultMaxConns
	}
	cfg.MaxConnIdleTime = opts.IdleTimeout
	if cfg.MaxConnIdleTime <= 0 {
		cfg.MaxConnIdleTime = defaultIdleTimeout
	}
	cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	if cfg.ConnConfig.ConnectTimeout <= 0 {
		cfg.ConnConfig.ConnectTimeout = defaultConnectTimeout
	}
}

func check(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout*2)
	defer cancel()
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
