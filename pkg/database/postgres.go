package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by *pgxpool.Pool and by pgxmock pools, so repositories
// can be tested without a database.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// SlowQueryThreshold logs queries slower than this. Zero disables it.
	SlowQueryThreshold time.Duration
}

// DSN returns the connection URL with credentials escaped.
func (c *PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

const (
	connectAttempts  = 3
	connectBaseWait  = time.Second
	connectJitterPct = 0.25
)

// backoff returns 1s, 2s, 4s... with +/-25% jitter for the given 0-indexed attempt.
func backoff(attempt int) time.Duration {
	base := connectBaseWait << max(attempt, 0)
	jitter := time.Duration(float64(base) * connectJitterPct * (2*rand.Float64() - 1)) // #nosec G404 -- retry jitter
	return base + jitter
}

// withRetry runs fn up to connectAttempts times while retryable(err) holds.
func withRetry(ctx context.Context, logger *slog.Logger, what string, retryable func(error) bool, fn func() error) error {
	var err error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if attempt == connectAttempts-1 {
			break
		}

		wait := backoff(attempt)
		logger.Warn(what+" failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", connectAttempts),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: context done during retry: %w", what, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, connectAttempts, err)
}

// NewPostgresPool opens a pool, pings it, and installs the query tracer.
// Startup failures are retried with jittered exponential backoff.
func NewPostgresPool(ctx context.Context, cfg *PostgresConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.Tracer = NewQueryTracer(cfg.SlowQueryThreshold, logger)

	var pool *pgxpool.Pool
	err = withRetry(ctx, logger, "connect to postgres", func(error) bool { return true }, func() error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
