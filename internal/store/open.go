package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OpenOptions controls how Open waits for the database
type OpenOptions struct {
	Attempts int
	Backoff  time.Duration
	// SkipMigrations leaves the schema untouched.
	SkipMigrations bool
}

// OpenPostgres connects to databaseURL, retrying until the database answers,
// then applies migrations. The returned func closes the pool.
func OpenPostgres(ctx context.Context, databaseURL string, opts OpenOptions, logger *zap.Logger) (*Postgres, func(), error) {
	if opts.Attempts < 1 {
		opts.Attempts = 10
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 3 * time.Second
	}

	var (
		pool *pgxpool.Pool
		err  error
	)
	for i := 0; i < opts.Attempts; i++ {
		pool, err = pgxpool.New(ctx, databaseURL)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		logger.Warn("waiting for database",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", opts.Attempts),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(opts.Backoff):
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database after %d attempts: %w", opts.Attempts, err)
	}
	logger.Info("connected to PostgreSQL database")

	if !opts.SkipMigrations {
		if err := Migrate(databaseURL); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}
	return NewPostgres(pool), pool.Close, nil
}
