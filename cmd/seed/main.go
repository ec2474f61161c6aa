// Command seed fills the PostgreSQL catalog with a large generated florist
// inventory for load and search testing. It uses the same environment
// variables as the server.
//
// Run: go run ./cmd/seed -count 10000
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellknownalpha/bloom-pos/internal/config"
	"github.com/wellknownalpha/bloom-pos/internal/domain"
	pgrepo "github.com/wellknownalpha/bloom-pos/internal/repository/postgres"
	"github.com/wellknownalpha/bloom-pos/pkg/database"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
	"github.com/wellknownalpha/bloom-pos/pkg/logger"
)

func main() {
	count := flag.Int("count", 10000, "number of products to generate")
	batchSize := flag.Int("batch", 500, "products per transaction")
	seed := flag.Int64("seed", 1, "random seed; the same seed yields the same catalog")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("bloom-pos-seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, *count, *batchSize, *seed); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, count, batchSize int, seed int64) error {
	if count < 1 || batchSize < 1 {
		return fmt.Errorf("count and batch must be positive")
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, pgrepo.Migrations(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	products := generateProducts(count, seed, time.Now().UTC())
	start := time.Now()
	inserted, skipped := 0, 0

	for lo := 0; lo < len(products); lo += batchSize {
		hi := min(lo+batchSize, len(products))
		n, s, err := insertBatch(ctx, pool, products[lo:hi])
		if err != nil {
			return fmt.Errorf("insert batch %d-%d: %w", lo, hi, err)
		}
		inserted += n
		skipped += s
		log.Info("batch inserted",
			slog.Int("through", hi),
			slog.Int("total", len(products)),
		)
	}

	log.Info("seed complete",
		slog.Int("inserted", inserted),
		slog.Int("skipped_existing", skipped),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// insertBatch writes products in one transaction. Products that already exist
// from an earlier run with the same seed are skipped.
func insertBatch(ctx context.Context, pool *pgxpool.Pool, products []domain.Product) (inserted, skipped int, err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	repo := pgrepo.NewProductRepository(tx)
	for i := range products {
		if _, getErr := repo.GetByID(ctx, products[i].ID); getErr == nil {
			skipped++
			continue
		} else if !errors.Is(getErr, apperrors.ErrNotFound) {
			return 0, 0, getErr
		}
		if err = repo.Create(ctx, &products[i]); err != nil {
			return 0, 0, err
		}
		inserted++
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, skipped, nil
}
