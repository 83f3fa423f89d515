package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/vidbot/core/logger"
)

// Migrate waits for the server and applies every pending up migration
// from cfg.MigrationsDir.
func Migrate(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()
	if err := WaitReady(ctx, cfg, 30*time.Second); err != nil {
		logger.Error(ctx, logger.CompMigrate, "db.migrate", slog.Any("err", err))
		return err
	}

	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.Error(ctx, logger.CompMigrate, "db.migrate", slog.String("path", dir), slog.Any("err", err))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, logger.CompMigrate, "db.migrate",
			slog.String("status", "fail"),
			slog.Duration("duration", logger.Took(start)),
			slog.Any("err", upErr),
		)
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	to, _, _ := m.Version()

	logger.Info(ctx, logger.CompMigrate, "db.migrate",
		slog.String("status", "ok"),
		slog.String("path", dir),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
