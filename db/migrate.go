package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Versioned migrations, one pair per version:
//
//	000001_description.up.sql   - applies the migration
//	000001_description.down.sql - reverts the migration
//
// The statements must run unchanged on Postgres and SQLite.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date. Versioned migrations run first; when
// they fail the legacy CREATE ... IF NOT EXISTS statements are applied instead.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.RunMigrations()
	if err == nil {
		return nil
	}
	slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
		slog.Any("err", err),
		slog.String("driver", s.Driver),
		slog.String("component", "db_migrate"))
	if err := s.migrateLegacy(ctx); err != nil {
		return fmt.Errorf("%s migrate failed (versioned and embedded SQL): %w", s.Driver, err)
	}
	return nil
}

// RunMigrations applies pending versioned migrations with golang-migrate.
// It is idempotent.
func (s *Store) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	var driver database.Driver
	switch s.Driver {
	case DriverPostgres:
		driver, err = migratepgx.WithInstance(s.DB, &migratepgx.Config{})
	case DriverSQLite:
		driver, err = migratesqlite.WithInstance(s.DB, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", s.Driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migrate driver: %w", s.Driver, err)
	}

	// m is left open: closing it would close s.DB through the database driver.
	m, err := migrate.NewWithInstance("iofs", src, s.Driver, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Debug("database schema is up to date", slog.String("component", "db_migrate"))
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		slog.Warn("could not determine migration version", slog.Any("err", err), slog.String("component", "db_migrate"))
		return nil
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d - manual intervention required", version)
	}
	slog.Info("migrations applied successfully",
		slog.Uint64("version", uint64(version)),
		slog.String("component", "db_migrate"))
	return nil
}

// migrateLegacy creates the schema without version tracking. Both dialects
// accept the statements.
func (s *Store) migrateLegacy(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vods (
			twitch_vod_id TEXT PRIMARY KEY,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			message_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			vod_id TEXT NOT NULL REFERENCES vods(twitch_vod_id),
			rel_offset INTEGER NOT NULL,
			display_time TEXT NOT NULL,
			username TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (vod_id, rel_offset)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_vod_username ON chat_messages(vod_id, username)`,
	}
	for i, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s migrate step %d failed: %w", s.Driver, i, err)
		}
	}
	return nil
}
