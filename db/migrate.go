// Package db applies the embedded schema migrations for the vaccine
// knowledge base.
package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx v5 driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to the latest embedded migration. It runs
// at startup before the pool is opened, so a half-applied schema never
// serves traffic.
//
// connURL is the same postgres:// URL the pool uses; translation to the
// scheme golang-migrate's pgx driver expects happens here.
func Migrate(connURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	migrateURL, err := toMigrateURL(connURL)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL)
	if err != nil {
		return fmt.Errorf("connecting for migration: %w", err)
	}
	defer closeMigrator(m)

	// A dirty schema means an earlier run died mid-migration. Applying
	// more on top would compound the damage, so refuse and ask for
	// manual repair.
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema is dirty at version %d; repair it manually before starting", version)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Debug("schema already current")
			return nil
		}
		if v, d, verr := m.Version(); verr == nil && d {
			slog.Error("migration left schema dirty",
				"version", v,
				"hint", fmt.Sprintf("fix the migration, then: migrate force %d", v))
		}
		return fmt.Errorf("applying migrations: %w", err)
	}

	if v, _, verr := m.Version(); verr == nil {
		slog.Info("schema migrated", "version", v)
	}
	return nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		slog.Warn("closing migration source", "error", srcErr)
	}
	if dbErr != nil {
		slog.Warn("closing migration connection", "error", dbErr)
	}
}

// toMigrateURL rewrites a postgres:// or postgresql:// URL to the pgx5://
// scheme golang-migrate registers for its pgx v5 driver.
func toMigrateURL(connURL string) (string, error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", fmt.Errorf("parsing database URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		u.Scheme = "pgx5"
		return u.String(), nil
	default:
		return "", fmt.Errorf("database URL scheme %q is not postgres", u.Scheme)
	}
}
