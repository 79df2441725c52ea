package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/OFFIS-RIT/ned/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const DefaultMigrationsDir = "migrations"

// SourceURL turns a migrations directory into a golang-migrate file source.
func SourceURL(dir string) (string, error) {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Migrate applies all pending migrations in dir to the database.
func Migrate(databaseURL string, dir string) error {
	if databaseURL == "" {
		return errors.New("database url is empty")
	}
	src, err := SourceURL(dir)
	if err != nil {
		return err
	}

	m, err := migrate.New(src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	logger.Info("Database schema ready", "version", version, "dirty", dirty)
	return nil
}
