package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"github.com/TRSiddique/university-association-sub000/log"
)

//go:embed migrations
var dbMigrations embed.FS

// migrateDB brings the schema for forms, responses and admin accounts up to
// the latest embedded migration.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "migrations.source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "migrations.target")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return errors.Wrap(err, "migrations.init")
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "migrations.up")
	}

	if version, dirty, err := migrator.Version(); err == nil {
		log.Infof("database schema migrated to version %d (dirty=%t)", version, dirty)
	}
	return nil
}
