package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Open opens the SQLite database at url, enables foreign keys on every
// connection and applies pending migrations.
func Open(url string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", dsn(url))
	if err != nil {
		return nil, errors.Wrap(err, "db.open")
	}

	// db tuning options
	if strings.Contains(url, "mode=memory") {
		// every connection to an in-memory database would see its own copy
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "db.migrate")
	}

	return db, nil
}

func dsn(url string) string {
	if strings.Contains(url, "_foreign_keys") || strings.Contains(url, "_fk=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_foreign_keys=on"
}
