package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is the snapshot database. Postgres URLs use lib/pq; anything else is
// a SQLite path.
type DB struct {
	*sql.DB
	dialect string
}

func New(databaseURL string) (*DB, error) {
	driver, dsn := driverFor(databaseURL)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close() // Ignore close error, we're already returning ping error
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == "sqlite3" {
		// One writer at a time avoids SQLITE_BUSY inside the snapshot transaction.
		db.SetMaxOpenConns(1)
	}
	return &DB{DB: db, dialect: driver}, nil
}

func driverFor(databaseURL string) (driver, dsn string) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres", databaseURL
	}
	return "sqlite3", strings.TrimPrefix(databaseURL, "sqlite://")
}

// Dialect is the goose dialect of the open database.
func (db *DB) Dialect() string {
	return db.dialect
}

func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(db.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders to $N for postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
