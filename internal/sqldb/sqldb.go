// Package sqldb opens the demo database the SQL query tool and the users
// resource read from. SQLite (in-memory by default) serves local use;
// Postgres via a DSN serves shared deployments.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Config selects the driver and data source.
type Config struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

const seedSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

var seedUsers = []struct {
	id    int
	name  string
	email string
}{
	{1, "John Doe", "john@example.com"},
	{2, "Jane Smith", "jane@example.com"},
	{3, "Bob Johnson", "bob@example.com"},
}

// Open connects, verifies the connection, and seeds the demo users table
// when it is empty.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	var driverName string
	switch cfg.Driver {
	case "sqlite":
		driverName = "sqlite"
	case "postgres":
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// The in-memory database vanishes with its connection; keep one.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := seed(ctx, db, cfg.Driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func seed(ctx context.Context, db *sql.DB, driver string) error {
	if _, err := db.ExecContext(ctx, seedSchema); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	insert := `INSERT INTO users (id, name, email) VALUES (?, ?, ?)`
	if driver == "postgres" {
		insert = `INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`
	}
	for _, u := range seedUsers {
		if _, err := db.ExecContext(ctx, insert, u.id, u.name, u.email); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}
	return nil
}
