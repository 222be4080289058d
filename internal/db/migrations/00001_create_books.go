package migrations

// The books table differs by driver only in its id and timestamp column
// types: AUTOINCREMENT/DATETIME for SQLite, BIGSERIAL/TIMESTAMPTZ for
// PostgreSQL, AUTO_INCREMENT/DATETIME(6) for MySQL. ISBN is nullable so the
// unique index only applies to books that have one.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateBooks, downCreateBooks)
}

func upCreateBooks(ctx context.Context, tx *sql.Tx) error {
	var ddl string
	switch dialect {
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS books (
    id               BIGSERIAL PRIMARY KEY,
    title            VARCHAR(255) NOT NULL,
    author           VARCHAR(255) NOT NULL,
    publication_year INTEGER NOT NULL,
    isbn             VARCHAR(13) NULL UNIQUE,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
)`
	case "mysql":
		ddl = `CREATE TABLE IF NOT EXISTS books (
    id               BIGINT AUTO_INCREMENT PRIMARY KEY,
    title            VARCHAR(255) NOT NULL,
    author           VARCHAR(255) NOT NULL,
    publication_year INT NOT NULL,
    isbn             VARCHAR(13) NULL UNIQUE,
    created_at       DATETIME(6) NOT NULL,
    updated_at       DATETIME(6) NOT NULL
) ENGINE=InnoDB`
	default: // sqlite3
		ddl = `CREATE TABLE IF NOT EXISTS books (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    title            TEXT NOT NULL,
    author           TEXT NOT NULL,
    publication_year INTEGER NOT NULL,
    isbn             TEXT NULL UNIQUE,
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL
)`
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX idx_books_title ON books (title)`); err != nil {
		return fmt.Errorf("create books title index: %w", err)
	}
	return nil
}

func downCreateBooks(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS books`)
	return err
}
