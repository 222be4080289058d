package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Book represents a row in the books table.
type Book struct {
	ID              int64          `db:"id"`
	Title           string         `db:"title"`
	Author          string         `db:"author"`
	PublicationYear int            `db:"publication_year"`
	ISBN            sql.NullString `db:"isbn"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

const bookColumns = `id, title, author, publication_year, isbn, created_at, updated_at`

// BookStore is the sqlx-backed data access object for books.
// No handler or service may query the books table directly.
type BookStore struct {
	db *sqlx.DB
}

func NewBookStore(db *sqlx.DB) *BookStore {
	return &BookStore{db: db}
}

// timestamp is the current UTC time at the microsecond precision that
// DATETIME(6) and TIMESTAMPTZ store.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *BookStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts b and returns the stored row including its generated ID.
// Returns ErrDuplicateISBN if the ISBN is already registered.
func (s *BookStore) Create(ctx context.Context, b *Book) (*Book, error) {
	now := timestamp()
	args := []any{b.Title, b.Author, b.PublicationYear, b.ISBN, now, now}
	insert := `INSERT INTO books (title, author, publication_year, isbn, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	var id int64
	if sqlx.BindType(s.db.DriverName()) == sqlx.DOLLAR {
		// lib/pq and pgx do not implement LastInsertId.
		if err := s.db.QueryRowxContext(ctx, s.q(insert+` RETURNING id`), args...).Scan(&id); err != nil {
			return nil, translateWriteError(err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, s.q(insert), args...)
		if err != nil {
			return nil, translateWriteError(err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, err
		}
	}

	return &Book{
		ID:              id,
		Title:           b.Title,
		Author:          b.Author,
		PublicationYear: b.PublicationYear,
		ISBN:            b.ISBN,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GetByID returns the book with the given ID, or ErrNotFound.
func (s *BookStore) GetByID(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := s.db.GetContext(ctx, &b, s.q(`SELECT `+bookColumns+` FROM books WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all books ordered alphabetically by title, ignoring case, so
// every backend agrees regardless of its default collation. The result is
// never nil.
func (s *BookStore) List(ctx context.Context) ([]*Book, error) {
	books := []*Book{}
	err := s.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books ORDER BY LOWER(title) ASC, title ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Update overwrites title, author, publication year and ISBN of the book
// identified by b.ID and returns the refreshed row, or ErrNotFound.
func (s *BookStore) Update(ctx context.Context, b *Book) (*Book, error) {
	_, err := s.db.ExecContext(ctx, s.q(`
		UPDATE books SET title = ?, author = ?, publication_year = ?, isbn = ?, updated_at = ? WHERE id = ?
	`), b.Title, b.Author, b.PublicationYear, b.ISBN, timestamp(), b.ID)
	if err != nil {
		return nil, translateWriteError(err)
	}
	// RowsAffected is not used: MySQL counts changed rows, not matched rows,
	// unless the DSN sets clientFoundRows=true. The re-read reports a missing
	// book as ErrNotFound on every driver.
	return s.GetByID(ctx, b.ID)
}

// Delete removes a book by ID.
func (s *BookStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM books WHERE id = ?`), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored books.
func (s *BookStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`)
	return n, err
}

// Ping reports whether the database is reachable.
func (s *BookStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
