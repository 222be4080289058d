package books

import (
	"database/sql"

	"github.com/joestump/bookshelf/internal/store"
)

// ToEntity converts a create request into a new, unsaved store row.
func ToEntity(req CreateRequest) *store.Book {
	return &store.Book{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
		ISBN:            nullString(req.ISBN),
	}
}

// ApplyUpdate overwrites the mutable fields of b with req.
func ApplyUpdate(b *store.Book, req UpdateRequest) {
	b.Title = req.Title
	b.Author = req.Author
	b.PublicationYear = req.PublicationYear
	b.ISBN = nullString(req.ISBN)
}

// ToDTO converts a stored row to its response shape. A nil row maps to nil.
func ToDTO(b *store.Book) *Book {
	if b == nil {
		return nil
	}
	dto := &Book{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		PublicationYear: b.PublicationYear,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.ISBN.Valid {
		isbn := b.ISBN.String
		dto.ISBN = &isbn
	}
	return dto
}

// ToDTOList converts rows to response shapes. The result is never nil.
func ToDTOList(rows []*store.Book) []*Book {
	out := make([]*Book, 0, len(rows))
	for _, b := range rows {
		out = append(out, ToDTO(b))
	}
	return out
}

// Empty strings are stored as NULL so the unique index ignores them.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
