package books

import (
	"strings"
	"time"
)

// CreateRequest is the request body for POST /api/books.
type CreateRequest struct {
	Title           string `json:"title" validate:"notblank,max=255"`
	Author          string `json:"author" validate:"notblank,max=255"`
	PublicationYear int    `json:"publicationYear" validate:"gt=0"`
	ISBN            string `json:"isbn,omitempty" validate:"max=13"`
}

// UpdateRequest is the request body for PUT /api/books/{id}. Every field is
// overwritten; an empty isbn clears it.
type UpdateRequest struct {
	Title           string `json:"title" validate:"notblank,max=255"`
	Author          string `json:"author" validate:"notblank,max=255"`
	PublicationYear int    `json:"publicationYear" validate:"gt=0"`
	ISBN            string `json:"isbn,omitempty" validate:"max=13"`
}

// Book is the JSON representation of a single book.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	PublicationYear int       `json:"publicationYear"`
	ISBN            *string   `json:"isbn"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r *CreateRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.TrimSpace(r.ISBN)
}

func (r *UpdateRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.TrimSpace(r.ISBN)
}
