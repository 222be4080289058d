// Package books holds the book business rules: request validation, mapping
// between store rows and API shapes, and the lifecycle side effects (events
// and metrics) that follow a successful write.
package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/events"
	"github.com/joestump/bookshelf/internal/metrics"
	"github.com/joestump/bookshelf/internal/store"
)

var (
	// ErrNotFound is returned when no book has the requested ID.
	ErrNotFound = errors.New("book not found")

	// ErrDuplicateISBN is returned when another book already has the ISBN.
	ErrDuplicateISBN = errors.New("isbn is already registered")
)

// Repository is the data access the service needs. *store.BookStore satisfies it.
type Repository interface {
	Create(ctx context.Context, b *store.Book) (*store.Book, error)
	GetByID(ctx context.Context, id int64) (*store.Book, error)
	List(ctx context.Context) ([]*store.Book, error)
	Update(ctx context.Context, b *store.Book) (*store.Book, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	validate  *validator.Validate
	log       *zap.Logger
}

func NewService(repo Repository, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		validate:  newValidator(),
		log:       log,
	}
}

// Create validates req and stores a new book.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Book, error) {
	req.normalize()
	if err := check(s.validate, req); err != nil {
		return nil, s.record("create", err)
	}

	saved, err := s.repo.Create(ctx, ToEntity(req))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateISBN) {
			return nil, s.record("create", fmt.Errorf("%w: %s", ErrDuplicateISBN, req.ISBN))
		}
		return nil, s.record("create", fmt.Errorf("create book: %w", err))
	}

	book := ToDTO(saved)
	s.record("create", nil)
	s.afterWrite(ctx, events.TypeBookCreated, book)
	return book, nil
}

// Get returns the book with the given ID.
func (s *Service) Get(ctx context.Context, id int64) (*Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.record("get", s.lookupError(id, err))
	}
	s.record("get", nil)
	return ToDTO(b), nil
}

// List returns every book ordered alphabetically by title.
func (s *Service) List(ctx context.Context) ([]*Book, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.record("list", fmt.Errorf("list books: %w", err))
	}
	s.record("list", nil)
	return ToDTOList(rows), nil
}

// Update overwrites the book's title, author, year and ISBN. A missing book
// is reported before any validation problem.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Book, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.record("update", s.lookupError(id, err))
	}

	req.normalize()
	if err := check(s.validate, req); err != nil {
		return nil, s.record("update", err)
	}

	ApplyUpdate(existing, req)
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateISBN) {
			return nil, s.record("update", fmt.Errorf("%w: %s", ErrDuplicateISBN, req.ISBN))
		}
		return nil, s.record("update", s.lookupError(id, err))
	}

	book := ToDTO(updated)
	s.record("update", nil)
	s.afterWrite(ctx, events.TypeBookUpdated, book)
	return book, nil
}

// Delete removes the book with the given ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.record("delete", s.lookupError(id, err))
	}
	s.record("delete", nil)
	s.afterWrite(ctx, events.TypeBookDeleted, map[string]int64{"id": id})
	return nil
}

// RefreshCount sets the books gauge from the database.
func (s *Service) RefreshCount(ctx context.Context) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		s.log.Warn("count books", zap.Error(err))
		return
	}
	metrics.BooksTotal.Set(float64(n))
}

func (s *Service) lookupError(id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w with id %d", ErrNotFound, id)
	}
	return fmt.Errorf("book %d: %w", id, err)
}

// afterWrite publishes the lifecycle event and refreshes the gauge. Neither
// failure is returned; the write has already been committed.
func (s *Service) afterWrite(ctx context.Context, eventType string, payload any) {
	e := events.New(eventType, middleware.GetReqID(ctx), payload)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Error("publish book event",
			zap.String("event_type", eventType),
			zap.String("event_id", e.EventID),
			zap.Error(err),
		)
	}
	s.RefreshCount(ctx)
}

// record counts the outcome of an operation and returns err unchanged.
func (s *Service) record(op string, err error) error {
	result := "ok"
	var verr *ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		result = "invalid"
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrDuplicateISBN):
		result = "duplicate"
	default:
		result = "error"
		s.log.Error("book operation failed", zap.String("operation", op), zap.Error(err))
	}
	metrics.BookOperationsTotal.WithLabelValues(op, result).Inc()
	return err
}
