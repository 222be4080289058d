package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/books"
)

// BookService is the business layer the handlers delegate to.
type BookService interface {
	Create(ctx context.Context, req books.CreateRequest) (*books.Book, error)
	Get(ctx context.Context, id int64) (*books.Book, error)
	List(ctx context.Context) ([]*books.Book, error)
	Update(ctx context.Context, id int64, req books.UpdateRequest) (*books.Book, error)
	Delete(ctx context.Context, id int64) error
}

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Books BookService
	Log   *zap.Logger
}

// NewAPIRouter creates the chi sub-router mounted at /api.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonContentType)

	registerBookRoutes(r, deps.Books, deps.Log)

	return r
}

// jsonContentType sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
