package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/api"
	"github.com/joestump/bookshelf/internal/books"
	"github.com/joestump/bookshelf/internal/events"
	"github.com/joestump/bookshelf/internal/store"
	"github.com/joestump/bookshelf/internal/testutil"
)

// testEnv holds the router and stores needed for API integration tests.
type testEnv struct {
	Router    http.Handler
	BookStore *store.BookStore
	Service   *books.Service
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full API router with the real store and service.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	bs := store.NewBookStore(db)
	svc := books.NewService(bs, events.NopPublisher{}, zap.NewNop())

	router := api.NewAPIRouter(api.Deps{Books: svc, Log: zap.NewNop()})
	return &testEnv{Router: router, BookStore: bs, Service: svc}
}

// do sends a request through the router and returns the recorder.
func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

// bookEnvelope mirrors api.Response with a typed data field.
type bookEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *books.Book `json:"data"`
}

type listEnvelope struct {
	Success bool          `json:"success"`
	Data    []*books.Book `json:"data"`
}

// seedBook creates a book directly through the service.
func seedBook(t *testing.T, env *testEnv, title, isbn string) *books.Book {
	t.Helper()
	b, err := env.Service.Create(t.Context(), books.CreateRequest{
		Title:           title,
		Author:          "Seed Author",
		PublicationYear: 2001,
		ISBN:            isbn,
	})
	require.NoError(t, err)
	return b
}
