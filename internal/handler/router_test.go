package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/api"
	"github.com/joestump/bookshelf/internal/books"
	"github.com/joestump/bookshelf/internal/events"
	"github.com/joestump/bookshelf/internal/handler"
	"github.com/joestump/bookshelf/internal/metrics"
	"github.com/joestump/bookshelf/internal/store"
	"github.com/joestump/bookshelf/internal/testutil"
)

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, health handler.Pinger) http.Handler {
	t.Helper()
	bs := store.NewBookStore(testutil.NewTestDB(t))
	if health == nil {
		health = bs
	}
	return handler.NewRouter(handler.Deps{
		Books:          books.NewService(bs, events.NopPublisher{}, zap.NewNop()),
		Health:         health,
		Log:            zap.NewNop(),
		AllowedOrigins: []string{"*"},
	})
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Index(t *testing.T) {
	rec := serve(newTestRouter(t, nil), "GET", "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Healthz(t *testing.T) {
	rec := serve(newTestRouter(t, nil), "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestRouter(t, downPinger{}), "GET", "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_BooksMountedUnderAPI(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := serve(r, "POST", "/api/books", `{"title":"Dune","author":"Frank Herbert","publicationYear":1965}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(r, "GET", "/api/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dune")
}

func TestRouter_UnknownEndpoint(t *testing.T) {
	rec := serve(newTestRouter(t, nil), "GET", "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp api.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "endpoint not found: GET /nope", resp.Message)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := serve(newTestRouter(t, nil), "PATCH", "/", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var resp api.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t, nil)
	serve(r, "GET", "/api/books", "")

	rec := serve(r, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookshelf_http_requests_total")
}

// panickingService blows up on every call.
type panickingService struct{ api.BookService }

func (panickingService) List(context.Context) ([]*books.Book, error) { panic("list exploded") }

func TestRouter_PanicCountedAsServerError(t *testing.T) {
	r := handler.NewRouter(handler.Deps{
		Books:          panickingService{},
		Health:         downPinger{},
		Log:            zap.NewNop(),
		AllowedOrigins: []string{"*"},
	})
	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/books", "500")
	before := promtestutil.ToFloat64(counter)

	rec := serve(r, "GET", "/api/books", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, before+1, promtestutil.ToFloat64(counter))
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/api/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newTestRouter(t, nil).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_SwaggerDoc(t *testing.T) {
	rec := serve(newTestRouter(t, nil), "GET", "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/books/{id}")
}
