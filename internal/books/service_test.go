package books_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/books"
	"github.com/joestump/bookshelf/internal/events"
	"github.com/joestump/bookshelf/internal/store"
	"github.com/joestump/bookshelf/internal/testutil"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

func newTestService(t *testing.T) (*books.Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := books.NewService(store.NewBookStore(testutil.NewTestDB(t)), pub, zap.NewNop())
	return svc, pub
}

func validCreate() books.CreateRequest {
	return books.CreateRequest{Title: "Dune", Author: "Frank Herbert", PublicationYear: 1965, ISBN: "9780441013593"}
}

func TestService_CreateThenGet(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, books.CreateRequest{
		Title:           "  Dune ",
		Author:          "Frank Herbert",
		PublicationYear: 1965,
		ISBN:            " 9780441013593 ",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Dune", created.Title)
	require.NotNil(t, created.ISBN)
	assert.Equal(t, "9780441013593", *created.ISBN)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Author, got.Author)
	assert.Equal(t, created.PublicationYear, got.PublicationYear)
	assert.Equal(t, created.ISBN, got.ISBN)

	assert.Equal(t, []string{events.TypeBookCreated}, pub.types())
}

func TestService_Create_WithoutISBN(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), books.CreateRequest{Title: "Beowulf", Author: "Unknown", PublicationYear: 1000})
	require.NoError(t, err)
	assert.Nil(t, created.ISBN)
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *books.CreateRequest)
		problem string
	}{
		{name: "blank title", mutate: func(r *books.CreateRequest) { r.Title = "   " }, problem: "title is required"},
		{name: "missing author", mutate: func(r *books.CreateRequest) { r.Author = "" }, problem: "author is required"},
		{name: "zero year", mutate: func(r *books.CreateRequest) { r.PublicationYear = 0 }, problem: "publicationYear must be a positive number"},
		{name: "negative year", mutate: func(r *books.CreateRequest) { r.PublicationYear = -5 }, problem: "publicationYear must be a positive number"},
		{name: "long isbn", mutate: func(r *books.CreateRequest) { r.ISBN = "97804410135930" }, problem: "isbn must be at most 13 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, pub := newTestService(t)
			req := validCreate()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			var verr *books.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Problems, tt.problem)
			assert.Empty(t, pub.types())
		})
	}
}

func TestService_Create_ReportsEveryProblem(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), books.CreateRequest{})
	var verr *books.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
}

func TestService_Create_DuplicateISBN(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	dup := validCreate()
	dup.Title = "Another Dune"
	_, err = svc.Create(ctx, dup)
	require.ErrorIs(t, err, books.ErrDuplicateISBN)
	assert.Contains(t, err.Error(), "9780441013593")
}

func TestService_Get_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 12)
	require.ErrorIs(t, err, books.ErrNotFound)
	assert.Contains(t, err.Error(), "12")
}

func TestService_List_Alphabetical(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"Neuromancer", "Brave New World", "Foundation"} {
		_, err := svc.Create(ctx, books.CreateRequest{Title: title, Author: "Someone", PublicationYear: 1950})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Brave New World", list[0].Title)
	assert.Equal(t, "Foundation", list[1].Title)
	assert.Equal(t, "Neuromancer", list[2].Title)
}

func TestService_Update(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, books.UpdateRequest{
		Title:           "Dune Messiah",
		Author:          "Frank Herbert",
		PublicationYear: 1969,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, 1969, updated.PublicationYear)
	assert.Nil(t, updated.ISBN, "empty isbn clears the stored value")
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)

	assert.Equal(t, []string{events.TypeBookCreated, events.TypeBookUpdated}, pub.types())
}

func TestService_Update_NotFoundBeforeValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), 77, books.UpdateRequest{})
	assert.ErrorIs(t, err, books.ErrNotFound)
}

func TestService_Update_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, books.UpdateRequest{Title: "Dune", Author: "", PublicationYear: 1965})
	var verr *books.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_Update_DuplicateISBN(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	emma, err := svc.Create(ctx, books.CreateRequest{Title: "Emma", Author: "Jane Austen", PublicationYear: 1815, ISBN: "9780141439587"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, emma.ID, books.UpdateRequest{Title: "Emma", Author: "Jane Austen", PublicationYear: 1815, ISBN: "9780441013593"})
	assert.ErrorIs(t, err, books.ErrDuplicateISBN)
}

func TestService_Delete(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, books.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), books.ErrNotFound)
	assert.Equal(t, []string{events.TypeBookCreated, events.TypeBookDeleted}, pub.types())
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := books.NewService(store.NewBookStore(testutil.NewTestDB(t)), pub, zap.NewNop())

	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Len(t, pub.types(), 1)
}

func TestService_NilPublisher(t *testing.T) {
	svc := books.NewService(store.NewBookStore(testutil.NewTestDB(t)), nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validCreate())
	assert.NoError(t, err)
}
