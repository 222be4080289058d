package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/books"
)

const maxBodyBytes = 1 << 20

// booksAPIHandler provides REST handlers for the book resource.
type booksAPIHandler struct {
	books BookService
	log   *zap.Logger
}

func registerBookRoutes(r chi.Router, svc BookService, log *zap.Logger) {
	h := &booksAPIHandler{books: svc, log: log}
	r.Post("/books", h.Create)
	r.Get("/books", h.List)
	r.Get("/books/{id}", h.Get)
	r.Put("/books/{id}", h.Update)
	r.Delete("/books/{id}", h.Delete)
}

// Create stores a new book.
//
// @Summary      Create a book
// @Tags         Books
// @Accept       json
// @Produce      json
// @Param        body  body      books.CreateRequest  true  "Book to create"
// @Success      201   {object}  Response{data=books.Book}
// @Failure      400   {object}  Response
// @Failure      500   {object}  Response
// @Router       /books [post]
func (h *booksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req books.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	book, err := h.books.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, "book created", book)
}

// List returns every book ordered alphabetically by title.
//
// @Summary      List books
// @Tags         Books
// @Produce      json
// @Success      200  {object}  Response{data=[]books.Book}
// @Failure      500  {object}  Response
// @Router       /books [get]
func (h *booksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.books.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	// An empty list is still emitted as "data": [].
	WriteJSON(w, http.StatusOK, struct {
		Success bool          `json:"success"`
		Data    []*books.Book `json:"data"`
	}{Success: true, Data: list})
}

// Get returns a single book.
//
// @Summary      Get a book
// @Tags         Books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  Response{data=books.Book}
// @Failure      400  {object}  Response
// @Failure      404  {object}  Response
// @Failure      500  {object}  Response
// @Router       /books/{id} [get]
func (h *booksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "", book)
}

// Update overwrites title, author, publication year and ISBN.
//
// @Summary      Update a book
// @Tags         Books
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "Book ID"
// @Param        body  body      books.UpdateRequest  true  "New field values"
// @Success      200   {object}  Response{data=books.Book}
// @Failure      400   {object}  Response
// @Failure      404   {object}  Response
// @Failure      500   {object}  Response
// @Router       /books/{id} [put]
func (h *booksAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req books.UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	book, err := h.books.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	WriteSuccess(w, http.StatusOK, "book updated", book)
}

// Delete removes a book.
//
// @Summary      Delete a book
// @Tags         Books
// @Param        id   path      int  true  "Book ID"
// @Success      204
// @Failure      400  {object}  Response
// @Failure      404  {object}  Response
// @Failure      500  {object}  Response
// @Router       /books/{id} [delete]
func (h *booksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into v, writing a 400 and returning false on failure.
func (h *booksAPIHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Debug("api: decode body", zap.Error(err))
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// bookID parses the {id} path parameter, writing a 400 and returning false
// when it is not a positive integer.
func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid id: must be a positive integer")
		return 0, false
	}
	return id, true
}
