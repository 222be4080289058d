package api

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/books"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response is the envelope every API endpoint answers with, except 204s.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes v as a JSON body with the given HTTP status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a successful envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// WriteError writes a failed envelope with the given message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Success: false, Message: message})
}

// writeServiceError maps a books.Service error to its HTTP status. Unknown
// errors are logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *books.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, books.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, books.ErrDuplicateISBN):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("api: unhandled error", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
