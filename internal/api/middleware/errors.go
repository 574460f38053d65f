package middleware

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/example/phone-store/internal/apperr"
)

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError renders err as {"error", "code", "kind", "field"} with the
// status of its kind. Errors outside the taxonomy are logged and hidden.
func WriteError(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Printf("[API] Internal error: %v", err)
		e = apperr.New(apperr.KindInternal, "INTERNAL", "internal server error")
	} else if e.Kind == apperr.KindInternal || e.Kind == apperr.KindTransient {
		log.Printf("[API] %s: %v", e.Code, err)
	}

	body := apperr.Error{Kind: e.Kind, Code: e.Code, Field: e.Field, Message: e.Message}
	WriteJSON(w, apperr.HTTPStatus(e.Kind), body)
}
