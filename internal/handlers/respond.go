// Package handlers contains HTTP request handlers for the atlas API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message, "status": status})
}

// respondErr is the single error boundary. Server errors are logged with
// their cause; the client only sees the generic message.
func respondErr(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Errorw("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
	}
	respondError(w, status, apperr.Message(err))
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("Request body required")
		}
		return apperr.BadRequest("Invalid request body")
	}
	return nil
}

// NotFound handles unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed handles known routes with an unsupported method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
