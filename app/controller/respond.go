package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"listing-studio/models"
	"listing-studio/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ writeJSON: failed to encode response: %v", err)
	}
}

// writeError maps service errors to HTTP status codes
func writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	var validationErr *models.ValidationError
	var suggestionErr *models.SuggestionError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrGenerationRunning):
		status = http.StatusConflict
	case errors.As(err, &suggestionErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s: %v", op, err)
	} else {
		log.Printf("⚠️  %s: %v", op, err)
	}
	http.Error(w, err.Error(), status)
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{Field: name, Message: fmt.Sprintf("must be an integer, got %q", raw)}
	}
	return n, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{Field: name, Message: fmt.Sprintf("must be an integer, got %q", raw)}
	}
	return n, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &models.ValidationError{Field: "body", Message: fmt.Sprintf("is invalid: %v", err)}
	}
	return nil
}

// ndjsonWriter writes one JSON value per line and flushes after each.
// A value that cannot be encoded is logged and skipped; a failed write marks the client as gone
// and later values are dropped.
type ndjsonWriter struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	op        string
	connected bool
}

func newNDJSONWriter(w http.ResponseWriter, op string) *ndjsonWriter {
	flusher, _ := w.(http.Flusher)
	return &ndjsonWriter{w: w, flusher: flusher, op: op, connected: true}
}

// Send writes v as one line and reports whether it was delivered
func (s *ndjsonWriter) Send(v any) bool {
	if !s.connected {
		return false
	}
	line, err := json.Marshal(v)
	if err != nil {
		log.Printf("❌ %s: skipping a line that cannot be encoded: %v", s.op, err)
		return false
	}
	if _, err := s.w.Write(append(line, '\n')); err != nil {
		log.Printf("⚠️  %s: client gone, continuing in the background: %v", s.op, err)
		s.connected = false
		return false
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return true
}
