// Package httputil provides utility functions for HTTP servers.
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EncodeJSON encodes v to JSON, sets status, and writes it to w.
func EncodeJSON[T any](w http.ResponseWriter, statusCode int, v T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	return nil
}

// DecodeJSON decodes JSON from r.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode json: %w", err)
	}

	return v, nil
}

// ErrorJSON writes an error response in the {"detail": ...} shape the API
// uses everywhere.
func ErrorJSON(w http.ResponseWriter, statusCode int, detail string) error {
	type errorResponse struct {
		Detail string `json:"detail"`
	}

	return EncodeJSON(w, statusCode, errorResponse{Detail: detail})
}
