// Package httpjson writes JSON bodies for the REST handlers.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Write encodes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// The status line is already sent, so an encode failure can only be dropped.
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"detail": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorBody{Detail: msg})
}
