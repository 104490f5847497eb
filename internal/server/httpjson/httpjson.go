// Package httpjson holds the JSON conventions shared by every HTTP handler:
// one envelope for errors, machine-readable error codes, and a bounded
// request decoder.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
)

// Machine-readable error codes carried alongside the human-readable message.
const (
	CodeInvalidCredentials  = "invalid_credentials"
	CodeUnauthorized        = "unauthorized"
	CodeValidation          = "validation_error"
	CodeBadRequest          = "bad_request"
	CodeNotFound            = "not_found"
	CodeUpstreamUnavailable = "upstream_unavailable"
)

const maxBodyBytes = 1 << 20

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Write encodes v as the response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpjson: encode response: %v", err)
	}
}

// Error writes a machine-readable error response.
func Error(w http.ResponseWriter, status int, code, msg string) {
	Write(w, status, errorBody{Error: msg, Code: code})
}

// Decode reads the request body into dst, bounding its size. An empty body
// is an error; callers with optional bodies check for ErrEmptyBody.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// ErrEmptyBody reports a request with no body at all.
var ErrEmptyBody = errors.New("httpjson: empty request body")
