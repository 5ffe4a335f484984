package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/vcfbot/internal/pkg/logger"
)

// MaxBodyBytes caps request bodies read by Decode. Telegram updates are
// small; documents arrive as file ids, never inline.
const MaxBodyBytes = 1 << 20

// Error codes carried in ErrorResponse.Code.
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeTooLarge    = "too_large"
	CodeUnavailable = "unavailable"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("write json response failed", "status", status, "error", err)
	}
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes an error body with status and code.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}

// NotFound writes a 404. Used for unknown paths and wrong webhook secrets
// alike.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, CodeNotFound, "not found")
}

// Unavailable writes a 503 asking the sender to come back after retryAfter.
// Telegram redelivers an update until it gets a 2xx.
func Unavailable(w http.ResponseWriter, message string, retryAfter time.Duration) {
	if secs := int(retryAfter.Round(time.Second) / time.Second); secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	Error(w, http.StatusServiceUnavailable, CodeUnavailable, message)
}

// Decode reads one JSON value from the body into dst. On failure it writes
// 413 for bodies over MaxBodyBytes, 400 otherwise, and returns false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "body exceeds "+strconv.Itoa(MaxBodyBytes)+" bytes")
		return false
	}
	Error(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON: "+err.Error())
	return false
}
