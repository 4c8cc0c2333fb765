package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorKind separates transport failures from server rejections.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindHTTP    ErrorKind = "http"
)

// APIError is the single normalized error every gateway call returns.
type APIError struct {
	Kind    ErrorKind
	Status  int // 0 for network errors
	Message string
	Err     error // underlying cause, if any
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401 from the server.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports a 404 from the server.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func networkError(err error) *APIError {
	msg := "Network error: unable to reach server"
	if IsCanceled(err) {
		msg = "Request cancelled"
	}
	return &APIError{Kind: KindNetwork, Message: msg, Err: err}
}

// errorMessagePaths are tried in order against a JSON error body.
var errorMessagePaths = []string{"message", "error", "errors.0.message", "errors.0.msg"}

// httpError builds an APIError from a non-2xx response, preferring the
// server's own message.
func httpError(status int, body []byte) *APIError {
	if gjson.ValidBytes(body) {
		for _, path := range errorMessagePaths {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.String() != "" {
				return &APIError{Kind: KindHTTP, Status: status, Message: r.String()}
			}
		}
	}
	return &APIError{Kind: KindHTTP, Status: status, Message: defaultMessage(status)}
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not found"
	}
	return fmt.Sprintf("Request failed with status %d", status)
}
