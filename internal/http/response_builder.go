// Package http serves the ledger as a JSON API.
//
// This file implements the builder used by every handler to write JSON
// responses and maps ledger errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"platito/internal/core"
	"platito/internal/log"
)

// Error codes carried in error bodies.
const (
	CodeBadRequest    = "bad_request"
	CodeValidation    = "validation_error"
	CodeNotFound      = "not_found"
	CodeDuplicateName = "duplicate_name"
	CodeInUse         = "in_use"
	CodeProtected     = "protected"
	CodeRateLimited   = "rate_limited"
	CodeExternalFetch = "external_fetch"
	CodeInternal      = "internal_error"
)

// ErrorBody is the JSON document of every error response.
type ErrorBody struct {
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	Fields     map[string]string `json:"fields,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := encodeJSON(b.body)
	if err != nil {
		slog.Error("Failed to encode response", log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error","code":"internal_error"}`))
		return
	}
	writeRaw(w, b.statusCode, data)
}

func encodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	NewJSONResponse().Body(v).Write(w)
}

// Created writes v with status 201.
func Created(w http.ResponseWriter, v any) {
	NewJSONResponse().Status(http.StatusCreated).Body(v).Write(w)
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Code: code})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

// RateLimitedError creates a 429 response with a Retry-After header.
func RateLimitedError(message string, retryAfterSeconds int) *JSONResponseBuilder {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	return NewJSONResponse().
		Status(http.StatusTooManyRequests).
		Header("Retry-After", strconv.Itoa(retryAfterSeconds)).
		Body(ErrorBody{Error: message, Code: CodeRateLimited, RetryAfter: retryAfterSeconds})
}

// FromError maps an error returned by the services to a response.
func FromError(err error) *JSONResponseBuilder {
	var (
		reqErr     *requestError
		fieldErrs  validator.ValidationErrors
		rateLimErr *core.RateLimitedError
	)
	switch {
	case errors.As(err, &reqErr):
		return BadRequestError(reqErr.Error())
	case errors.As(err, &fieldErrs):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: "validation failed", Code: CodeValidation, Fields: fieldMessages(fieldErrs)})
	case errors.As(err, &rateLimErr):
		return RateLimitedError(err.Error(), rateLimErr.RemainingSeconds())
	case errors.Is(err, core.ErrValidation):
		return ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrDuplicateName):
		return ErrorResponse(http.StatusConflict, CodeDuplicateName, err.Error())
	case errors.Is(err, core.ErrInUse):
		return ErrorResponse(http.StatusConflict, CodeInUse, err.Error())
	case errors.Is(err, core.ErrProtectedEntity):
		return ErrorResponse(http.StatusForbidden, CodeProtected, err.Error())
	case errors.Is(err, core.ErrRateLimited):
		return RateLimitedError(err.Error(), 1)
	case errors.Is(err, core.ErrExternalFetch):
		return ErrorResponse(http.StatusBadGateway, CodeExternalFetch, err.Error())
	default:
		return ErrorResponse(http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

// writeError logs err at a level matching its status and writes the
// mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := FromError(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP,
			r.Method+" "+r.URL.Path, log.NewFields().WithClientIP(r.RemoteAddr))
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldStatusCode, resp.statusCode, log.FieldError, err)
	}
	resp.Write(w)
}
