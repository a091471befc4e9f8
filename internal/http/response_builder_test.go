package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"platito/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "yes").
		Body(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("X-Test"); got != "yes" {
		t.Errorf("X-Test = %q, want yes", got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := w.Body.String(); got != "{\"id\":7}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_UnencodableBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]any{"ch": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRateLimitedError_RetryAfter(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{secs: 7, want: "7"},
		{secs: 0, want: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			w := httptest.NewRecorder()
			RateLimitedError("slow down", tt.secs).Write(w)

			if w.Code != http.StatusTooManyRequests {
				t.Errorf("Status code = %d", w.Code)
			}
			if got := w.Header().Get("Retry-After"); got != tt.want {
				t.Errorf("Retry-After = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad request", badRequest("invalid id %q", "x"), http.StatusBadRequest, CodeBadRequest},
		{"validation", fmt.Errorf("create: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity, CodeValidation},
		{"not found", core.NotFound("account", 9), http.StatusNotFound, CodeNotFound},
		{"duplicate", fmt.Errorf("tag: %w", core.ErrDuplicateName), http.StatusConflict, CodeDuplicateName},
		{"in use", fmt.Errorf("category: %w", core.ErrInUse), http.StatusConflict, CodeInUse},
		{"protected", fmt.Errorf("category: %w", core.ErrProtectedEntity), http.StatusForbidden, CodeProtected},
		{"rate limited", &core.RateLimitedError{Remaining: 3 * time.Second}, http.StatusTooManyRequests, CodeRateLimited},
		{"external fetch", &core.FetchError{Source: "quotes", Err: errors.New("timeout")}, http.StatusBadGateway, CodeExternalFetch},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(errors.New("sqlite: database is locked")).Write(w)

	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestFromError_RateLimitedCarriesRemaining(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(&core.RateLimitedError{Remaining: 2500 * time.Millisecond}).Write(w)

	if got := w.Header().Get("Retry-After"); got != "3" {
		t.Errorf("Retry-After = %q, want 3", got)
	}
}
