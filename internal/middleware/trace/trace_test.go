package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestMiddleware_RequestID(t *testing.T) {
	m := NewMiddleware(func(r *http.Request) string { return r.RemoteAddr })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	const incoming = "3b241101-e2bb-4255-8caf-4136c566a962"
	tests := []struct {
		name   string
		path   string
		header string
		keep   bool
	}{
		{name: "generated", path: "/ok"},
		{name: "client id kept", path: "/ok", header: incoming, keep: true},
		{name: "malformed id replaced", path: "/fail", header: "<script>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set(HeaderRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			got := rec.Header().Get(HeaderRequestID)
			if got != seen {
				t.Errorf("response id %q differs from context id %q", got, seen)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("request id %q is not a uuid", got)
			}
			if tt.keep && got != incoming {
				t.Errorf("request id = %q, want %q", got, incoming)
			}
		})
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 3 || metrics.FailedRequests != 1 {
		t.Errorf("GetMetrics() = %+v, want 3 total and 1 failed", metrics)
	}
}
