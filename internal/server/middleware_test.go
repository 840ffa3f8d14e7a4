package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// TestAPIKeyAuth verifies missing keys get 401, wrong keys 403 and only the
// configured key reaches the next handler.
func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusForbidden},
		{"valid", "secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := APIKeyAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if called != (tt.status == http.StatusOK) {
				t.Errorf("next called = %v", called)
			}
			if tt.status != http.StatusOK && rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("content type = %q, want application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

// TestRequestLogging verifies that the logging middleware records the
// status written by the next handler.
func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs/program", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "status=201") || !strings.Contains(out, "path=/api/v1/runs/program") {
		t.Errorf("log line = %q", out)
	}
}

// TestRequestLoggingRunAttributes verifies that run requests are logged with
// the run id and action of the matched route.
func TestRequestLoggingRunAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogging(log))
	r.Post("/runs/{runID}/{action}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/runs/abc-123/skip", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	out := buf.String()
	for _, want := range []string{"run_id=abc-123", "action=skip", "status=409", "level=INFO"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %q", want, out)
		}
	}
}

// TestCORSHeaders verifies that CORS headers are set on responses.
func TestCORSHeaders(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-API-Key") {
		t.Errorf("allowed headers = %q", got)
	}
}

// TestCORSPreflightSkipsNext verifies that OPTIONS requests get 204 without reaching
// the next handler.
func TestCORSPreflightSkipsNext(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called for OPTIONS")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
