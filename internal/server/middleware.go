package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// APIKeyAuth rejects requests whose X-API-Key header does not match apiKey.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			switch {
			case key == "":
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing API key"})
			case subtle.ConstantTimeCompare([]byte(key), want) != 1:
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequestLogging logs each request once it has been served. Run requests
// also carry the run id and action taken from the matched route.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			}
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if id := rc.URLParam("runID"); id != "" {
					attrs = append(attrs, "run_id", id)
				}
				if action := rc.URLParam("action"); action != "" {
					attrs = append(attrs, "action", action)
				}
			}
			if sw.status >= http.StatusInternalServerError {
				log.Warn("request", attrs...)
				return
			}
			log.Info("request", attrs...)
		})
	}
}

// corsMethods are the methods the API serves.
const corsMethods = "GET, POST, DELETE, OPTIONS"

// CORS lets a browser UI on another origin drive runs.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", corsMethods)
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets streamed MCP responses through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
