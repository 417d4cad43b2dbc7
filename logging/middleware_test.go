package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func newCaptureLogger(out *strings.Builder) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingMiddlewareSkipsQuietPaths(t *testing.T) {
	var logOutput strings.Builder
	handler := LoggingMiddleware(newCaptureLogger(&logOutput))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			logOutput.Reset()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", rr.Code)
			}
			if logOutput.Len() != 0 {
				t.Errorf("Expected no logs for %s, got: %s", path, logOutput.String())
			}
		})
	}
}

func TestLoggingMiddlewareLogsRequests(t *testing.T) {
	var logOutput strings.Builder
	logger := newCaptureLogger(&logOutput)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(LoggingMiddleware(logger))
	router.Get("/v1/graph/nodes/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"aspirin"}`))
	})
	router.Get("/v1/graph/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	router.Get("/v1/graph/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	tests := []struct {
		name     string
		path     string
		contains []string
		absent   []string
	}{
		{
			name:     "success",
			path:     "/v1/graph/nodes/aspirin",
			contains: []string{"level=INFO", `msg="HTTP request"`, "path=/v1/graph/nodes/aspirin", "route=/v1/graph/nodes/{name}", "status_code=200", "bytes_written=16"},
			absent:   []string{"query=", "request_id=unknown"},
		},
		{
			name:     "query string",
			path:     "/v1/graph/nodes/aspirin?maxDepth=2",
			contains: []string{`query="maxDepth=2"`},
		},
		{
			name:     "server error",
			path:     "/v1/graph/broken",
			contains: []string{"level=ERROR", "status_code=500"},
		},
		{
			name:     "client error",
			path:     "/v1/graph/missing",
			contains: []string{"level=WARN", "status_code=404"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logOutput.Reset()
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			logs := logOutput.String()
			for _, want := range tt.contains {
				if !strings.Contains(logs, want) {
					t.Errorf("Expected log to contain %q, got: %s", want, logs)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(logs, unwanted) {
					t.Errorf("Expected log not to contain %q, got: %s", unwanted, logs)
				}
			}
		})
	}
}

func TestLoggingMiddlewareNonStringRequestID(t *testing.T) {
	var logOutput strings.Builder
	handler := LoggingMiddleware(newCaptureLogger(&logOutput))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, 12345))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(logOutput.String(), "request_id=unknown") {
		t.Errorf("Expected request_id=unknown for non-string ID, got: %s", logOutput.String())
	}
}

func TestResponseWriterWrapper(t *testing.T) {
	rr := httptest.NewRecorder()
	ww := &responseWriterWrapper{ResponseWriter: rr, statusCode: http.StatusOK}

	ww.WriteHeader(http.StatusCreated)
	n, err := ww.Write([]byte("created"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	_, _ = ww.Write([]byte("!"))

	if ww.statusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", ww.statusCode)
	}
	if n != 7 || ww.bytesWritten != 8 {
		t.Errorf("Expected 7 bytes then 8 total, got %d and %d", n, ww.bytesWritten)
	}
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected recorder status 201, got %d", rr.Code)
	}
}
