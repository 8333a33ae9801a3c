package restapi

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinck004/ntta/internal/logging"
	"github.com/klinck004/ntta/internal/testfixtures"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_BlocksRequestsOverLimit(t *testing.T) {
	rl := NewRateLimitMiddleware(3, time.Second)
	defer rl.Stop()
	handler := rl.Handler(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "198.51.100.7:4001"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
	code   int
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(code int)      { w.code = code }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestRateLimitMiddleware_LogsFailedResponseWrite(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRateLimitMiddleware(0, time.Second)
	defer rl.Stop()
	rl.logger = slog.New(slog.NewTextHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := &brokenWriter{header: http.Header{}}
	rl.Handler(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.code)
	assert.Contains(t, buf.String(), "failed to encode rate limit response")
	assert.Contains(t, buf.String(), io.ErrClosedPipe.Error())
}

func TestRateLimitMiddleware_SeparateClients(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Second)
	defer rl.Stop()
	handler := rl.Handler(okHandler())

	for _, addr := range []string{"198.51.100.1:1", "198.51.100.2:1", "[2001:db8::1]:1"} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRateLimitMiddleware_ZeroAndNegative(t *testing.T) {
	blocked := NewRateLimitMiddleware(0, time.Second)
	defer blocked.Stop()
	w := httptest.NewRecorder()
	blocked.Handler(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	unlimited := NewRateLimitMiddleware(-1, time.Second)
	defer unlimited.Stop()
	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		unlimited.Handler(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitMiddleware_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimitMiddleware(5, time.Second)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	securityHeaders(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestCORSPreflight(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/routes", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCompressionMiddleware(t *testing.T) {
	body := strings.Repeat(`{"stop":"King & Spadina"}`, 200)
	handler := CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))

	t.Run("large response is gzipped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		reader, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		decoded, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, body, string(decoded))
	})

	t.Run("client without gzip", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, body, w.Body.String())
	})
}

func TestRequestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

	var seenID string
	handler := NewRequestLoggingMiddleware(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/routes?x=1", nil))

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, w.Header().Get(requestIDHeader))
	assert.Contains(t, buf.String(), seenID)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.NotContains(t, buf.String(), "x=1")
}

func TestRequestLoggingMiddlewareKeepsCallerRequestID(t *testing.T) {
	handler := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpointLabelsRoutePattern(t *testing.T) {
	api := createTestApi(t, testfixtures.Monday(t))

	api.serve(t, http.MethodGet, "/api/routes/R1")
	api.serve(t, http.MethodGet, "/api/nowhere")
	w := api.serve(t, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `route="/api/routes/:id"`)
	assert.Contains(t, body, `route="unmatched"`)
	assert.NotContains(t, body, `route="/api/routes/R1"`)
	assert.Contains(t, body, "ntta_lookup_cache_total")
}
