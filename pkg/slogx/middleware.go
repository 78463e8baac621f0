package slogx

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/idx"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 64

// accessAttrs collects attributes that handlers add to the access line.
type accessAttrs struct {
	mu    sync.Mutex
	attrs []any
}

type accessKey struct{}

// Annotate adds args to the access log line written when the request
// finishes. It is a no-op outside HTTPMiddleware.
func Annotate(ctx context.Context, args ...any) {
	a, ok := ctx.Value(accessKey{}).(*accessAttrs)
	if !ok {
		return
	}
	a.mu.Lock()
	a.attrs = append(a.attrs, args...)
	a.mu.Unlock()
}

// HTTPMiddleware assigns a request ID, attaches a request-scoped logger to
// the context and writes one access line per request: Info below 500,
// Error from 500 up.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			reqID := requestID(r.Header.Get(RequestIDHeader))
			rw.Header().Set(RequestIDHeader, reqID)

			logger := base.With("req_id", reqID)
			access := &accessAttrs{}

			ctx := WithContext(r.Context(), logger)
			ctx = context.WithValue(ctx, accessKey{}, access)
			next.ServeHTTP(rw, r.WithContext(ctx))

			level := slog.LevelInfo
			if rw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			access.mu.Lock()
			attrs := append([]any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"bytes", rw.written,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}, access.attrs...)
			access.mu.Unlock()

			logger.Log(r.Context(), level, "http_request", attrs...)
		})
	}
}

// requestID keeps a caller supplied ID when it is short and printable,
// otherwise mints one.
func requestID(v string) string {
	if v == "" || len(v) > maxRequestIDLen {
		return idx.New().String()
	}
	for _, c := range v {
		if c < 0x21 || c > 0x7e {
			return idx.New().String()
		}
	}
	return v
}

type responseWriter struct {
	http.ResponseWriter

	status  int
	written int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}
