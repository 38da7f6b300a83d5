package main

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type requestLoggerKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// withRequestLog assigns every request an id, echoes it in X-Request-ID and
// logs one record per request with a logger bound to that id. Panics are
// logged at ERROR and answered with 500.
func withRequestLog(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		reqLogger := logger.With("request_id", id)
		ctx := goSession.WithRequestID(r.Context(), id)
		ctx = context.WithValue(ctx, requestLoggerKey{}, reqLogger)
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			if recovered := recover(); recovered != nil {
				reqLogger.ErrorContext(ctx, "unhandled panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", recovered,
					"stack", string(debug.Stack()),
				)
				if rec.status == 0 {
					writeJSON(rec, http.StatusInternalServerError, map[string]string{"error": goSession.ErrorCode(goSession.ErrServer)})
				}
			}

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			reqLogger.InfoContext(ctx, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

// requestLogger returns the per-request logger installed by withRequestLog,
// falling back to base outside of it.
func requestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(requestLoggerKey{}).(*slog.Logger); ok {
		return l
	}
	return base
}
