package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestIdKey contextKey = "request_id"

const requestIdHeader = "X-Request-ID"

// requestIdMiddleware tags every request with an id, reusing a valid one sent by the client.
func requestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(requestIdHeader)
		if _, err := uuid.Parse(requestId); err != nil {
			requestId = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIdKey, requestId)
		w.Header().Set(requestIdHeader, requestId)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIdFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIdKey).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		slog.Debug("Handled request",
			"request_id", requestIdFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.statusCode,
			"duration", time.Since(start),
		)
	})
}
