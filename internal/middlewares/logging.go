package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
)

type requestIDKey struct{}

// RequestIDFromContext returns the ID assigned by LoggingMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware logs requests and responses and assigns each request an ID.
// A caller-supplied X-Request-ID is kept.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))
		w.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Log.Infow("request",
			"request_id", reqID,
			"method", r.Method,
			"uri", r.RequestURI,
			"duration", duration,
		)

		logger.Log.Infow("response",
			"request_id", reqID,
			"status", rw.statusCode,
			"response_size", strconv.Itoa(rw.size)+"B",
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}
