package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type contextKey string

const clientIDKey contextKey = "client_id"

// ClientIDHeader carries the client identity established by the upstream
// authentication layer.
const ClientIDHeader = "X-Client-ID"

func ClientIdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, err := strconv.ParseInt(r.Header.Get(ClientIDHeader), 10, 64)
		if err != nil || clientID <= 0 {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), clientID)))
	})
}

func WithClientID(ctx context.Context, clientID int64) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

func getClientIDFromContext(ctx context.Context) int64 {
	if clientID, ok := ctx.Value(clientIDKey).(int64); ok {
		return clientID
	}
	return 0
}

// MetricsMiddleware records count and latency per route pattern, so ids in
// paths do not explode label cardinality.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
