package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/logging"
	"github.com/avolkov/paperstand/internal/server/auth"
	"github.com/avolkov/paperstand/internal/server/metrics"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// UserIDFromContext returns the authenticated user ID set by Authenticate.
func UserIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDContextKey).(string)
	if !ok || id == "" {
		return "", common.ErrUnauthorized
	}
	return id, nil
}

// Authenticate verifies the bearer access token and stores the subject's
// user ID in the request context. Refresh tokens are not accepted here.
func Authenticate(secret []byte, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			if !strings.HasPrefix(header, common.BearerPrefix) {
				fail(r.Context(), w, log, common.ErrUnauthorized)
				return
			}
			token := strings.TrimPrefix(header, common.BearerPrefix)

			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				fail(r.Context(), w, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireWorkerKey guards the internal worker callback with a shared key.
func RequireWorkerKey(key string, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(common.WorkerKeyHeaderName)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				fail(r.Context(), w, log, common.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recover turns a handler panic into a 500 instead of a crashed process.
func Recover(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeJSON(w, http.StatusInternalServerError,
						map[string]any{"success": false, "message": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request and feeds the Prometheus
// collector. The websocket route is skipped: the recorder wrapper would
// hide the Hijacker the upgrade needs.
func RequestLogger(log logging.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed,
			)
			if collector != nil {
				// The route pattern keeps metric cardinality bounded;
				// it is populated once routing has happened.
				path := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					if p := rctx.RoutePattern(); p != "" {
						path = p
					}
				}
				collector.RecordHTTPRequest(r.Method, path, rec.status, elapsed)
			}
		})
	}
}
