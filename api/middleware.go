/*
middleware.go - Session, logging, and metrics middleware

PURPOSE:
  RequireSession turns the session cookie into a ledger.Actor on the
  request context; handlers downstream read it with actorFrom and never
  touch credentials. Logging and Instrument wrap each request with the
  structured logger and prometheus collectors.
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/warp/asset-ledger/auth"
	"github.com/warp/asset-ledger/ledger"
	"github.com/warp/asset-ledger/pkg/logger"
	"github.com/warp/asset-ledger/pkg/metrics"
)

// SessionCookie is the name of the HttpOnly session cookie.
const SessionCookie = "asset_session"

type ctxActorKey struct{}

// RequireSession rejects requests without a valid session cookie and seeds
// the context with the verified actor.
func RequireSession(svc *auth.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required", nil)
				return
			}

			actor, err := svc.Verify(cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired session", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ctxActorKey{}, actor)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    actor.UserID,
					"actor_role": string(actor.Role),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// actorFrom returns the authenticated actor seeded by RequireSession.
func actorFrom(ctx context.Context) (ledger.Actor, bool) {
	actor, ok := ctx.Value(ctxActorKey{}).(ledger.Actor)
	return actor, ok
}

// Logging emits one structured entry per completed request.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logg.WithFields(ctx, map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": chimiddleware.GetReqID(ctx),
			})

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			ctx = logg.WithFields(ctx, map[string]any{
				"status":      rec.status(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			logg.Info(ctx, "request.complete")
		})
	}
}

// Instrument records request duration and counts per chi route pattern.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			m.ObserveRequest(r.Method, route, rec.status(), time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) status() int {
	if s.code == 0 {
		return http.StatusOK
	}
	return s.code
}
