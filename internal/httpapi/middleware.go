package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/librarydesk/lms/internal/library"
	"go.uber.org/zap"
)

type contextKey string

const contextKeyActor contextKey = "actor"

// actorFrom returns the authenticated actor attached by requireAuth
func actorFrom(r *http.Request) (library.Actor, bool) {
	actor, ok := r.Context().Value(contextKeyActor).(library.Actor)
	return actor, ok
}

// requireAuth resolves the actor from HTTP Basic credentials
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="lms"`)
			s.fail(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		actor, err := s.profiles.Authenticate(r.Context(), username, password)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="lms"`)
			s.handleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLibrarian rejects actors without the librarian role. Must follow requireAuth.
func (s *Server) requireLibrarian(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok || !actor.IsLibrarian() {
			s.fail(w, http.StatusForbidden, "librarian role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every request and records its latency
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.metrics.ObserveHTTP(r.Method, route, status, elapsed)
		s.log.Info("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
	})
}
