// Package httpapi exposes the library over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/librarydesk/lms/internal/library"
	"github.com/librarydesk/lms/internal/metrics"
	"go.uber.org/zap"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping() error
}

// Server routes HTTP requests to the library services
type Server struct {
	router   *chi.Mux
	catalog  *library.CatalogService
	lending  *library.LendingService
	profiles *library.ProfileService
	db       Pinger
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewServer wires the routes
func NewServer(catalog *library.CatalogService, lending *library.LendingService, profiles *library.ProfileService, database Pinger, m *metrics.Metrics, log *zap.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		catalog:  catalog,
		lending:  lending,
		profiles: profiles,
		db:       database,
		metrics:  m,
		log:      log,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	// Public
	s.router.Get("/api/books", s.handleAPIBooks)
	s.router.Get("/search", s.handleSearch)
	s.router.Get("/sections", s.handleListSections)
	s.router.Get("/sections/{id}", s.handleGetSection)
	s.router.Get("/sections/{id}/books", s.handleListBooks)
	s.router.Get("/books/{id}", s.handleGetBook)
	s.router.Post("/auth/register", s.handleRegister)

	// Any authenticated account
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/me/books", s.handleMyBooks)
		r.Get("/me/requests", s.handleMyRequests)
		r.Get("/profile/{id}", s.handleGetProfile)
		r.Put("/profile/{id}", s.handleUpdateProfile)
		r.Post("/books/{id}/requests", s.handleRequestBook)

		// Librarians only
		r.Group(func(r chi.Router) {
			r.Use(s.requireLibrarian)

			r.Post("/sections", s.handleCreateSection)
			r.Put("/sections/{id}", s.handleUpdateSection)
			r.Delete("/sections/{id}", s.handleDeleteSection)
			r.Post("/sections/{id}/books", s.handleCreateBook)
			r.Put("/books/{id}", s.handleUpdateBook)
			r.Delete("/books/{id}", s.handleDeleteBook)

			r.Get("/requests", s.handleListRequests)
			r.Post("/requests/{id}/approve", s.handleApprove)
			r.Delete("/requests/{id}", s.handleDecline)
			r.Get("/assignments", s.handleListAssignments)
			r.Post("/assignments", s.handleAssign)
			r.Delete("/assignments/{id}", s.handleCancelAssignment)
			r.Post("/returns", s.handleReturn)
			r.Get("/overview", s.handleOverview)
		})
	})
}

// requestID tags each request with a UUID, keeping one supplied by the client
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Error("Database health check failed", zap.Error(err))
		s.fail(w, http.StatusServiceUnavailable, "unhealthy: database connection failed", nil)
		return
	}
	s.ok(w, map[string]string{"status": "healthy"})
}
