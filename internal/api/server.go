// Package api provides the HTTP API server and handlers for EduBase.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/edubase4teachers/edubase-server/internal/auth"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/store"
	"github.com/edubase4teachers/edubase-server/internal/uploads"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	tokens          *auth.TokenService
	uploads         *uploads.Storage
	router          *chi.Mux
	api             huma.API
	logger          *logger.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, tokens *auth.TokenService, storage *uploads.Storage, log *logger.Logger) *Server {
	authLimiter := NewRateLimiter(20, time.Minute, 10)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	// Credential guessing gets throttled per IP; everything else passes.
	router.Use(limitPathPrefix("/api/v1/auth/", RateLimitMiddleware(authLimiter, log)))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(tokens))

	humaConfig := huma.DefaultConfig("EduBase API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	s := &Server{
		store:           st,
		services:        services,
		tokens:          tokens,
		uploads:         storage,
		router:          router,
		api:             humachi.New(router, humaConfig),
		logger:          log,
		authRateLimiter: authLimiter,
	}

	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerMaterialRoutes()
	s.registerFileRoutes()
	s.registerStatsRoutes()
	s.registerNewsRoutes()

	// Attachment bytes are served straight from disk. The stored names are
	// opaque random names, so directory listing is disabled.
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/",
		noDirListing(http.FileServer(http.Dir(storage.Dir())))))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the background eviction loop of the rate limiter.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// limitPathPrefix applies mw only to requests under the given path prefix.
func limitPathPrefix(prefix string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
