// Package api provides the HTTP API server and handlers for Dinewise.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dinewise/dinewise-server/internal/analytics"
	"github.com/dinewise/dinewise-server/internal/cache"
	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/http/response"
	"github.com/dinewise/dinewise-server/internal/validation"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// RestaurantStore is the read side of the store the handlers use directly.
type RestaurantStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Restaurant, error)
	Count(ctx context.Context) (int, error)
	DistinctLocations(ctx context.Context) ([]string, error)
	DistinctCuisines(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Recommender produces recommendations.
type Recommender interface {
	Recommend(ctx context.Context, prefs domain.Preferences, topN int) (*domain.Recommendation, error)
}

// Tracker counts requested locations and cuisines.
type Tracker interface {
	Record(ctx context.Context, prefs domain.Preferences) error
	Popular(ctx context.Context, topLocations, topCuisines int) (*analytics.Popular, error)
	Reset(ctx context.Context) error
	Ping() error
}

// BreakerState reports the summarizer circuit state.
type BreakerState interface {
	State() string
}

// Services holds the dependencies of the handlers. Store and Recommender are
// required; the rest may be nil.
type Services struct {
	Store       RestaurantStore
	Recommender Recommender
	Cache       *cache.RecommendationCache
	Analytics   Tracker
	Summarizer  BreakerState
}

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins []string
	// RateLimitRequests per RateLimitWindow per client IP on /recommend.
	// Zero disables the limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  Services
	opts      Options
	router    *chi.Mux
	api       huma.API
	validator *validation.Validator
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		services:  services,
		opts:      opts,
		router:    chi.NewRouter(),
		validator: validation.New(),
		logger:    logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Dinewise API", Version)
	humaConfig.Info.Description = "Restaurant recommendations over the Zomato Bangalore dataset."
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware() {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, cacheHeader, "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	if s.opts.RateLimitRequests > 0 {
		s.router.Use(rateLimit(
			s.opts.RateLimitRequests, s.opts.RateLimitWindow, s.logger,
			route{http.MethodPost, recommendPath},
		))
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "no route for "+r.URL.Path, s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method+" not allowed on "+r.URL.Path, s.logger)
	})
}

func (s *Server) registerRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.registerHealthRoutes()
	s.registerRecommendRoutes()
	s.registerRestaurantRoutes()
	s.registerAnalyticsRoutes()
}
