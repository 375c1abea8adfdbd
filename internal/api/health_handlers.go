package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	// statusDisabled marks optional components that are switched off. It does
	// not degrade the overall status.
	statusDisabled = "disabled"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns liveness, the restaurant count and component checks. Responds 503 when the store is unreachable.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, unhealthy, or disabled"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status      string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Restaurants int                        `json:"restaurants" doc:"Rows in the restaurant store"`
	Components  map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Status int
	Body   HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)

	db, count := s.checkDatabase(ctx)
	components["database"] = db

	overall := statusHealthy
	if db.Status != statusHealthy {
		overall = statusUnhealthy
	}

	for name, c := range map[string]ComponentHealth{
		"analytics":  s.checkAnalytics(),
		"summarizer": s.checkSummarizer(),
		"cache":      s.checkCache(),
	} {
		components[name] = c
		if (c.Status == statusDegraded || c.Status == statusUnhealthy) && overall == statusHealthy {
			overall = statusDegraded
		}
	}

	status := http.StatusOK
	if overall == statusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	return &HealthOutput{
		Status: status,
		Body: HealthResponse{
			Status:      overall,
			Restaurants: count,
			Components:  components,
		},
	}, nil
}

// checkDatabase pings the store and counts rows.
func (s *Server) checkDatabase(ctx context.Context) (ComponentHealth, int) {
	if s.services.Store == nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "database not configured"}, 0
	}

	start := time.Now()
	if err := s.services.Store.Ping(ctx); err != nil {
		s.logger.Warn("health: database ping failed", "error", err)
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: time.Since(start).String(),
			Message: "database unreachable",
		}, 0
	}

	count, err := s.services.Store.Count(ctx)
	latency := time.Since(start)
	if err != nil {
		s.logger.Warn("health: database count failed", "error", err)
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "database read failed",
		}, 0
	}

	h := ComponentHealth{Status: statusHealthy, Latency: latency.String()}
	if count == 0 {
		h.Message = "no restaurants loaded"
	}
	return h, count
}

func (s *Server) checkAnalytics() ComponentHealth {
	if s.services.Analytics == nil {
		return ComponentHealth{Status: statusDisabled}
	}
	if err := s.services.Analytics.Ping(); err != nil {
		return ComponentHealth{Status: statusUnhealthy, Message: err.Error()}
	}
	return ComponentHealth{Status: statusHealthy}
}

// checkSummarizer reports the circuit state. An open circuit only degrades
// the service: recommendations still work without summaries.
func (s *Server) checkSummarizer() ComponentHealth {
	if s.services.Summarizer == nil {
		return ComponentHealth{Status: statusDisabled, Message: "no API key configured"}
	}
	state := s.services.Summarizer.State()
	if state != "closed" {
		return ComponentHealth{Status: statusDegraded, Message: "circuit " + state}
	}
	return ComponentHealth{Status: statusHealthy, Message: "circuit closed"}
}

func (s *Server) checkCache() ComponentHealth {
	if s.services.Cache == nil {
		return ComponentHealth{Status: statusDisabled}
	}
	return ComponentHealth{Status: statusHealthy, Message: strconv.Itoa(s.services.Cache.Len()) + " entries"}
}
