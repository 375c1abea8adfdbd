package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dinewise/dinewise-server/internal/analytics"
	domainerrors "github.com/dinewise/dinewise-server/internal/errors"
)

func (s *Server) registerAnalyticsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "popularPreferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/analytics/popular",
		Summary:     "Popular preferences",
		Description: "Returns the most requested locations and cuisines",
		Tags:        []string{"Analytics"},
	}, s.handlePopular)

	huma.Register(s.api, huma.Operation{
		OperationID:   "resetAnalytics",
		Method:        http.MethodDelete,
		Path:          "/api/v1/analytics",
		Summary:       "Reset analytics",
		Description:   "Drops every preference counter",
		Tags:          []string{"Analytics"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleResetAnalytics)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearCache",
		Method:        http.MethodDelete,
		Path:          "/api/v1/cache",
		Summary:       "Clear recommendation cache",
		Description:   "Drops cached recommendations. Run after reloading the dataset.",
		Tags:          []string{"Analytics"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleClearCache)
}

// PopularInput contains the list sizes for popular preferences.
type PopularInput struct {
	TopLocations int `query:"top_locations" minimum:"0" maximum:"100" default:"10" doc:"Number of locations to return"`
	TopCuisines  int `query:"top_cuisines" minimum:"0" maximum:"100" default:"10" doc:"Number of cuisines to return"`
}

// PopularOutput wraps the popular preferences for Huma.
type PopularOutput struct {
	Body analytics.Popular
}

func (s *Server) handlePopular(ctx context.Context, input *PopularInput) (*PopularOutput, error) {
	if s.services.Analytics == nil {
		return nil, domainerrors.Unavailable("analytics is disabled")
	}
	popular, err := s.services.Analytics.Popular(ctx, input.TopLocations, input.TopCuisines)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read analytics")
	}
	return &PopularOutput{Body: *popular}, nil
}

func (s *Server) handleResetAnalytics(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if s.services.Analytics == nil {
		return nil, domainerrors.Unavailable("analytics is disabled")
	}
	if err := s.services.Analytics.Reset(ctx); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to reset analytics")
	}
	s.logger.Info("analytics reset")
	return nil, nil
}

func (s *Server) handleClearCache(_ context.Context, _ *struct{}) (*struct{}, error) {
	if s.services.Cache != nil {
		s.services.Cache.Clear()
		s.logger.Info("recommendation cache cleared")
	}
	return nil, nil
}
