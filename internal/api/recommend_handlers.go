package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dinewise/dinewise-server/internal/cache"
	"github.com/dinewise/dinewise-server/internal/domain"
	domainerrors "github.com/dinewise/dinewise-server/internal/errors"
)

const (
	recommendPath = "/api/v1/recommend"
	cacheHeader   = "X-Cache"
)

func (s *Server) registerRecommendRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recommend",
		Method:      http.MethodPost,
		Path:        recommendPath,
		Summary:     "Recommend restaurants",
		Description: "Returns up to top_n restaurants matching the preferences. When nothing matches, " +
			"cuisines, then the minimum rating, then the cost bounds are dropped in turn and relaxed is true. " +
			"Location is never dropped. An empty list is a normal 200 response.",
		Tags: []string{"Recommendations"},
	}, s.handleRecommend)
}

// RecommendRequest is the request body for a recommendation.
type RecommendRequest struct {
	Location    *string  `json:"location,omitempty" validate:"omitempty,notblank,max=100" doc:"Neighbourhood, matched ignoring case and spaces" example:"Banashankari"`
	MinRating   *float64 `json:"min_rating,omitempty" validate:"omitempty,gte=0,lte=5" doc:"Minimum rating out of 5" example:"4"`
	MinCost     *int     `json:"min_cost,omitempty" validate:"omitempty,gte=0" doc:"Minimum cost for two in rupees"`
	MaxCost     *int     `json:"max_cost,omitempty" validate:"omitempty,gte=0" doc:"Maximum cost for two in rupees" example:"800"`
	Cuisines    []string `json:"cuisines,omitempty" validate:"max=20,dive,notblank,max=50" doc:"Any of these cuisines"`
	RestType    *string  `json:"rest_type,omitempty" validate:"omitempty,notblank,max=100" doc:"Restaurant type, exact match ignoring case" example:"Casual Dining"`
	OnlineOrder *bool    `json:"online_order,omitempty" doc:"Accepts online orders"`
	BookTable   *bool    `json:"book_table,omitempty" doc:"Accepts table bookings"`
	TopN        *int     `json:"top_n,omitempty" validate:"omitempty,gte=1,lte=50" doc:"Number of restaurants to return (default 15)" example:"10"`
}

// RecommendInput wraps the recommend request for Huma.
type RecommendInput struct {
	Body RecommendRequest
}

// RecommendResponse is the recommendation returned to clients.
type RecommendResponse struct {
	Restaurants []domain.Restaurant `json:"restaurants" doc:"Ranked by rating, unrated last"`
	Summary     *string             `json:"summary" doc:"LLM summary of the list, null when unavailable"`
	Relaxed     bool                `json:"relaxed" doc:"True when filters were dropped to find results"`
}

// RecommendOutput wraps the recommend response for Huma.
type RecommendOutput struct {
	Cache string `header:"X-Cache" doc:"HIT when served from the recommendation cache"`
	Body  RecommendResponse
}

// preferences trims the request into domain preferences.
func (r RecommendRequest) preferences() domain.Preferences {
	p := domain.Preferences{
		Location:    trimmed(r.Location),
		MinRating:   r.MinRating,
		MinCost:     r.MinCost,
		MaxCost:     r.MaxCost,
		RestType:    trimmed(r.RestType),
		OnlineOrder: r.OnlineOrder,
		BookTable:   r.BookTable,
	}
	for _, c := range r.Cuisines {
		if c = strings.TrimSpace(c); c != "" {
			p.Cuisines = append(p.Cuisines, c)
		}
	}
	return p
}

func (r RecommendRequest) topN() int {
	if r.TopN == nil {
		return domain.DefaultTopN
	}
	return domain.TopNOrDefault(*r.TopN)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func (s *Server) handleRecommend(ctx context.Context, input *RecommendInput) (*RecommendOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	prefs := input.Body.preferences()
	topN := input.Body.topN()

	if s.services.Analytics != nil {
		if err := s.services.Analytics.Record(ctx, prefs); err != nil {
			s.logger.Warn("failed to record preference analytics", "error", err)
		}
	}

	var key string
	if s.services.Cache != nil {
		key = cache.Key(prefs, topN)
		if rec, ok := s.services.Cache.Get(key); ok {
			return &RecommendOutput{Cache: "HIT", Body: toResponse(rec)}, nil
		}
	}

	rec, err := s.services.Recommender.Recommend(ctx, prefs, topN)
	if err != nil {
		s.logger.Error("recommendation failed", "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "recommendation failed")
	}

	if s.services.Cache != nil {
		s.services.Cache.Set(key, rec)
	}
	return &RecommendOutput{Cache: "MISS", Body: toResponse(rec)}, nil
}

func toResponse(rec *domain.Recommendation) RecommendResponse {
	restaurants := rec.Restaurants
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}
	return RecommendResponse{
		Restaurants: restaurants,
		Summary:     rec.Summary,
		Relaxed:     rec.Relaxed,
	}
}
