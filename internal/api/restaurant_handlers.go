package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dinewise/dinewise-server/internal/domain"
)

func (s *Server) registerRestaurantRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRestaurant",
		Method:      http.MethodGet,
		Path:        "/api/v1/restaurants/{id}",
		Summary:     "Get restaurant",
		Description: "Returns a single restaurant by ID",
		Tags:        []string{"Restaurants"},
	}, s.handleGetRestaurant)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLocations",
		Method:      http.MethodGet,
		Path:        "/api/v1/locations",
		Summary:     "List locations",
		Description: "Returns every distinct location in the store, sorted",
		Tags:        []string{"Restaurants"},
	}, s.handleListLocations)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCuisines",
		Method:      http.MethodGet,
		Path:        "/api/v1/cuisines",
		Summary:     "List cuisines",
		Description: "Returns every distinct cuisine in the store, sorted",
		Tags:        []string{"Restaurants"},
	}, s.handleListCuisines)
}

// GetRestaurantInput contains parameters for getting a restaurant.
type GetRestaurantInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Restaurant ID"`
}

// RestaurantOutput wraps a restaurant for Huma.
type RestaurantOutput struct {
	Body domain.Restaurant
}

// LocationsResponse lists distinct locations.
type LocationsResponse struct {
	Locations []string `json:"locations" doc:"Distinct locations"`
}

// LocationsOutput wraps the locations response for Huma.
type LocationsOutput struct {
	Body LocationsResponse
}

// CuisinesResponse lists distinct cuisines.
type CuisinesResponse struct {
	Cuisines []string `json:"cuisines" doc:"Distinct cuisines"`
}

// CuisinesOutput wraps the cuisines response for Huma.
type CuisinesOutput struct {
	Body CuisinesResponse
}

func (s *Server) handleGetRestaurant(ctx context.Context, input *GetRestaurantInput) (*RestaurantOutput, error) {
	r, err := s.services.Store.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RestaurantOutput{Body: *r}, nil
}

func (s *Server) handleListLocations(ctx context.Context, _ *struct{}) (*LocationsOutput, error) {
	locations, err := s.services.Store.DistinctLocations(ctx)
	if err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []string{}
	}
	return &LocationsOutput{Body: LocationsResponse{Locations: locations}}, nil
}

func (s *Server) handleListCuisines(ctx context.Context, _ *struct{}) (*CuisinesOutput, error) {
	cuisines, err := s.services.Store.DistinctCuisines(ctx)
	if err != nil {
		return nil, err
	}
	if cuisines == nil {
		cuisines = []string{}
	}
	return &CuisinesOutput{Body: CuisinesResponse{Cuisines: cuisines}}, nil
}
