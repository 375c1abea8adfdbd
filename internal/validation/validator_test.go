package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/dinewise/dinewise-server/internal/errors"
	"github.com/dinewise/dinewise-server/internal/validation"
)

type recommendRequest struct {
	Location  *string  `json:"location,omitempty" validate:"omitempty,notblank,max=100"`
	MinRating *float64 `json:"min_rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	MaxCost   *int     `json:"max_cost,omitempty" validate:"omitempty,gte=0"`
	Cuisines  []string `json:"cuisines,omitempty" validate:"max=3,dive,notblank,max=20"`
	TopN      int      `json:"top_n" validate:"gte=0,lte=50"`
	Internal  string   `json:"-"`
}

func ptr[T any](v T) *T { return &v }

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())
	d, ok := de.Details.(map[string]string)
	require.True(t, ok)
	return d
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()
	err := v.Validate(recommendRequest{
		Location:  ptr("Banashankari"),
		MinRating: ptr(4.0),
		MaxCost:   ptr(0),
		Cuisines:  []string{"North Indian"},
		TopN:      15,
	})
	assert.NoError(t, err)
	assert.NoError(t, v.Validate(recommendRequest{}))
}

func TestValidator_FieldMessages(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name  string
		req   recommendRequest
		field string
		msg   string
	}{
		{"rating too high", recommendRequest{MinRating: ptr(5.5)}, "min_rating", "must be less than or equal to 5"},
		{"negative cost", recommendRequest{MaxCost: ptr(-1)}, "max_cost", "must be greater than or equal to 0"},
		{"blank location", recommendRequest{Location: ptr("   ")}, "location", "must not be blank"},
		{"long location", recommendRequest{Location: ptr(string(make([]byte, 101)))}, "location", "must not exceed 100 characters"},
		{"too many cuisines", recommendRequest{Cuisines: []string{"a", "b", "c", "d"}}, "cuisines", "must not have more than 3 items"},
		{"blank cuisine", recommendRequest{Cuisines: []string{"Thai", ""}}, "cuisines[1]", "must not be blank"},
		{"top n", recommendRequest{TopN: 51}, "top_n", "must be less than or equal to 50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Equal(t, tt.msg, details(t, err)[tt.field])
		})
	}
}

func TestValidator_NonStruct(t *testing.T) {
	err := validation.New().Validate("not a struct")
	require.Error(t, err)
	var de *domainerrors.Error
	assert.NotErrorAs(t, err, &de)
}
