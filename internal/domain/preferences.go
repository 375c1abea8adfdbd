package domain

// DefaultTopN is the number of restaurants returned when a request does not say.
const DefaultTopN = 15

// MaxTopN caps the number of restaurants a single request may ask for.
const MaxTopN = 50

// Preferences is the request-scoped filter set for a recommendation.
// It is never persisted.
type Preferences struct {
	Location    *string  `json:"location,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	MinCost     *int     `json:"min_cost,omitempty"`
	MaxCost     *int     `json:"max_cost,omitempty"`
	Cuisines    []string `json:"cuisines,omitempty"`
	RestType    *string  `json:"rest_type,omitempty"`
	OnlineOrder *bool    `json:"online_order,omitempty"`
	BookTable   *bool    `json:"book_table,omitempty"`
}

// Recommendation is the result of one recommend call.
// Restaurants and Relaxed are final before Summary is computed.
type Recommendation struct {
	Restaurants []Restaurant `json:"restaurants"`
	Summary     *string      `json:"summary"`
	Relaxed     bool         `json:"relaxed"`

	// SummaryFailed is set when a summarizer was configured but produced no
	// summary. Such results are not cached.
	SummaryFailed bool `json:"-"`
}

// TopNOrDefault clamps n into [1, MaxTopN], using DefaultTopN for non-positive values.
func TopNOrDefault(n int) int {
	switch {
	case n <= 0:
		return DefaultTopN
	case n > MaxTopN:
		return MaxTopN
	default:
		return n
	}
}
