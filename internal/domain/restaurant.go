// Package domain holds the restaurant, preference and recommendation types
// shared by the pipeline, store and API layers.
package domain

// Restaurant is the canonical record persisted in the store and returned by the API.
// Optional fields are nil when the source value was missing or unparseable.
type Restaurant struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Location     *string  `json:"location"`
	ListedInCity *string  `json:"listed_in_city"`
	Cuisines     *string  `json:"cuisines"` // ", " joined
	CostForTwo   *int     `json:"cost_for_two"`
	Rate         *float64 `json:"rate"` // 0..5
	Votes        *int     `json:"votes"`
	URL          *string  `json:"url"`
	RestType     *string  `json:"rest_type"`
	OnlineOrder  *bool    `json:"online_order"`
	BookTable    *bool    `json:"book_table"`
	Phone        *string  `json:"phone"`
	DishLiked    *string  `json:"dish_liked"`
}

// RawRecord is one source row before normalization.
// Every field holds the source text as-is; empty means absent.
type RawRecord struct {
	Name         string `json:"name" yaml:"name"`
	Address      string `json:"address" yaml:"address"`
	URL          string `json:"url" yaml:"url"`
	Location     string `json:"location" yaml:"location"`
	ListedInCity string `json:"listed_in(city)" yaml:"listed_in(city)"`
	Cuisines     string `json:"cuisines" yaml:"cuisines"`
	RestType     string `json:"rest_type" yaml:"rest_type"`
	Rate         string `json:"rate" yaml:"rate"`
	ApproxCost   string `json:"approx_cost(for two people)" yaml:"approx_cost(for two people)"`
	OnlineOrder  string `json:"online_order" yaml:"online_order"`
	BookTable    string `json:"book_table" yaml:"book_table"`
	Votes        string `json:"votes" yaml:"votes"`
	Phone        string `json:"phone" yaml:"phone"`
	DishLiked    string `json:"dish_liked" yaml:"dish_liked"`
}

// Source column names as published in the Zomato dataset.
const (
	ColName         = "name"
	ColAddress      = "address"
	ColURL          = "url"
	ColLocation     = "location"
	ColListedInCity = "listed_in(city)"
	ColCuisines     = "cuisines"
	ColRestType     = "rest_type"
	ColRate         = "rate"
	ColApproxCost   = "approx_cost(for two people)"
	ColOnlineOrder  = "online_order"
	ColBookTable    = "book_table"
	ColVotes        = "votes"
	ColPhone        = "phone"
	ColDishLiked    = "dish_liked"
)
