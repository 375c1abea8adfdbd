package normalize

import (
	"strings"
	"testing"

	"github.com/dinewise/dinewise-server/internal/domain"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"4.1/5", ptr(4.1)},
		{"4.1 /5", ptr(4.1)},
		{" 3.9 / 5 ", ptr(3.9)},
		{"5/5", ptr(5.0)},
		{"0", ptr(0.0)},
		{"3", ptr(3.0)},
		// Placeholders degrade to nil, never zero.
		{"NEW", nil},
		{"-", nil},
		{"", nil},
		{"nan", nil},
		{"/5", nil},
		// Out of range.
		{"7.5/5", nil},
		{"10", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseRate(tt.input)
			if !equalPtr(got, tt.want) {
				t.Errorf("ParseRate(%q) = %v, want %v", tt.input, show(got), show(tt.want))
			}
		})
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"800", ptr(800)},
		{"1,200", ptr(1200)},
		{"1,000", ptr(1000)},
		{"1,00", ptr(100)},
		{"2,50", ptr(250)},
		{"300,400", ptr(300)},
		{"1.000", ptr(1000)},
		{"2.500", ptr(2500)},
		{"1,20,000", ptr(120000)},
		{"₹ 800", ptr(800)},
		{"₹ 1,200", ptr(1200)},
		{"₹1,200", ptr(1200)},
		{"Rs. 1,500", ptr(1500)},
		{"INR 2,000", ptr(2000)},
		{"Rs 1,00", ptr(100)},
		{"₹300,400", ptr(300)},
		{"1,200 for two", ptr(1200)},
		{"approx 450 for two", ptr(450)},
		{"", nil},
		{"   ", nil},
		{"-", nil},
		{"free", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseCost(tt.input)
			if !equalPtr(got, tt.want) {
				t.Errorf("ParseCost(%q) = %v, want %v", tt.input, show(got), show(tt.want))
			}
		})
	}
}

func TestParseCuisines(t *testing.T) {
	tests := []struct {
		input string
		want  *string
	}{
		{"North Indian, Mughlai, Chinese", ptr("North Indian, Mughlai, Chinese")},
		{" North   Indian ,Chinese,, ", ptr("North Indian, Chinese")},
		{"Cafe", ptr("Cafe")},
		{",,,", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseCuisines(tt.input)
			if !equalPtr(got, tt.want) {
				t.Errorf("ParseCuisines(%q) = %v, want %v", tt.input, show(got), show(tt.want))
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input string
		want  *bool
	}{
		{"Yes", ptr(true)},
		{"yes", ptr(true)},
		{"NO", ptr(false)},
		{"No", ptr(false)},
		{"true", ptr(true)},
		{"false", ptr(false)},
		{"maybe", nil},
		{"1", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseBool(tt.input)
			if !equalPtr(got, tt.want) {
				t.Errorf("ParseBool(%q) = %v, want %v", tt.input, show(got), show(tt.want))
			}
		})
	}
}

func TestParseVotes(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"775", ptr(775)},
		{"12.0", ptr(12)},
		{"12.00", ptr(12)},
		{"1e3", ptr(1000)},
		{" 0 ", ptr(0)},
		{"12.5", nil},
		{"-3", nil},
		{"NaN", nil},
		{"Inf", nil},
		{"many", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseVotes(tt.input); !equalPtr(got, tt.want) {
			t.Errorf("ParseVotes(%q) = %v, want %v", tt.input, show(got), show(tt.want))
		}
	}
}

func TestRestaurant(t *testing.T) {
	raw := domain.RawRecord{
		Name:        "  Jalsa ",
		Address:     "942, 21st Main Road,  Banashankari",
		Location:    "Banashankari",
		Cuisines:    "North Indian, Mughlai,Chinese",
		Rate:        "4.1/5",
		ApproxCost:  "800",
		OnlineOrder: "Yes",
		BookTable:   "maybe",
		Votes:       "775",
		RestType:    "Casual Dining",
	}

	r, ok := Restaurant(raw)
	if !ok {
		t.Fatal("expected record to normalize")
	}
	if r.Name != "Jalsa" {
		t.Errorf("Name = %q", r.Name)
	}
	if r.Address != "942, 21st Main Road, Banashankari" {
		t.Errorf("Address = %q", r.Address)
	}
	if r.Cuisines == nil || *r.Cuisines != "North Indian, Mughlai, Chinese" {
		t.Errorf("Cuisines = %v", show(r.Cuisines))
	}
	if r.Rate == nil || *r.Rate != 4.1 {
		t.Errorf("Rate = %v", show(r.Rate))
	}
	if r.CostForTwo == nil || *r.CostForTwo != 800 {
		t.Errorf("CostForTwo = %v", show(r.CostForTwo))
	}
	if r.OnlineOrder == nil || !*r.OnlineOrder {
		t.Errorf("OnlineOrder = %v", show(r.OnlineOrder))
	}
	if r.BookTable != nil {
		t.Errorf("BookTable = %v, want nil", *r.BookTable)
	}
	if r.ListedInCity == nil || *r.ListedInCity != "Banashankari" {
		t.Errorf("ListedInCity = %v", show(r.ListedInCity))
	}
}

func TestRestaurant_LocationFallsBackToListedCity(t *testing.T) {
	r, ok := Restaurant(domain.RawRecord{Name: "A", Address: "B", ListedInCity: "Jayanagar"})
	if !ok {
		t.Fatal("expected record to normalize")
	}
	if r.Location == nil || *r.Location != "Jayanagar" {
		t.Errorf("Location = %v", show(r.Location))
	}
}

func TestRestaurant_RejectsMissingIdentity(t *testing.T) {
	tests := []domain.RawRecord{
		{Name: "", Address: "x"},
		{Name: "   ", Address: "x"},
		{Name: "x", Address: ""},
		{Name: "x", Address: "\t\n"},
	}
	for _, raw := range tests {
		if _, ok := Restaurant(raw); ok {
			t.Errorf("Restaurant(%+v) accepted, want rejected", raw)
		}
	}
}

func TestRestaurant_TruncatesLongText(t *testing.T) {
	r, ok := Restaurant(domain.RawRecord{Name: strings.Repeat("n", 400), Address: "a"})
	if !ok {
		t.Fatal("expected record to normalize")
	}
	if got := len([]rune(r.Name)); got != maxNameLen {
		t.Errorf("name length = %d, want %d", got, maxNameLen)
	}
}

func TestBatch_FirstSeenWins(t *testing.T) {
	raws := []domain.RawRecord{
		{Name: "Jalsa", Address: "123 Main", Rate: "4.1/5"},
		{Name: "", Address: "nowhere"},
		{Name: " JALSA", Address: "123   main ", Rate: "3.0/5"},
		{Name: "Spice Elephant", Address: "9 Side St"},
	}

	res := Batch(raws)
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if res.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", res.Duplicates)
	}
	if res.Records[0].Rate == nil || *res.Records[0].Rate != 4.1 {
		t.Errorf("first-seen record not kept: rate = %v", show(res.Records[0].Rate))
	}
}

func TestDedupKey(t *testing.T) {
	if DedupKey("Jalsa", "123 Main") != DedupKey(" jalsa ", "123  MAIN") {
		t.Error("expected keys to match after case and whitespace folding")
	}
	if DedupKey("Jalsa", "123 Main") == DedupKey("Jalsa", "124 Main") {
		t.Error("expected different addresses to differ")
	}
	// The separator keeps ("ab", "c") apart from ("a", "bc").
	if DedupKey("ab", "c") == DedupKey("a", "bc") {
		t.Error("expected name/address boundary to be preserved")
	}
}

func TestMatchKey(t *testing.T) {
	if MatchKey("JP Nagar") != MatchKey("J P  nagar") {
		t.Error("expected JP Nagar and J P nagar to match")
	}
}

func ptr[T any](v T) *T { return &v }

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func show[T any](p *T) any {
	if p == nil {
		return "<nil>"
	}
	return *p
}
