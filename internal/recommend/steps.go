package recommend

import "github.com/dinewise/dinewise-server/internal/store"

// Step names, also used as metric labels.
const (
	StepStrict        = "strict"
	StepDropCuisines  = "drop_cuisines"
	StepDropMinRating = "drop_min_rating"
	StepDropCost      = "drop_cost"
)

// Step is one relaxation applied when the previous query came back empty.
// Relax mutates the filter in place and reports whether it changed anything;
// a step that changes nothing is not queried.
type Step struct {
	Name  string
	Relax func(f *store.Filter) bool
}

// DefaultSteps relaxes cuisine, then rating, then cost. Location and the
// exact-match filters are never dropped.
var DefaultSteps = []Step{
	{Name: StepDropCuisines, Relax: dropCuisines},
	{Name: StepDropMinRating, Relax: dropMinRating},
	{Name: StepDropCost, Relax: dropCost},
}

func dropCuisines(f *store.Filter) bool {
	if len(f.CuisineContains) == 0 {
		return false
	}
	f.CuisineContains = nil
	return true
}

func dropMinRating(f *store.Filter) bool {
	if f.MinRate == nil {
		return false
	}
	f.MinRate = nil
	return true
}

func dropCost(f *store.Filter) bool {
	if f.MinCost == nil && f.MaxCost == nil {
		return false
	}
	f.MinCost = nil
	f.MaxCost = nil
	return true
}
