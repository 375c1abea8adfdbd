// Package normalize turns raw dataset rows into canonical restaurant records.
//
// Normalization never fails: malformed numeric fields degrade to nil and rows
// without a usable name or address are reported as rejected. Deduplication is
// a batch-level reduction applied after per-record normalization.
package normalize

import (
	"github.com/dinewise/dinewise-server/internal/domain"
)

// Restaurant normalizes one raw record. The second return value is false when
// the record has no usable name or address and must be excluded.
func Restaurant(raw domain.RawRecord) (*domain.Restaurant, bool) {
	name := truncate(CollapseSpace(raw.Name), maxNameLen)
	address := truncate(CollapseSpace(raw.Address), maxAddressLen)
	if name == "" || address == "" {
		return nil, false
	}

	location := optional(raw.Location, maxLocationLen)
	listedIn := optional(raw.ListedInCity, maxLocationLen)
	if location == nil {
		location = listedIn
	}
	if listedIn == nil {
		listedIn = location
	}

	return &domain.Restaurant{
		Name:         name,
		Address:      address,
		Location:     location,
		ListedInCity: listedIn,
		Cuisines:     ParseCuisines(raw.Cuisines),
		CostForTwo:   ParseCost(raw.ApproxCost),
		Rate:         ParseRate(raw.Rate),
		Votes:        ParseVotes(raw.Votes),
		URL:          optional(raw.URL, maxURLLen),
		RestType:     optional(raw.RestType, maxLocationLen),
		OnlineOrder:  ParseBool(raw.OnlineOrder),
		BookTable:    ParseBool(raw.BookTable),
		Phone:        optional(raw.Phone, maxPhoneLen),
		DishLiked:    optional(raw.DishLiked, maxTextLen),
	}, true
}

// Result is the outcome of normalizing a batch.
type Result struct {
	Records    []domain.Restaurant
	Skipped    int // rejected: empty name or address
	Duplicates int // dropped: dedup key already seen
}

// Batch normalizes raws in order and keeps the first record seen for each
// dedup key.
func Batch(raws []domain.RawRecord) Result {
	var res Result
	d := NewDeduper()
	res.Records = make([]domain.Restaurant, 0, len(raws))
	for _, raw := range raws {
		r, ok := Restaurant(raw)
		if !ok {
			res.Skipped++
			continue
		}
		if !d.Add(r) {
			res.Duplicates++
			continue
		}
		res.Records = append(res.Records, *r)
	}
	return res
}
