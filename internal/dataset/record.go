package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dinewise/dinewise-server/internal/domain"
)

// RecordFromMap builds a RawRecord from a decoded row. Unknown keys are
// ignored. Non-string values are rendered as source text: numbers in their
// shortest form, booleans as "Yes"/"No" to match the dataset's own spelling.
func RecordFromMap(row map[string]any) domain.RawRecord {
	get := func(key string) string { return stringify(row[key]) }

	return domain.RawRecord{
		Name:         get(domain.ColName),
		Address:      get(domain.ColAddress),
		URL:          get(domain.ColURL),
		Location:     get(domain.ColLocation),
		ListedInCity: get(domain.ColListedInCity),
		Cuisines:     get(domain.ColCuisines),
		RestType:     get(domain.ColRestType),
		Rate:         get(domain.ColRate),
		ApproxCost:   get(domain.ColApproxCost),
		OnlineOrder:  get(domain.ColOnlineOrder),
		BookTable:    get(domain.ColBookTable),
		Votes:        get(domain.ColVotes),
		Phone:        get(domain.ColPhone),
		DishLiked:    get(domain.ColDishLiked),
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case []any:
		// Some mirrors publish phone numbers as a list.
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}
