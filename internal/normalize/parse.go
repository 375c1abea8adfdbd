package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Maximum stored lengths (runes) for free-text fields.
const (
	maxNameLen     = 300
	maxAddressLen  = 500
	maxLocationLen = 200
	maxCuisinesLen = 500
	maxURLLen      = 600
	maxPhoneLen    = 50
	maxTextLen     = 500
)

var (
	leadingNumber   = regexp.MustCompile(`^\d+(?:\.\d+)?`)
	firstDigitRun   = regexp.MustCompile(`\d+`)
	periodThousands = regexp.MustCompile(`^\d{1,4}\.\d{3}$`)
)

// ParseRate parses ratings such as "4.1/5", "4.1 /5" or "3.9".
// Placeholders ("NEW", "-") and values outside [0, 5] yield nil.
func ParseRate(s string) *float64 {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

// ParseCost parses the approximate cost for two.
//
//	"800"     -> 800
//	"1,200"   -> 1200  (thousands separator)
//	"1,00"    -> 100   (Indian grouping)
//	"300,400" -> 300   (range, lower bound)
//	"1.000"   -> 1000  (period thousands separator)
//	"₹ 800"   -> 800
//	"Rs. 1,500" -> 1500 (currency prefix)
func ParseCost(s string) *int {
	s = digitSpan(s)
	if s == "" {
		return nil
	}

	if periodThousands.MatchString(s) {
		return atoi(strings.ReplaceAll(s, ".", ""))
	}

	parts := strings.Split(s, ",")
	if len(parts) == 2 {
		head, tail := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if isDigits(head) && isDigits(tail) {
			switch {
			case len(tail) == 3 && len(head) <= 2:
				return atoi(head + tail)
			case len(tail) == 2:
				h, t := atoi(head), atoi(tail)
				if h == nil || t == nil {
					return nil
				}
				v := *h*100 + *t
				return &v
			default:
				return atoi(head)
			}
		}
	}

	// Longer groupings such as "1,20,000" collapse to their digits.
	if stripped := strings.ReplaceAll(s, ",", ""); isDigits(stripped) {
		return atoi(stripped)
	}

	return atoi(firstDigitRun.FindString(s))
}

// digitSpan trims s down to the text between its first and last ASCII digit,
// dropping currency prefixes and trailing words. It is empty when s has no
// digits.
func digitSpan(s string) string {
	first := strings.IndexAny(s, "0123456789")
	if first < 0 {
		return ""
	}
	last := strings.LastIndexAny(s, "0123456789")
	return s[first : last+1]
}

// ParseCuisines trims each comma separated token, drops empty ones and
// joins the rest with ", ".
func ParseCuisines(s string) *string {
	tokens := SplitCuisines(s)
	if len(tokens) == 0 {
		return nil
	}
	joined := truncate(strings.Join(tokens, ", "), maxCuisinesLen)
	return &joined
}

// SplitCuisines returns the trimmed, non-empty tokens of a cuisine list.
func SplitCuisines(s string) []string {
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = CollapseSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ParseBool maps "yes"/"no" (and "true"/"false") to a bool, case-insensitively.
// Anything else is nil.
func ParseBool(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true":
		v = true
	case "no", "false":
		v = false
	default:
		return nil
	}
	return &v
}

// ParseVotes parses a non-negative vote count. Numeric JSON values may arrive
// in float form ("12.0", "12.00", "1e3"); only whole values are accepted.
func ParseVotes(s string) *int {
	s = strings.TrimSpace(s)
	if isDigits(s) {
		return atoi(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > math.MaxInt32 || v != math.Trunc(v) {
		return nil
	}
	n := int(v)
	return &n
}

// CollapseSpace trims s and replaces inner whitespace runs with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// optional returns a collapsed, length-capped copy of s, or nil when empty.
func optional(s string, maxLen int) *string {
	s = CollapseSpace(s)
	if s == "" {
		return nil
	}
	s = truncate(s, maxLen)
	return &s
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return strings.TrimSpace(string(r[:maxLen]))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
