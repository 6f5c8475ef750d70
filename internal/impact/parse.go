package impact

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Lenient parsers for loosely-typed source fields. None of them return an error:
// a value that cannot be interpreted yields nil (or an empty slice for StringList).

// OptionalString returns the string form of a scalar source value.
// nil, objects and lists yield nil.
func OptionalString(v any) *string {
	s, ok := scalarString(v)
	if !ok {
		return nil
	}

	return &s
}

// OptionalBool interprets JSON booleans and "true"/"false" style strings.
func OptionalBool(v any) *bool {
	switch b := v.(type) {
	case bool:
		return &b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return nil
		}

		return &parsed
	default:
		return nil
	}
}

// ParseInt parses integral JSON numbers and decimal strings such as "2021".
// Fractional numbers, non-numeric strings and every other type yield nil.
func ParseInt(v any) *int {
	switch n := v.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil
		}

		return &i
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return nil
		}

		i := int(n)

		return &i
	case int:
		return &n
	case int64:
		i := int(n)

		return &i
	case json.Number:
		i64, err := n.Int64()
		if err != nil {
			return nil
		}

		i := int(i64)

		return &i
	default:
		return nil
	}
}

// ParseEpochMillis converts a millisecond Unix timestamp, given as a string or a
// number, into a UTC time. Empty or non-numeric values yield nil.
func ParseEpochMillis(v any) *time.Time {
	var ms int64

	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil
		}

		ms = parsed
	case float64:
		if n != math.Trunc(n) {
			return nil
		}

		ms = int64(n)
	case int64:
		ms = n
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return nil
		}

		ms = parsed
	default:
		return nil
	}

	t := time.UnixMilli(ms).UTC()

	return &t
}

// ParsePeriod splits an evaluation period of the form "YYYY-YYYY" on its first dash.
// Each half is parsed on its own, so "2017-x" yields (2017, nil).
// A period without a dash yields (nil, nil).
func ParsePeriod(period string) (*int, *int) {
	startStr, endStr, found := strings.Cut(period, "-")
	if !found {
		return nil, nil
	}

	return ParseInt(startStr), ParseInt(endStr)
}

// StringList normalizes a tag-list field: a list has each element stringified,
// a scalar is wrapped in a one-element list and a missing or empty value yields
// an empty list. The result is never nil.
func StringList(v any) []string {
	switch list := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(list))

		for _, item := range list {
			if s, ok := scalarString(item); ok {
				out = append(out, s)

				continue
			}

			out = append(out, fmt.Sprint(item))
		}

		return out
	case []string:
		return append([]string{}, list...)
	case string:
		if list == "" {
			return []string{}
		}

		return []string{list}
	default:
		if s, ok := scalarString(list); ok {
			return []string{s}
		}

		return []string{fmt.Sprint(list)}
	}
}

// scalarString renders JSON scalars. Integral floats render without a fraction,
// so 3 stays "3" rather than "3e+00".
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case json.Number:
		return s.String(), true
	default:
		return "", false
	}
}
