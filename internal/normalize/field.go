// Package normalize converts loosely typed source values into typed,
// nullable fields and reduces player names to matching keys.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// nullTokens are the placeholder strings the upstream sources use for "no value".
var nullTokens = map[string]struct{}{
	"":     {},
	"none": {},
	"null": {},
	"nan":  {},
	"--":   {},
	"-":    {},
	"n/a":  {},
}

// IsNull reports whether v carries no value: nil, a nil pointer, or a
// placeholder string such as "", "--" or "null".
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		_, ok := nullTokens[strings.ToLower(strings.TrimSpace(x))]
		return ok
	case *string:
		return x == nil || IsNull(*x)
	case *int:
		return x == nil
	case *float64:
		return x == nil
	}
	return false
}

// number extracts a finite float64 from the value shapes the sources emit.
// Returns ok=false for anything that is not a number.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		if IsNull(x) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case *string:
		if x == nil {
			return 0, false
		}
		return number(*x)
	case *int:
		if x == nil {
			return 0, false
		}
		return float64(*x), true
	case *float64:
		if x == nil {
			return 0, false
		}
		f = *x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToFloat converts v to a float. Currency symbols and thousands separators
// are not stripped; use ParseCurrency for those.
func ToFloat(v any) *float64 {
	f, ok := number(v)
	if !ok {
		return nil
	}
	return &f
}

// ToInt converts v to an int, truncating toward zero ("12.7" -> 12).
func ToInt(v any) *int {
	f, ok := number(v)
	if !ok || f >= math.MaxInt64 || f <= math.MinInt64 {
		return nil
	}
	n := int(f)
	return &n
}

// ToCleanString trims v and truncates it to maxLen runes when maxLen > 0.
// Non-string values are formatted with fmt. Blank input yields nil.
func ToCleanString(v any, maxLen int) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case *string:
		if x == nil {
			return nil
		}
		s = *x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s = fmt.Sprint(x)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = strings.TrimSpace(string([]rune(s)[:maxLen]))
	}
	return &s
}

// ParseCurrency parses salary strings like "$51,915,615" into whole dollars.
func ParseCurrency(v any) *int {
	s, ok := v.(string)
	if !ok {
		return ToInt(v)
	}
	if IsNull(s) {
		return nil
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate reads calendar dates in the formats stats.nba.com uses
// ("2024-10-22" or "2024-10-22T00:00:00"). The time of day is dropped.
func ParseDate(v any) *time.Time {
	switch x := v.(type) {
	case time.Time:
		d := truncateDay(x)
		return &d
	case *time.Time:
		if x == nil {
			return nil
		}
		d := truncateDay(*x)
		return &d
	case string:
		s := strings.TrimSpace(x)
		if IsNull(s) {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d := truncateDay(t)
				return &d
			}
		}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
