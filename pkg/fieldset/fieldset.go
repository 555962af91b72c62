// Package fieldset reads sparse key/value records produced by people and by
// document extraction services.
//
// A value is either a bare scalar or an extraction-shaped object
// {"value": ..., "confidence": 0.93}. Every accessor unwraps the second shape
// transparently so callers never care which one they were handed.
package fieldset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is the extraction-shaped value.
type Field struct {
	Value      any     `json:"value" yaml:"value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// DateLayouts lists the date formats accepted for date-valued fields, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02.01.2006",
	"2006/01/02",
}

// Unwrap returns the scalar inside an extraction-shaped value, or v unchanged.
func Unwrap(v any) any {
	switch f := v.(type) {
	case Field:
		return f.Value
	case *Field:
		if f == nil {
			return nil
		}
		return f.Value
	case map[string]any:
		if inner, ok := f["value"]; ok {
			return inner
		}
	}
	return v
}

// Confidence returns the confidence attached to v; bare scalars count as 1.
func Confidence(v any) float64 {
	switch f := v.(type) {
	case Field:
		return f.Confidence
	case *Field:
		if f != nil {
			return f.Confidence
		}
	case map[string]any:
		if c, ok := f["confidence"]; ok {
			if n, ok := toFloat(c); ok {
				return n
			}
		}
	}
	return 1
}

// Value looks up key and unwraps it. Nil and empty strings count as absent.
func Value(m map[string]any, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	raw, ok := m[key]
	if !ok {
		return nil, false
	}
	v := Unwrap(raw)
	if IsEmpty(v) {
		return nil, false
	}
	return v, true
}

// IsEmpty reports whether v carries no information.
func IsEmpty(v any) bool {
	switch t := Unwrap(v).(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

// String returns the value at key rendered as a trimmed string.
func String(m map[string]any, key string) string {
	v, ok := Value(m, key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Bool interprets the value at key; strings such as "true", "yes" and "1" count.
func Bool(m map[string]any, key string) bool {
	v, ok := Value(m, key)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1", "oui":
			return true
		}
		return false
	default:
		n, ok := toFloat(t)
		return ok && n != 0
	}
}

// Date parses the value at key as a calendar date (UTC midnight).
func Date(m map[string]any, key string) (time.Time, bool) {
	v, ok := Value(m, key)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(v)
}

// ParseDate accepts time.Time or any string in DateLayouts.
func ParseDate(v any) (time.Time, bool) {
	switch t := Unwrap(v).(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return TruncateDay(t), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return TruncateDay(*t), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range DateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return TruncateDay(parsed), true
			}
		}
	}
	return time.Time{}, false
}

// TruncateDay drops the clock part, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clone copies the top level of m. Nested values are shared.
func Clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
