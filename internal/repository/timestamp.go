package repository

import (
	"encoding/json"
	"math"
	"time"
)

// TimestampLayout is the ISO-8601 form every stored timestamp is read back as
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NormalizeTimestamp renders a stored timestamp as an ISO-8601 UTC string.
// Accepts time values, ISO strings, unix seconds or milliseconds, and the
// {_seconds,_nanoseconds} / {seconds,nanos} objects document stores emit.
// Unknown or empty values render as "".
func NormalizeTimestamp(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return formatTime(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatTime(*v)
	case string:
		return normalizeString(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return ""
		}
		return fromUnix(f)
	case float64:
		return fromUnix(v)
	case float32:
		return fromUnix(float64(v))
	case int:
		return fromUnix(float64(v))
	case int64:
		return fromUnix(float64(v))
	case map[string]any:
		return fromSecondsObject(v)
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func normalizeString(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return formatTime(t)
		}
	}
	return s
}

// values above this are taken as milliseconds
const millisThreshold = 1e12

func fromUnix(f float64) string {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f >= millisThreshold {
		return formatTime(time.UnixMilli(int64(f)))
	}
	sec, frac := math.Modf(f)
	return formatTime(time.Unix(int64(sec), int64(frac*1e9)))
}

func fromSecondsObject(m map[string]any) string {
	seconds, ok := number(m, "_seconds", "seconds")
	if !ok {
		return ""
	}
	nanos, _ := number(m, "_nanoseconds", "nanoseconds", "nanos")
	return formatTime(time.Unix(int64(seconds), int64(nanos)))
}

func number(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch n := m[key].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
