package util

import (
    "strconv"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// AlignFromTo rounds the time range to boundaries for the candle interval.
func AlignFromTo(from, to time.Time, interval string) (time.Time, time.Time) {
    switch interval {
    case "1d":
        from = from.Truncate(24 * time.Hour)
        to = to.Truncate(24 * time.Hour)
    case "1wk":
        from = startOfWeek(from)
        to = startOfWeek(to)
    case "1mo":
        from = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
        to = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, to.Location())
    default:
        from = from.Truncate(24 * time.Hour)
        to = to.Truncate(24 * time.Hour)
    }
    return from, to
}

func startOfWeek(t time.Time) time.Time {
    t = t.Truncate(24 * time.Hour)
    // back up to Monday
    offset := (int(t.Weekday()) + 6) % 7
    return t.AddDate(0, 0, -offset)
}