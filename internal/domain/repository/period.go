package repository

import "time"

// Period is a named lookback range for candle fetches.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	PeriodMax Period = "max"
)

// Interval is the candle resolution.
type Interval string

const (
	Interval1D  Interval = "1d"
	Interval1Wk Interval = "1wk"
	Interval1Mo Interval = "1mo"
)

var periodDurations = map[Period]time.Duration{
	Period1Mo: 30 * 24 * time.Hour,
	Period3Mo: 91 * 24 * time.Hour,
	Period6Mo: 182 * 24 * time.Hour,
	Period1Y:  365 * 24 * time.Hour,
	Period2Y:  2 * 365 * 24 * time.Hour,
	Period5Y:  5 * 365 * 24 * time.Hour,
	PeriodMax: 20 * 365 * 24 * time.Hour,
}

// IsValidPeriod returns true if p is a supported lookback range.
func IsValidPeriod(p Period) bool {
	_, ok := periodDurations[p]
	return ok
}

// DefaultPeriod returns the default lookback range.
func DefaultPeriod() Period { return Period1Y }

// NormalizePeriod converts a raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}

// PeriodRange resolves p to a [from, to] pair ending at now.
func PeriodRange(p Period, now time.Time) (time.Time, time.Time) {
	d, ok := periodDurations[p]
	if !ok {
		d = periodDurations[DefaultPeriod()]
	}
	return now.Add(-d), now
}

// IsValidInterval returns true if iv is a supported resolution.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1D, Interval1Wk, Interval1Mo:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default candle resolution.
func DefaultInterval() Interval { return Interval1D }

// NormalizeInterval converts a raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}
