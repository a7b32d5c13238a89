package repository

import (
	"testing"
	"time"
)

func TestNormalizePeriod(t *testing.T) {
	if got := NormalizePeriod(""); got != Period1Y {
		t.Fatalf("empty should default, got %s", got)
	}
	if got := NormalizePeriod("5y"); got != Period5Y {
		t.Fatalf("unexpected %s", got)
	}
	if got := NormalizePeriod("14d"); got != Period1Y {
		t.Fatalf("unknown should default, got %s", got)
	}
}

func TestNormalizeInterval(t *testing.T) {
	if got := NormalizeInterval(""); got != Interval1D {
		t.Fatalf("empty should default, got %s", got)
	}
	if got := NormalizeInterval("1wk"); got != Interval1Wk {
		t.Fatalf("unexpected %s", got)
	}
	if got := NormalizeInterval("5m"); got != Interval1D {
		t.Fatalf("unknown should default, got %s", got)
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	from, to := PeriodRange(Period1Mo, now)
	if !to.Equal(now) {
		t.Fatalf("range should end at now")
	}
	if to.Sub(from) != 30*24*time.Hour {
		t.Fatalf("unexpected span %v", to.Sub(from))
	}
}
