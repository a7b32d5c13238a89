package features

import (
	"fmt"
	"math"

	"QuantForge/internal/domain/models"
)

// ClassificationMethod names the supported classification target recipes.
type ClassificationMethod string

const (
	TargetPriceDirection     ClassificationMethod = "price_direction"
	TargetPriceMovement      ClassificationMethod = "price_movement"
	TargetVolatilityBreakout ClassificationMethod = "volatility_breakout"
)

// RegressionKind names the supported regression target recipes.
type RegressionKind string

const (
	TargetNextClose  RegressionKind = "next_close"
	TargetReturn     RegressionKind = "return"
	TargetVolatility RegressionKind = "volatility"
)

// movementThreshold is the ±1% forward-return band for price_movement.
const movementThreshold = 0.01

// ClassificationTarget appends a Target column derived from price movement
// periods steps ahead and drops the tail rows whose look-ahead does not
// exist. Zero close prices make percentage targets undefined and are
// rejected as a data-quality error rather than propagated as infinities.
func ClassificationTarget(t *models.Table, method ClassificationMethod, periods int) (*models.Table, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("periods must be positive, got %d", periods)
	}
	cls, err := numericLens(t, ColClose)
	if err != nil {
		return nil, err
	}
	n := len(cls)
	target := nanSlice(n)

	switch method {
	case TargetPriceDirection:
		for i := 0; i+periods < n; i++ {
			if cls[i+periods] > cls[i] {
				target[i] = 1
			} else {
				target[i] = 0
			}
		}

	case TargetPriceMovement:
		for i := 0; i+periods < n; i++ {
			if cls[i] == 0 {
				return nil, fmt.Errorf("zero close price at row %d; cannot compute forward return", i)
			}
			ret := (cls[i+periods] - cls[i]) / cls[i]
			switch {
			case ret > movementThreshold:
				target[i] = 1
			case ret < -movementThreshold:
				target[i] = -1
			default:
				target[i] = 0
			}
		}

	case TargetVolatilityBreakout:
		work := t
		if _, ok := t.Column("BB_Upper"); !ok {
			work, err = AddIndicators(t)
			if err != nil {
				return nil, err
			}
		}
		high, err := numericLens(work, ColHigh)
		if err != nil {
			return nil, err
		}
		low, err := numericLens(work, ColLow)
		if err != nil {
			return nil, err
		}
		upper, err := numericLens(work, "BB_Upper")
		if err != nil {
			return nil, err
		}
		lower, err := numericLens(work, "BB_Lower")
		if err != nil {
			return nil, err
		}
		for i := 0; i+periods < n; i++ {
			// comparisons against a null band are false: no breakout signal
			switch {
			case high[i+periods] > upper[i]:
				target[i] = 1
			case low[i+periods] < lower[i]:
				target[i] = -1
			default:
				target[i] = 0
			}
		}
		t = work

	default:
		return nil, fmt.Errorf("unknown classification method %q", method)
	}

	return appendTargetAndTrim(t, target)
}

// RegressionTarget appends a numeric Target column looking periods steps
// ahead and drops rows without a defined target.
func RegressionTarget(t *models.Table, kind RegressionKind, periods int) (*models.Table, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("periods must be positive, got %d", periods)
	}
	cls, err := numericLens(t, ColClose)
	if err != nil {
		return nil, err
	}
	n := len(cls)
	target := nanSlice(n)

	switch kind {
	case TargetNextClose:
		for i := 0; i+periods < n; i++ {
			target[i] = cls[i+periods]
		}

	case TargetReturn:
		for i := 0; i+periods < n; i++ {
			if cls[i] == 0 {
				return nil, fmt.Errorf("zero close price at row %d; cannot compute forward return", i)
			}
			target[i] = (cls[i+periods] - cls[i]) / cls[i] * 100
		}

	case TargetVolatility:
		if periods < 2 {
			return nil, fmt.Errorf("volatility target needs periods >= 2, got %d", periods)
		}
		roll := rollingStd(cls, periods)
		for i := 0; i+periods < n; i++ {
			target[i] = roll[i+periods]
		}

	default:
		return nil, fmt.Errorf("unknown regression kind %q", kind)
	}

	return appendTargetAndTrim(t, target)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// appendTargetAndTrim attaches the target column and drops rows whose
// target is undefined (the look-ahead tail).
func appendTargetAndTrim(t *models.Table, target []float64) (*models.Table, error) {
	out := t.Clone()
	if err := out.Append(models.NewNumericColumn(ColTarget, target)); err != nil {
		return nil, err
	}
	keep := make([]bool, len(target))
	for i, v := range target {
		keep[i] = !math.IsNaN(v)
	}
	return out.FilterRows(keep), nil
}
