// Package features builds supervised ML datasets from price series:
// technical indicators, forward-looking targets, and calendar features.
// Indicator values at row i use only data at or before row i; warm-up
// cells are nulls and are dropped during dataset assembly.
package features

import (
	"fmt"
	"math"
	"time"

	"QuantForge/internal/domain/models"
)

// Canonical column names of a price series table.
const (
	ColDate   = "Date"
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
	ColTarget = "Target"
)

// FromBars converts a chronological bar slice into a table with the
// canonical OHLCV columns.
func FromBars(bars []models.PriceBar) (*models.Table, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("empty price series")
	}
	n := len(bars)
	times := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	cls := make([]float64, n)
	vol := make([]float64, n)
	for i, b := range bars {
		times[i] = b.Time
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		cls[i] = b.Close
		vol[i] = b.Volume
	}
	return models.NewTable(
		models.NewTimeColumn(ColDate, times),
		models.NewNumericColumn(ColOpen, open),
		models.NewNumericColumn(ColHigh, high),
		models.NewNumericColumn(ColLow, low),
		models.NewNumericColumn(ColClose, cls),
		models.NewNumericColumn(ColVolume, vol),
	)
}

// AddIndicators appends the standard technical indicator set to a price
// table. The input must contain the canonical OHLCV columns.
//
// RSI policy: a window with zero mean loss and positive mean gain is 100;
// a window with no movement at all is null and gets dropped downstream.
func AddIndicators(t *models.Table) (*models.Table, error) {
	cls, err := numericLens(t, ColClose)
	if err != nil {
		return nil, err
	}
	high, err := numericLens(t, ColHigh)
	if err != nil {
		return nil, err
	}
	low, err := numericLens(t, ColLow)
	if err != nil {
		return nil, err
	}
	open, err := numericLens(t, ColOpen)
	if err != nil {
		return nil, err
	}
	vol, err := numericLens(t, ColVolume)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	add := func(name string, vals []float64) error {
		return out.Append(models.NewNumericColumn(name, vals))
	}

	ema12 := ema(cls, 12)
	ema26 := ema(cls, 26)
	macd := sub(ema12, ema26)
	signal := ema(macd, 9)

	cols := []struct {
		name string
		vals []float64
	}{
		{"SMA_20", rollingMean(cls, 20)},
		{"SMA_50", rollingMean(cls, 50)},
		{"SMA_200", rollingMean(cls, 200)},
		{"EMA_12", ema12},
		{"EMA_26", ema26},
		{"MACD", macd},
		{"MACD_Signal", signal},
		{"MACD_Histogram", sub(macd, signal)},
		{"RSI", rsi(cls, 14)},
	}
	for _, c := range cols {
		if err := add(c.name, c.vals); err != nil {
			return nil, err
		}
	}

	bbMid := rollingMean(cls, 20)
	bbStd := rollingStd(cls, 20)
	bbUpper := make([]float64, len(cls))
	bbLower := make([]float64, len(cls))
	for i := range cls {
		bbUpper[i] = bbMid[i] + 2*bbStd[i]
		bbLower[i] = bbMid[i] - 2*bbStd[i]
	}

	volSMA := rollingMean(vol, 20)
	volRatio := make([]float64, len(vol))
	for i := range vol {
		if math.IsNaN(volSMA[i]) || volSMA[i] == 0 {
			volRatio[i] = math.NaN()
			continue
		}
		volRatio[i] = vol[i] / volSMA[i]
	}

	dailyRet := pctChange(cls)
	priceChange := diff(cls)
	priceChangePct := make([]float64, len(cls))
	hlSpread := make([]float64, len(cls))
	hlSpreadPct := make([]float64, len(cls))
	for i := range cls {
		if open[i] == 0 {
			priceChangePct[i] = math.NaN()
		} else {
			priceChangePct[i] = (cls[i] - open[i]) / open[i] * 100
		}
		hlSpread[i] = high[i] - low[i]
		if cls[i] == 0 {
			hlSpreadPct[i] = math.NaN()
		} else {
			hlSpreadPct[i] = hlSpread[i] / cls[i] * 100
		}
	}

	rest := []struct {
		name string
		vals []float64
	}{
		{"BB_Middle", bbMid},
		{"BB_Upper", bbUpper},
		{"BB_Lower", bbLower},
		{"Volume_SMA", volSMA},
		{"Volume_Ratio", volRatio},
		{"Daily_Return", dailyRet},
		{"Price_Change", priceChange},
		{"Price_Change_Pct", priceChangePct},
		{"Volatility", rollingStd(dailyRet, 20)},
		{"HL_Spread", hlSpread},
		{"HL_Spread_Pct", hlSpreadPct},
	}
	for _, c := range rest {
		if err := add(c.name, c.vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// numericLens extracts a numeric column as a dense slice with NaN nulls.
func numericLens(t *models.Table, name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	if c.Kind != models.KindNumeric {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	out := make([]float64, c.Len())
	for i, v := range c.Nums {
		if c.Null[i] {
			out[i] = math.NaN()
		} else {
			out[i] = v
		}
	}
	return out, nil
}

// rollingMean computes a trailing mean; the first window-1 cells are NaN.
func rollingMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		out[i] = math.NaN()
		if i+1 < window {
			continue
		}
		sum, ok := 0.0, true
		for j := i + 1 - window; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				ok = false
				break
			}
			sum += vals[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd computes a trailing sample standard deviation (n-1 divisor).
func rollingStd(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		out[i] = math.NaN()
		if i+1 < window || window < 2 {
			continue
		}
		sum, ok := 0.0, true
		for j := i + 1 - window; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				ok = false
				break
			}
			sum += vals[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i + 1 - window; j <= i; j++ {
			d := vals[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// ema computes a span-parameterized exponential moving average with the
// weighting every charting library uses for a growing window (each value
// y_t is the weighted mean of all observations up to t).
func ema(vals []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1)
	out := make([]float64, len(vals))
	num, den := 0.0, 0.0
	started := false
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		if !started {
			num, den = v, 1
			started = true
		} else {
			num = v + (1-alpha)*num
			den = 1 + (1-alpha)*den
		}
		out[i] = num / den
	}
	return out
}

// diff returns vals[i]-vals[i-1] with a NaN leading cell.
func diff(vals []float64) []float64 {
	out := make([]float64, len(vals))
	out[0] = math.NaN()
	for i := 1; i < len(vals); i++ {
		out[i] = vals[i] - vals[i-1]
	}
	return out
}

// pctChange returns the one-step relative change with a NaN leading cell.
func pctChange(vals []float64) []float64 {
	out := make([]float64, len(vals))
	out[0] = math.NaN()
	for i := 1; i < len(vals); i++ {
		if vals[i-1] == 0 || math.IsNaN(vals[i-1]) || math.IsNaN(vals[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (vals[i] - vals[i-1]) / vals[i-1]
	}
	return out
}

// sub returns a-b elementwise, NaN-propagating.
func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// rsi computes the 14-style relative strength index over rolling mean gains
// and losses.
func rsi(cls []float64, window int) []float64 {
	deltas := diff(cls)
	gains := make([]float64, len(deltas))
	losses := make([]float64, len(deltas))
	for i, d := range deltas {
		if math.IsNaN(d) {
			gains[i], losses[i] = math.NaN(), math.NaN()
			continue
		}
		if d > 0 {
			gains[i] = d
		}
		if d < 0 {
			losses[i] = -d
		}
	}
	avgGain := rollingMean(gains, window)
	avgLoss := rollingMean(losses, window)
	out := make([]float64, len(cls))
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
			out[i] = math.NaN()
		case l == 0 && g == 0:
			out[i] = math.NaN()
		case l == 0:
			out[i] = 100
		default:
			rs := g / l
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}
