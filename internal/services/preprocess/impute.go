package preprocess

import (
	"fmt"
	"math"
	"sort"

	"QuantForge/internal/domain/models"
)

// Strategy selects the missing-value handling approach.
type Strategy string

const (
	StrategyMean   Strategy = "mean"
	StrategyMedian Strategy = "median"
	StrategyMode   Strategy = "mode"
	StrategyKNN    Strategy = "knn"
)

// UnknownCategory is the sentinel substituted for categorical nulls when the
// strategy has no categorical counterpart. This is the one sanctioned
// silent substitution in the pipeline.
const UnknownCategory = "Unknown"

const knnNeighbors = 5

// Impute fills missing values in the named columns (all columns when names
// is nil). Numeric columns use the requested strategy; categorical columns
// use mode when requested, otherwise the UnknownCategory sentinel. Columns
// without nulls are returned untouched; time columns are never imputed.
// Statistics are computed from the given table on every call.
func Impute(t *models.Table, strategy Strategy, names []string) (*models.Table, error) {
	switch strategy {
	case StrategyMean, StrategyMedian, StrategyMode, StrategyKNN:
	default:
		return nil, fmt.Errorf("unknown impute strategy %q", strategy)
	}
	if names == nil {
		names = t.Names()
	}
	out := t.Clone()
	for _, name := range names {
		c, ok := out.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		if c.NullCount() == 0 {
			continue
		}
		switch c.Kind {
		case models.KindNumeric:
			if err := imputeNumeric(out, c, strategy); err != nil {
				return nil, err
			}
		case models.KindCategorical:
			imputeCategorical(c, strategy)
		}
	}
	return out, nil
}

func imputeNumeric(t *models.Table, c *models.Column, strategy Strategy) error {
	var fill func(row int) (float64, bool)
	switch strategy {
	case StrategyMean:
		v, ok := columnMean(c)
		fill = func(int) (float64, bool) { return v, ok }
	case StrategyMedian:
		v, ok := columnMedian(c)
		fill = func(int) (float64, bool) { return v, ok }
	case StrategyMode:
		v, ok := columnModeNumeric(c)
		fill = func(int) (float64, bool) { return v, ok }
	case StrategyKNN:
		mean, meanOK := columnMean(c)
		fill = func(row int) (float64, bool) {
			if v, ok := knnEstimate(t, c, row); ok {
				return v, true
			}
			return mean, meanOK
		}
	}
	for i := range c.Nums {
		if !c.Null[i] {
			continue
		}
		v, ok := fill(i)
		if !ok {
			return fmt.Errorf("column %q has no values to impute from", c.Name)
		}
		c.Nums[i] = v
		c.Null[i] = false
	}
	return nil
}

func imputeCategorical(c *models.Column, strategy Strategy) {
	fill := UnknownCategory
	if strategy == StrategyMode {
		if v, ok := columnModeCategorical(c); ok {
			fill = v
		}
	}
	for i := range c.Cats {
		if c.Null[i] {
			c.Cats[i] = fill
			c.Null[i] = false
		}
	}
}

func columnMean(c *models.Column) (float64, bool) {
	sum, n := 0.0, 0
	for i, v := range c.Nums {
		if !c.Null[i] {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func columnMedian(c *models.Column) (float64, bool) {
	var vals []float64
	for i, v := range c.Nums {
		if !c.Null[i] {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}

// columnModeNumeric returns the most frequent value; ties resolve to the
// smallest value so results are deterministic.
func columnModeNumeric(c *models.Column) (float64, bool) {
	counts := make(map[float64]int)
	for i, v := range c.Nums {
		if !c.Null[i] {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return 0, false
	}
	best, bestCount := math.Inf(1), 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, true
}

// columnModeCategorical returns the most frequent value; ties resolve to the
// lexicographically smallest value.
func columnModeCategorical(c *models.Column) (string, bool) {
	counts := make(map[string]int)
	for i, v := range c.Cats {
		if !c.Null[i] {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, true
}

// knnEstimate fills one missing cell with the average of the cell's column
// value over the k nearest rows. Distance is squared euclidean over the
// numeric columns where both rows are non-null, rescaled by the fraction of
// usable columns (nan-euclidean convention).
func knnEstimate(t *models.Table, target *models.Column, row int) (float64, bool) {
	var features []*models.Column
	for _, c := range t.Cols {
		if c.Kind == models.KindNumeric && c.Name != target.Name {
			features = append(features, c)
		}
	}
	if len(features) == 0 {
		return 0, false
	}

	type candidate struct {
		dist float64
		val  float64
	}
	var cands []candidate
	for s := 0; s < target.Len(); s++ {
		if s == row || target.Null[s] {
			continue
		}
		sum, shared := 0.0, 0
		for _, f := range features {
			if f.Null[row] || f.Null[s] {
				continue
			}
			d := f.Nums[row] - f.Nums[s]
			sum += d * d
			shared++
		}
		if shared == 0 {
			continue
		}
		dist := sum * float64(len(features)) / float64(shared)
		cands = append(cands, candidate{dist: dist, val: target.Nums[s]})
	}
	if len(cands) == 0 {
		return 0, false
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	k := knnNeighbors
	if k > len(cands) {
		k = len(cands)
	}
	sum := 0.0
	for _, c := range cands[:k] {
		sum += c.val
	}
	return sum / float64(k), true
}
