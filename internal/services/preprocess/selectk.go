package preprocess

import (
	"fmt"
	"math"
	"sort"

	"QuantForge/internal/domain/models"
)

// FittedSelector holds the columns kept by univariate feature selection, in
// their original table order, plus the per-column scores.
type FittedSelector struct {
	Kept   []string
	Scores map[string]float64
}

// FitSelector scores each numeric feature column against the target and
// keeps the k best. Classification uses the one-way ANOVA F statistic over
// target classes; regression uses the F statistic of the univariate linear
// fit. Requesting more columns than exist is a configuration error, never
// clamped.
func FitSelector(x *models.Table, y []float64, k int, task models.TaskType) (*FittedSelector, error) {
	if k <= 0 {
		return nil, fmt.Errorf("select k must be positive, got %d", k)
	}
	if k > x.NumCols() {
		return nil, fmt.Errorf("select k=%d exceeds available columns (%d)", k, x.NumCols())
	}
	if x.NumRows() != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and target length (%d) differ", x.NumRows(), len(y))
	}

	scores := make(map[string]float64, x.NumCols())
	for _, c := range x.Cols {
		if c.Kind != models.KindNumeric {
			return nil, fmt.Errorf("column %q is not numeric; encode before selecting", c.Name)
		}
		var f float64
		if task == models.TaskClassification {
			f = anovaF(c.Nums, y)
		} else {
			f = regressionF(c.Nums, y)
		}
		scores[c.Name] = f
	}

	names := x.Names()
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[names[order[a]]] > scores[names[order[b]]]
	})
	chosen := make(map[string]struct{}, k)
	for _, i := range order[:k] {
		chosen[names[i]] = struct{}{}
	}
	// keep original column order in the output
	sel := &FittedSelector{Scores: scores}
	for _, n := range names {
		if _, ok := chosen[n]; ok {
			sel.Kept = append(sel.Kept, n)
		}
	}
	return sel, nil
}

// Apply projects a table onto the kept columns.
func (s *FittedSelector) Apply(t *models.Table) (*models.Table, error) {
	out, err := t.Select(s.Kept)
	if err != nil {
		return nil, fmt.Errorf("apply selector: %w", err)
	}
	return out, nil
}

// SelectTopK reduces the feature table to the k best-scoring columns.
// The selector is fitted once; later calls apply the fitted column set.
func (p *Preprocessor) SelectTopK(x *models.Table, y []float64, k int, task models.TaskType) (*models.Table, error) {
	if p.selector == nil {
		sel, err := FitSelector(x, y, k, task)
		if err != nil {
			return nil, err
		}
		p.selector = sel
	}
	return p.selector.Apply(x)
}

// anovaF computes the one-way ANOVA F statistic of x grouped by the class
// labels in y. Zero within-group variance yields +Inf, ranking the column
// first.
func anovaF(x, y []float64) float64 {
	groups := make(map[float64][]float64)
	for i, label := range y {
		groups[label] = append(groups[label], x[i])
	}
	g := len(groups)
	n := len(x)
	if g < 2 || n <= g {
		return 0
	}
	grand := mean(x)
	ssb, ssw := 0.0, 0.0
	for _, vals := range groups {
		m := mean(vals)
		d := m - grand
		ssb += float64(len(vals)) * d * d
		for _, v := range vals {
			e := v - m
			ssw += e * e
		}
	}
	if ssw == 0 {
		if ssb == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (ssb / float64(g-1)) / (ssw / float64(n-g))
}

// regressionF converts the squared Pearson correlation of x and y into the
// univariate regression F statistic with n-2 degrees of freedom.
func regressionF(x, y []float64) float64 {
	n := len(x)
	if n < 3 {
		return 0
	}
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r2 := (sxy * sxy) / (sxx * syy)
	if r2 >= 1 {
		return math.Inf(1)
	}
	return r2 / (1 - r2) * float64(n-2)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
