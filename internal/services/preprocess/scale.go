package preprocess

import (
	"fmt"
	"math"

	"QuantForge/internal/domain/models"
)

// ScaleMethod selects the numeric rescaling scheme.
type ScaleMethod string

const (
	ScaleStandard ScaleMethod = "standard"
	ScaleMinMax   ScaleMethod = "minmax"
)

// FittedScaler holds per-column centering and scale parameters.
// Center/Scale are mean/std for standard scaling and min/range for min-max.
// A zero spread fits Scale=1 so constant columns map to 0.
type FittedScaler struct {
	Method  ScaleMethod
	Columns []string
	Center  []float64
	Scale   []float64
}

// FitScaler computes scaling parameters from the named numeric columns.
func FitScaler(t *models.Table, names []string, method ScaleMethod) (*FittedScaler, error) {
	if method != ScaleStandard && method != ScaleMinMax {
		return nil, fmt.Errorf("unknown scale method %q", method)
	}
	s := &FittedScaler{Method: method, Columns: append([]string(nil), names...)}
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		if c.Kind != models.KindNumeric {
			return nil, fmt.Errorf("column %q is not numeric", name)
		}
		center, scale, err := fitColumn(c, method)
		if err != nil {
			return nil, err
		}
		s.Center = append(s.Center, center)
		s.Scale = append(s.Scale, scale)
	}
	return s, nil
}

func fitColumn(c *models.Column, method ScaleMethod) (center, scale float64, err error) {
	sum, n := 0.0, 0
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i, v := range c.Nums {
		if c.Null[i] {
			continue
		}
		sum += v
		n++
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("column %q has no values to fit scaler on", c.Name)
	}
	mean := sum / float64(n)
	switch method {
	case ScaleStandard:
		ss := 0.0
		for i, v := range c.Nums {
			if c.Null[i] {
				continue
			}
			d := v - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(n))
		if std == 0 {
			std = 1
		}
		return mean, std, nil
	default: // min-max
		spread := maxV - minV
		if spread == 0 {
			spread = 1
		}
		return minV, spread, nil
	}
}

// Apply rescales the fitted columns in place on a copy of the table.
// Every fitted column must be present.
func (s *FittedScaler) Apply(t *models.Table) (*models.Table, error) {
	out := t.Clone()
	for j, name := range s.Columns {
		c, ok := out.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		for i, v := range c.Nums {
			if c.Null[i] {
				continue
			}
			c.Nums[i] = (v - s.Center[j]) / s.Scale[j]
		}
	}
	return out, nil
}

// Scale rescales the named numeric columns (all of them when names is nil).
// The scaler is fitted on the first call; later calls apply the fitted
// parameters regardless of the columns or method passed.
func (p *Preprocessor) Scale(t *models.Table, names []string, method ScaleMethod) (*models.Table, error) {
	if p.scaler == nil {
		if names == nil {
			names = numericNames(t)
		}
		s, err := FitScaler(t, names, method)
		if err != nil {
			return nil, err
		}
		p.scaler = s
	}
	return p.scaler.Apply(t)
}
