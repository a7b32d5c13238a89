package preprocess

import (
	"fmt"
	"sort"

	"QuantForge/internal/domain/models"
)

// EncodeMethod selects the categorical encoding scheme.
type EncodeMethod string

const (
	EncodeLabel  EncodeMethod = "label"
	EncodeOneHot EncodeMethod = "onehot"
)

// LabelEncoder maps category strings to integer codes. Classes are sorted
// lexicographically at fit time so codes are stable across runs.
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// FitLabelEncoder fits an encoder on the given values. Null cells must have
// been imputed already; any remaining empty value is treated as the
// UnknownCategory sentinel.
func FitLabelEncoder(vals []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v == "" {
			v = UnknownCategory
		}
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	idx := make(map[string]int, len(classes))
	for i, v := range classes {
		idx[v] = i
	}
	return &LabelEncoder{Classes: classes, index: idx}
}

// Apply encodes values with the fitted classes. A value not seen at fit
// time is a user-input error, not a new class.
func (e *LabelEncoder) Apply(vals []string) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if v == "" {
			v = UnknownCategory
		}
		code, ok := e.index[v]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", v)
		}
		out[i] = float64(code)
	}
	return out, nil
}

// Inverse maps integer codes back to category strings.
func (e *LabelEncoder) Inverse(codes []float64) ([]string, error) {
	out := make([]string, len(codes))
	for i, code := range codes {
		j := int(code)
		if j < 0 || j >= len(e.Classes) {
			return nil, fmt.Errorf("code %v out of range", code)
		}
		out[i] = e.Classes[j]
	}
	return out, nil
}

// OneHotEncoder expands one categorical column into 0/1 indicator columns
// named column_category, dropping the original. Categories are fixed at fit
// time; an unseen category maps to all zeros.
type OneHotEncoder struct {
	Column     string
	Categories []string
}

// FitOneHot fits the encoder on a categorical column.
func FitOneHot(c *models.Column) *OneHotEncoder {
	seen := make(map[string]struct{})
	for i, v := range c.Cats {
		if c.Null[i] {
			v = UnknownCategory
		}
		seen[v] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for v := range seen {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return &OneHotEncoder{Column: c.Name, Categories: cats}
}

// Apply replaces the encoder's column with its indicator columns, keeping
// the table's column order otherwise intact.
func (e *OneHotEncoder) Apply(t *models.Table) (*models.Table, error) {
	src, ok := t.Column(e.Column)
	if !ok {
		return nil, fmt.Errorf("column %q not found", e.Column)
	}
	if src.Kind != models.KindCategorical {
		return nil, fmt.Errorf("column %q is not categorical", e.Column)
	}
	out := &models.Table{}
	for _, c := range t.Cols {
		if c.Name != e.Column {
			out.Cols = append(out.Cols, c.Clone())
			continue
		}
		for _, cat := range e.Categories {
			vals := make([]float64, src.Len())
			for i, v := range src.Cats {
				if src.Null[i] {
					v = UnknownCategory
				}
				if v == cat {
					vals[i] = 1
				}
			}
			out.Cols = append(out.Cols, models.NewNumericColumn(e.Column+"_"+cat, vals))
		}
	}
	return out, nil
}

// Encode converts the named categorical columns (all of them when names is
// nil) to numeric form. Encoders are fitted on first call per column and
// reused afterwards.
func (p *Preprocessor) Encode(t *models.Table, names []string, method EncodeMethod) (*models.Table, error) {
	if names == nil {
		names = categoricalNames(t)
	}
	out := t.Clone()
	for _, name := range names {
		c, ok := out.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		if c.Kind != models.KindCategorical {
			continue
		}
		switch method {
		case EncodeLabel:
			enc, fitted := p.encoders[name]
			if !fitted {
				enc = FitLabelEncoder(c.Cats)
				p.encoders[name] = enc
			}
			codes, err := enc.Apply(c.Cats)
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", name, err)
			}
			c.Kind = models.KindNumeric
			c.Nums = codes
			c.Cats = nil
			for i := range c.Null {
				c.Null[i] = false
			}
		case EncodeOneHot:
			enc, fitted := p.oneHots[name]
			if !fitted {
				enc = FitOneHot(c)
				p.oneHots[name] = enc
			}
			var err error
			out, err = enc.Apply(out)
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", name, err)
			}
		default:
			return nil, fmt.Errorf("unknown encode method %q", method)
		}
	}
	return out, nil
}
