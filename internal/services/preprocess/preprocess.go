// Package preprocess implements the tabular preprocessing pipeline:
// imputation, categorical encoding, scaling, univariate feature selection,
// and a deterministic train/test split. Transforms that carry fitted state
// (encoders, scaler, selector, target encoder) are fitted on first use and
// applied on every call after that, so training and inference see the same
// transformation.
package preprocess

import "QuantForge/internal/domain/models"

// Preprocessor owns the fitted transform state for one pipeline run.
// It is not safe for concurrent use; callers serialize access per session.
type Preprocessor struct {
	encoders map[string]*LabelEncoder
	oneHots  map[string]*OneHotEncoder
	scaler   *FittedScaler
	selector *FittedSelector
	target   *LabelEncoder

	params    PipelineParams
	hasParams bool
}

// New creates an unfitted preprocessor.
func New() *Preprocessor {
	return &Preprocessor{
		encoders: make(map[string]*LabelEncoder),
		oneHots:  make(map[string]*OneHotEncoder),
	}
}

// TargetEncoder returns the fitted target encoder, or nil when the target
// was numeric or the pipeline has not run.
func (p *Preprocessor) TargetEncoder() *LabelEncoder { return p.target }

// Params returns the parameters recorded by the last Run call.
func (p *Preprocessor) Params() PipelineParams { return p.params }

// categoricalNames lists categorical columns in table order.
func categoricalNames(t *models.Table) []string {
	var names []string
	for _, c := range t.Cols {
		if c.Kind == models.KindCategorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// numericNames lists numeric columns in table order.
func numericNames(t *models.Table) []string {
	var names []string
	for _, c := range t.Cols {
		if c.Kind == models.KindNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// timeNames lists time columns in table order.
func timeNames(t *models.Table) []string {
	var names []string
	for _, c := range t.Cols {
		if c.Kind == models.KindTime {
			names = append(names, c.Name)
		}
	}
	return names
}
