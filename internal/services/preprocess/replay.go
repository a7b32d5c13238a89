package preprocess

import (
	"fmt"

	"QuantForge/internal/domain/models"
)

// Replay transforms raw, unseen data exactly the way the fitted pipeline
// transformed the training data: impute -> apply fitted encoders -> apply
// fitted scaler -> reindex to featureNames. Steps without fitted state pass
// the data through unchanged; that is the documented behavior of replaying
// before a pipeline run, not an error. The fitted feature selector is
// honored by the final reindex, which also zero-fills any structurally
// missing column and drops columns the training set never had.
func (p *Preprocessor) Replay(t *models.Table, featureNames []string) (*models.Table, error) {
	strategy := StrategyMean
	if p.hasParams {
		strategy = p.params.MissingStrategy
	}
	out, err := Impute(t, strategy, nil)
	if err != nil {
		return nil, fmt.Errorf("replay impute: %w", err)
	}
	if tc := timeNames(out); len(tc) > 0 {
		out = out.Drop(tc...)
	}

	for _, name := range categoricalNames(out) {
		if enc, ok := p.encoders[name]; ok {
			c, _ := out.Column(name)
			codes, err := enc.Apply(c.Cats)
			if err != nil {
				return nil, fmt.Errorf("replay encode %q: %w", name, err)
			}
			c.Kind = models.KindNumeric
			c.Nums = codes
			c.Cats = nil
			continue
		}
		if enc, ok := p.oneHots[name]; ok {
			out, err = enc.Apply(out)
			if err != nil {
				return nil, fmt.Errorf("replay encode %q: %w", name, err)
			}
		}
	}

	if p.scaler != nil {
		out, err = p.scaler.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("replay scale: %w", err)
		}
	}

	return Reindex(out, featureNames), nil
}

// Reindex returns a table with exactly the named columns in order. A name
// missing from the input becomes an all-zero numeric column; extra input
// columns are dropped.
func Reindex(t *models.Table, names []string) *models.Table {
	rows := t.NumRows()
	out := &models.Table{}
	for _, name := range names {
		if c, ok := t.Column(name); ok {
			out.Cols = append(out.Cols, c.Clone())
			continue
		}
		out.Cols = append(out.Cols, models.NewNumericColumn(name, make([]float64, rows)))
	}
	return out
}
