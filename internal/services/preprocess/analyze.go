package preprocess

import "QuantForge/internal/domain/models"

// ColumnSummary describes one column of an analyzed table.
type ColumnSummary struct {
	Name        string            `json:"name"`
	Kind        models.ColumnKind `json:"kind"`
	NullCount   int               `json:"null_count"`
	NullPercent float64           `json:"null_percent"`
	Unique      int               `json:"unique"`
}

// Summary is the result of analyzing a raw table. Pure read, no side effects.
type Summary struct {
	Rows               int             `json:"rows"`
	Cols               int             `json:"cols"`
	Columns            []ColumnSummary `json:"columns"`
	NumericColumns     []string        `json:"numeric_columns"`
	CategoricalColumns []string        `json:"categorical_columns"`
	TimeColumns        []string        `json:"time_columns"`
}

// Analyze reports shape, per-column kind, null counts and cardinality.
func Analyze(t *models.Table) Summary {
	s := Summary{
		Rows:               t.NumRows(),
		Cols:               t.NumCols(),
		NumericColumns:     numericNames(t),
		CategoricalColumns: categoricalNames(t),
		TimeColumns:        timeNames(t),
	}
	for _, c := range t.Cols {
		nulls := c.NullCount()
		pct := 0.0
		if s.Rows > 0 {
			pct = float64(nulls) / float64(s.Rows) * 100
		}
		s.Columns = append(s.Columns, ColumnSummary{
			Name:        c.Name,
			Kind:        c.Kind,
			NullCount:   nulls,
			NullPercent: pct,
			Unique:      c.Unique(),
		})
	}
	return s
}
