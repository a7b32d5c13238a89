package features

import (
	"fmt"

	"QuantForge/internal/domain/models"
)

// DatasetParams controls how a model-ready table is assembled from raw bars.
type DatasetParams struct {
	TaskType       models.TaskType
	Classification ClassificationMethod
	Regression     RegressionKind
	Periods        int
	WithIndicators bool
}

func (p *DatasetParams) withDefaults() {
	if p.TaskType == "" {
		p.TaskType = models.TaskClassification
	}
	if p.Classification == "" {
		p.Classification = TargetPriceDirection
	}
	if p.Regression == "" {
		p.Regression = TargetNextClose
	}
	if p.Periods == 0 {
		p.Periods = 1
	}
}

// BuildDataset turns a bar history into an all-numeric training table:
// indicators, a Target column, calendar features from the date column, and
// no nulls. The output is ready for the preprocessing pipeline.
func BuildDataset(bars []models.PriceBar, params DatasetParams) (*models.Table, error) {
	params.withDefaults()
	if !params.TaskType.Valid() {
		return nil, fmt.Errorf("unknown task type %q", params.TaskType)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price bars to build a dataset from")
	}

	t, err := FromBars(bars)
	if err != nil {
		return nil, err
	}
	if params.WithIndicators {
		t, err = AddIndicators(t)
		if err != nil {
			return nil, err
		}
	}

	if params.TaskType == models.TaskClassification {
		t, err = ClassificationTarget(t, params.Classification, params.Periods)
	} else {
		t, err = RegressionTarget(t, params.Regression, params.Periods)
	}
	if err != nil {
		return nil, err
	}

	t, err = addCalendarFeatures(t)
	if err != nil {
		return nil, err
	}

	drop := make([]string, 0, 4)
	for _, c := range t.Cols {
		switch c.Kind {
		case models.KindTime:
			drop = append(drop, c.Name)
		case models.KindCategorical:
			if c.Name != ColTarget {
				drop = append(drop, c.Name)
			}
		}
	}
	t = t.Drop(drop...)

	t = t.DropNullRows()
	if t.NumRows() == 0 {
		return nil, fmt.Errorf("dataset is empty after indicator warm-up; need a longer history")
	}
	return t, nil
}

// addCalendarFeatures derives Year, Month, DayOfWeek and Quarter from each
// time column. Rows with a null date leave the derived cells null.
func addCalendarFeatures(t *models.Table) (*models.Table, error) {
	out := t.Clone()
	for _, c := range t.Cols {
		if c.Kind != models.KindTime {
			continue
		}
		n := c.Len()
		year := nanSlice(n)
		month := nanSlice(n)
		dow := nanSlice(n)
		quarter := nanSlice(n)
		for i := 0; i < n; i++ {
			if c.Null[i] {
				continue
			}
			ts := c.Times[i]
			year[i] = float64(ts.Year())
			month[i] = float64(ts.Month())
			// Monday=0 .. Sunday=6
			dow[i] = float64((int(ts.Weekday()) + 6) % 7)
			quarter[i] = float64((int(ts.Month())-1)/3 + 1)
		}
		for _, col := range []*models.Column{
			models.NewNumericColumn("Year", year),
			models.NewNumericColumn("Month", month),
			models.NewNumericColumn("DayOfWeek", dow),
			models.NewNumericColumn("Quarter", quarter),
		} {
			if err := out.Append(col); err != nil {
				return nil, fmt.Errorf("calendar feature %s: %w", col.Name, err)
			}
		}
	}
	return out, nil
}
