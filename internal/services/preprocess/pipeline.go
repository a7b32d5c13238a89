package preprocess

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"QuantForge/internal/domain/models"
)

// PipelineParams configures a full preprocessing run. Zero values fall back
// to the documented defaults.
type PipelineParams struct {
	TargetColumn    string          `json:"target_column"`
	TestSize        float64         `json:"test_size"`
	MissingStrategy Strategy        `json:"missing_strategy"`
	EncodingMethod  EncodeMethod    `json:"encoding_method"`
	ScalingMethod   ScaleMethod     `json:"scaling_method"`
	SelectK         int             `json:"select_k"`
	TaskType        models.TaskType `json:"task_type"`
	Seed            int64           `json:"seed"`
}

const defaultSeed = 42

func (p PipelineParams) withDefaults() PipelineParams {
	if p.TestSize <= 0 || p.TestSize >= 1 {
		p.TestSize = 0.2
	}
	if p.MissingStrategy == "" {
		p.MissingStrategy = StrategyMean
	}
	if p.EncodingMethod == "" {
		p.EncodingMethod = EncodeLabel
	}
	if p.ScalingMethod == "" {
		p.ScalingMethod = ScaleStandard
	}
	if p.TaskType == "" {
		p.TaskType = models.TaskClassification
	}
	if p.Seed == 0 {
		p.Seed = defaultSeed
	}
	return p
}

// Split is the output of a pipeline run: ready-to-train features and labels.
type Split struct {
	TrainX       *models.Table
	TestX        *models.Table
	TrainY       []float64
	TestY        []float64
	FeatureNames []string
}

// Run executes impute -> encode categoricals -> encode target -> scale ->
// optional select-k -> seeded train/test split. The split is stratified for
// classification and deterministic for a given seed, input and fraction.
// Time columns carry no trainable signal after feature extraction and are
// dropped so the feature table ends up all numeric.
func (p *Preprocessor) Run(t *models.Table, params PipelineParams) (*Split, error) {
	params = params.withDefaults()
	if !params.TaskType.Valid() {
		return nil, fmt.Errorf("unknown task type %q", params.TaskType)
	}
	if params.TargetColumn == "" {
		return nil, fmt.Errorf("no target column selected")
	}
	targetCol, ok := t.Column(params.TargetColumn)
	if !ok {
		return nil, fmt.Errorf("target column %q not found", params.TargetColumn)
	}
	if targetCol.NullCount() > 0 {
		return nil, fmt.Errorf("target column %q contains %d null rows", params.TargetColumn, targetCol.NullCount())
	}

	x := t.Drop(params.TargetColumn)
	if tc := timeNames(x); len(tc) > 0 {
		x = x.Drop(tc...)
	}

	x, err := Impute(x, params.MissingStrategy, nil)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}

	if cats := categoricalNames(x); len(cats) > 0 {
		x, err = p.Encode(x, cats, params.EncodingMethod)
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
	}

	y, err := p.encodeTarget(targetCol, params.TaskType)
	if err != nil {
		return nil, err
	}

	if nums := numericNames(x); len(nums) > 0 {
		x, err = p.Scale(x, nums, params.ScalingMethod)
		if err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
	}

	if params.SelectK > 0 {
		x, err = p.SelectTopK(x, y, params.SelectK, params.TaskType)
		if err != nil {
			return nil, fmt.Errorf("select features: %w", err)
		}
	}

	trainIdx, testIdx := splitIndices(len(y), y, params)

	split := &Split{
		TrainX:       takeRows(x, trainIdx),
		TestX:        takeRows(x, testIdx),
		TrainY:       takeVals(y, trainIdx),
		TestY:        takeVals(y, testIdx),
		FeatureNames: x.Names(),
	}
	p.params = params
	p.hasParams = true
	return split, nil
}

// encodeTarget turns the target column into float labels, fitting a label
// encoder for non-numeric classification targets on first use.
func (p *Preprocessor) encodeTarget(c *models.Column, task models.TaskType) ([]float64, error) {
	switch c.Kind {
	case models.KindNumeric:
		return append([]float64(nil), c.Nums...), nil
	case models.KindCategorical:
		if task != models.TaskClassification {
			return nil, fmt.Errorf("target column %q is categorical; regression needs a numeric target", c.Name)
		}
		if p.target == nil {
			p.target = FitLabelEncoder(c.Cats)
		}
		y, err := p.target.Apply(c.Cats)
		if err != nil {
			return nil, fmt.Errorf("encode target: %w", err)
		}
		return y, nil
	default:
		return nil, fmt.Errorf("target column %q has unsupported kind %s", c.Name, c.Kind)
	}
}

// splitIndices assigns row indices to train/test deterministically from the
// seed. Classification splits are stratified per class so label balance is
// preserved.
func splitIndices(n int, y []float64, params PipelineParams) (train, test []int) {
	rng := rand.New(rand.NewSource(params.Seed))
	if params.TaskType == models.TaskClassification {
		groups := make(map[float64][]int)
		var labels []float64
		for i, label := range y {
			if _, ok := groups[label]; !ok {
				labels = append(labels, label)
			}
			groups[label] = append(groups[label], i)
		}
		sort.Float64s(labels)
		for _, label := range labels {
			idx := groups[label]
			rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
			cut := int(math.Round(float64(len(idx)) * params.TestSize))
			test = append(test, idx[:cut]...)
			train = append(train, idx[cut:]...)
		}
	} else {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		cut := int(math.Ceil(float64(n) * params.TestSize))
		test = append(test, idx[:cut]...)
		train = append(train, idx[cut:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func takeRows(t *models.Table, idx []int) *models.Table {
	keep := make([]bool, t.NumRows())
	for _, i := range idx {
		keep[i] = true
	}
	return t.FilterRows(keep)
}

func takeVals(y []float64, idx []int) []float64 {
	out := make([]float64, 0, len(idx))
	for _, i := range idx {
		out = append(out, y[i])
	}
	return out
}
