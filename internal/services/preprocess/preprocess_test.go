package preprocess

import (
	"math"
	"strings"
	"testing"

	"QuantForge/internal/domain/models"
)

func numCol(name string, vals []float64, null []bool) *models.Column {
	if null == nil {
		null = make([]bool, len(vals))
	}
	return &models.Column{Name: name, Kind: models.KindNumeric, Nums: vals, Null: null}
}

func catCol(name string, vals []string, null []bool) *models.Column {
	if null == nil {
		null = make([]bool, len(vals))
	}
	return &models.Column{Name: name, Kind: models.KindCategorical, Cats: vals, Null: null}
}

func TestImputeMeanFillsOnlyNulls(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(numCol("a", []float64{8, 0, 12}, []bool{false, true, false})); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tbl.Append(numCol("b", []float64{1, 2, 3}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}

	out, err := Impute(tbl, StrategyMean, nil)
	if err != nil {
		t.Fatalf("impute: %v", err)
	}
	a, _ := out.Column("a")
	if a.Nums[1] != 10 {
		t.Fatalf("expected mean 10, got %v", a.Nums[1])
	}
	if a.Null[1] {
		t.Fatalf("null flag not cleared")
	}
	if a.Nums[0] != 8 || a.Nums[2] != 12 {
		t.Fatalf("non-null cells changed: %v", a.Nums)
	}
	b, _ := out.Column("b")
	if b.Nums[0] != 1 || b.Nums[1] != 2 || b.Nums[2] != 3 {
		t.Fatalf("null-free column changed: %v", b.Nums)
	}
	// input stays untouched
	orig, _ := tbl.Column("a")
	if !orig.Null[1] {
		t.Fatalf("input table mutated")
	}
}

func TestImputeModeTieTakesSmallest(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(numCol("a", []float64{2, 1, 2, 1, 0}, []bool{false, false, false, false, true})); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := Impute(tbl, StrategyMode, nil)
	if err != nil {
		t.Fatalf("impute: %v", err)
	}
	a, _ := out.Column("a")
	if a.Nums[4] != 1 {
		t.Fatalf("expected tie to resolve to 1, got %v", a.Nums[4])
	}
}

func TestImputeCategoricalSentinel(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(catCol("c", []string{"x", "", "y"}, []bool{false, true, false})); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := Impute(tbl, StrategyMean, nil)
	if err != nil {
		t.Fatalf("impute: %v", err)
	}
	c, _ := out.Column("c")
	if c.Cats[1] != UnknownCategory {
		t.Fatalf("expected sentinel, got %q", c.Cats[1])
	}

	out, err = Impute(tbl, StrategyMode, nil)
	if err != nil {
		t.Fatalf("impute: %v", err)
	}
	c, _ = out.Column("c")
	if c.Cats[1] != "x" {
		t.Fatalf("expected mode %q, got %q", "x", c.Cats[1])
	}
}

func TestImputeUnknownStrategy(t *testing.T) {
	tbl := &models.Table{}
	if _, err := Impute(tbl, Strategy("drop"), nil); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestLabelEncoderStableCodes(t *testing.T) {
	enc := FitLabelEncoder([]string{"up", "down", "flat", "up"})
	codes, err := enc.Apply([]string{"down", "flat", "up"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// lexicographic: down=0 flat=1 up=2
	if codes[0] != 0 || codes[1] != 1 || codes[2] != 2 {
		t.Fatalf("unexpected codes %v", codes)
	}
	if _, err := enc.Apply([]string{"sideways"}); err == nil {
		t.Fatalf("expected error for unseen category")
	}
	back, err := enc.Inverse(codes)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	if back[2] != "up" {
		t.Fatalf("inverse mismatch: %v", back)
	}
}

func TestOneHotExpandsColumn(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(catCol("sector", []string{"tech", "energy", "tech"}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	p := New()
	out, err := p.Encode(tbl, nil, EncodeOneHot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	names := out.Names()
	if len(names) != 2 || names[0] != "sector_energy" || names[1] != "sector_tech" {
		t.Fatalf("unexpected columns %v", names)
	}
	c, _ := out.Column("sector_tech")
	if c.Nums[0] != 1 || c.Nums[1] != 0 || c.Nums[2] != 1 {
		t.Fatalf("unexpected indicators %v", c.Nums)
	}
}

func TestScalerStandardPopulationStd(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(numCol("a", []float64{1, 2, 3, 4}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	s, err := FitScaler(tbl, []string{"a"}, ScaleStandard)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if s.Center[0] != 2.5 {
		t.Fatalf("expected mean 2.5, got %v", s.Center[0])
	}
	want := math.Sqrt(1.25)
	if math.Abs(s.Scale[0]-want) > 1e-12 {
		t.Fatalf("expected population std %v, got %v", want, s.Scale[0])
	}
}

func TestScalerConstantColumnMapsToZero(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(numCol("a", []float64{5, 5, 5}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	for _, method := range []ScaleMethod{ScaleStandard, ScaleMinMax} {
		s, err := FitScaler(tbl, []string{"a"}, method)
		if err != nil {
			t.Fatalf("fit %s: %v", method, err)
		}
		if s.Scale[0] != 1 {
			t.Fatalf("%s: expected scale 1 for constant column, got %v", method, s.Scale[0])
		}
		out, err := s.Apply(tbl)
		if err != nil {
			t.Fatalf("apply %s: %v", method, err)
		}
		c, _ := out.Column("a")
		if c.Nums[0] != 0 || c.Nums[2] != 0 {
			t.Fatalf("%s: expected zeros, got %v", method, c.Nums)
		}
	}
}

func TestScaleFitsOnce(t *testing.T) {
	fit := &models.Table{}
	if err := fit.Append(numCol("a", []float64{0, 10}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	apply := &models.Table{}
	if err := apply.Append(numCol("a", []float64{0, 100}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}

	p := New()
	if _, err := p.Scale(fit, nil, ScaleMinMax); err != nil {
		t.Fatalf("first scale: %v", err)
	}
	// second call must apply the first fit, method argument included
	out, err := p.Scale(apply, nil, ScaleStandard)
	if err != nil {
		t.Fatalf("second scale: %v", err)
	}
	c, _ := out.Column("a")
	if c.Nums[1] != 10 {
		t.Fatalf("expected (100-0)/10 = 10 from the first fit, got %v", c.Nums[1])
	}
}

func TestSelectTopKRejectsOversizedK(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(numCol("a", []float64{1, 2, 3, 4}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	p := New()
	if _, err := p.SelectTopK(tbl, []float64{0, 1, 0, 1}, 2, models.TaskClassification); err == nil {
		t.Fatalf("expected error for k > columns")
	}
}

func TestSelectTopKKeepsInformativeColumn(t *testing.T) {
	tbl := &models.Table{}
	// separates classes cleanly
	if err := tbl.Append(numCol("signal", []float64{1, 1.1, 9, 9.2, 0.9, 8.8}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	// pure noise, identical per class
	if err := tbl.Append(numCol("noise", []float64{3, 7, 3, 7, 5, 5}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	y := []float64{0, 0, 1, 1, 0, 1}
	sel, err := FitSelector(tbl, y, 1, models.TaskClassification)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(sel.Kept) != 1 || sel.Kept[0] != "signal" {
		t.Fatalf("expected signal kept, got %v", sel.Kept)
	}
}

func TestAnalyzeSummary(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(numCol("a", []float64{1, 0, 3, 3}, []bool{false, true, false, false})); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tbl.Append(catCol("c", []string{"x", "y", "x", "x"}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	s := Analyze(tbl)
	if s.Rows != 4 || s.Cols != 2 {
		t.Fatalf("unexpected shape %d x %d", s.Rows, s.Cols)
	}
	if s.Columns[0].NullCount != 1 || s.Columns[0].NullPercent != 25 {
		t.Fatalf("unexpected null stats %+v", s.Columns[0])
	}
	if s.Columns[1].Unique != 2 {
		t.Fatalf("unexpected cardinality %+v", s.Columns[1])
	}
	if len(s.NumericColumns) != 1 || len(s.CategoricalColumns) != 1 {
		t.Fatalf("unexpected kind lists %+v", s)
	}
}

func TestReadCSVInfersKinds(t *testing.T) {
	csv := "date,close,sector\n2024-01-02,187.5,tech\n2024-01-03,,tech\n2024-01-04,189.1,energy\n"
	tbl, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	date, _ := tbl.Column("date")
	if date.Kind != models.KindTime {
		t.Fatalf("expected time column, got %s", date.Kind)
	}
	close, _ := tbl.Column("close")
	if close.Kind != models.KindNumeric {
		t.Fatalf("expected numeric column, got %s", close.Kind)
	}
	if !close.Null[1] {
		t.Fatalf("empty cell should be null")
	}
	sector, _ := tbl.Column("sector")
	if sector.Kind != models.KindCategorical {
		t.Fatalf("expected categorical column, got %s", sector.Kind)
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, tbl); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := ReadCSV(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if back.NumRows() != 3 || back.NumCols() != 3 {
		t.Fatalf("roundtrip shape changed: %d x %d", back.NumRows(), back.NumCols())
	}
	c, _ := back.Column("close")
	if !c.Null[1] || c.Nums[2] != 189.1 {
		t.Fatalf("roundtrip values changed: %v %v", c.Nums, c.Null)
	}
}
