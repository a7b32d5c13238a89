package preprocess

import (
	"math"
	"testing"

	"QuantForge/internal/domain/models"
)

func classificationTable(t *testing.T) *models.Table {
	t.Helper()
	tbl := &models.Table{}
	f1 := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	f2 := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
	labels := []string{"a", "b", "a", "b", "a", "b", "a", "b", "a", "b"}
	if err := tbl.Append(numCol("f1", f1, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tbl.Append(numCol("f2", f2, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tbl.Append(catCol("label", labels, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	return tbl
}

func TestRunStratifiedSplit(t *testing.T) {
	tbl := classificationTable(t)
	p := New()
	split, err := p.Run(tbl, PipelineParams{
		TargetColumn: "label",
		TestSize:     0.2,
		TaskType:     models.TaskClassification,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if split.TrainX.NumRows() != 8 || split.TestX.NumRows() != 2 {
		t.Fatalf("unexpected split %d/%d", split.TrainX.NumRows(), split.TestX.NumRows())
	}
	// one test row per class
	var zeros, ones int
	for _, y := range split.TestY {
		if y == 0 {
			zeros++
		} else {
			ones++
		}
	}
	if zeros != 1 || ones != 1 {
		t.Fatalf("split not stratified: testY=%v", split.TestY)
	}
	if len(split.FeatureNames) != 2 {
		t.Fatalf("unexpected feature names %v", split.FeatureNames)
	}
	if p.TargetEncoder() == nil {
		t.Fatalf("expected fitted target encoder")
	}
}

func TestRunDeterministicForSeed(t *testing.T) {
	a, err := New().Run(classificationTable(t), PipelineParams{TargetColumn: "label", Seed: 7})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := New().Run(classificationTable(t), PipelineParams{TargetColumn: "label", Seed: 7})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(a.TrainY) != len(b.TrainY) {
		t.Fatalf("split sizes differ")
	}
	for i := range a.TrainY {
		if a.TrainY[i] != b.TrainY[i] {
			t.Fatalf("trainY differs at %d: %v vs %v", i, a.TrainY, b.TrainY)
		}
	}
	ax, _ := a.TrainX.Column("f1")
	bx, _ := b.TrainX.Column("f1")
	for i := range ax.Nums {
		if ax.Nums[i] != bx.Nums[i] {
			t.Fatalf("trainX differs at %d", i)
		}
	}
}

func TestRunRejectsMissingTarget(t *testing.T) {
	tbl := classificationTable(t)
	if _, err := New().Run(tbl, PipelineParams{TargetColumn: "nope"}); err == nil {
		t.Fatalf("expected error for unknown target")
	}
	if _, err := New().Run(tbl, PipelineParams{}); err == nil {
		t.Fatalf("expected error for empty target")
	}
}

func TestRunRejectsCategoricalRegressionTarget(t *testing.T) {
	tbl := classificationTable(t)
	_, err := New().Run(tbl, PipelineParams{TargetColumn: "label", TaskType: models.TaskRegression})
	if err == nil {
		t.Fatalf("expected error for categorical regression target")
	}
}

func TestReplayMatchesTrainingTransform(t *testing.T) {
	tbl := classificationTable(t)
	p := New()
	split, err := p.Run(tbl, PipelineParams{TargetColumn: "label", TaskType: models.TaskClassification})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	raw := tbl.Drop("label")
	out, err := p.Replay(raw, split.FeatureNames)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if out.NumRows() != 10 {
		t.Fatalf("replay dropped rows: %d", out.NumRows())
	}
	f1, _ := out.Column("f1")
	mean, std := 5.5, math.Sqrt(8.25)
	for i, v := range f1.Nums {
		want := (float64(i+1) - mean) / std
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("row %d: got %v want %v", i, v, want)
		}
	}
	f2, _ := out.Column("f2")
	for i, v := range f2.Nums {
		if v != 0 {
			t.Fatalf("constant column should scale to 0, row %d got %v", i, v)
		}
	}
}

func TestReindexZeroFillsMissing(t *testing.T) {
	tbl := &models.Table{}
	if err := tbl.Append(numCol("a", []float64{1, 2}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tbl.Append(numCol("extra", []float64{9, 9}, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	out := Reindex(tbl, []string{"a", "missing"})
	names := out.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "missing" {
		t.Fatalf("unexpected columns %v", names)
	}
	m, _ := out.Column("missing")
	if m.Nums[0] != 0 || m.Nums[1] != 0 {
		t.Fatalf("missing column not zero-filled: %v", m.Nums)
	}
}
