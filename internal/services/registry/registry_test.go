package registry

import (
	"encoding/csv"
	"errors"
	"os"
	"testing"
	"time"

	"QuantForge/internal/services/preprocess"
	"QuantForge/pkg/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	s, err := Open(t.TempDir(), log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := testStore(t)
	artifact := []byte{0x1f, 0x8b, 0x00, 0x42}
	metrics := map[string]float64{"Accuracy": 0.91, "F1": 0.88}
	params := preprocess.PipelineParams{TargetColumn: "Target", TestSize: 0.25, Seed: 7}
	feats := []string{"RSI", "MACD", "Close"}

	id, err := s.Save(artifact, "gbm AAPL", "classification", metrics, params, feats)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data, rec, err := s.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != string(artifact) {
		t.Fatalf("artifact bytes changed")
	}
	if rec.Name != "gbm AAPL" || rec.TaskType != "classification" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Metrics["Accuracy"] != 0.91 {
		t.Fatalf("metrics lost: %+v", rec.Metrics)
	}
	if rec.Params.TestSize != 0.25 || rec.Params.Seed != 7 {
		t.Fatalf("params lost: %+v", rec.Params)
	}
	if len(rec.FeatureNames) != 3 || rec.FeatureNames[0] != "RSI" {
		t.Fatalf("feature names lost: %v", rec.FeatureNames)
	}

	// reopen from disk and read the same record back
	s2, err := Open(s.dir, s.log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	data2, rec2, err := s2.Load(id)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if string(data2) != string(artifact) || rec2.ArtifactBytes != int64(len(artifact)) {
		t.Fatalf("persisted record differs")
	}
}

func TestSaveCollisionSuffix(t *testing.T) {
	s := testStore(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a, err := s.Save([]byte("a"), "model", "regression", nil, preprocess.PipelineParams{}, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := s.Save([]byte("b"), "model", "regression", nil, preprocess.PipelineParams{}, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a != "model_20240301_120000" {
		t.Fatalf("unexpected id %q", a)
	}
	if b != a+"_2" {
		t.Fatalf("expected collision suffix, got %q", b)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return ts }
		if _, err := s.Save([]byte("x"), "m", "regression", nil, preprocess.PipelineParams{}, nil); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	recs := s.List()
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].CreatedAt.After(recs[i-1].CreatedAt) {
			t.Fatalf("list not newest first: %v", recs)
		}
	}
}

func TestRetainLatest(t *testing.T) {
	s := testStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var last string
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return ts }
		id, err := s.Save([]byte("x"), "m", "regression", nil, preprocess.PipelineParams{}, nil)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		last = id
	}
	removed, err := s.RetainLatest(1)
	if err != nil {
		t.Fatalf("retain: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	recs := s.List()
	if len(recs) != 1 || recs[0].ID != last {
		t.Fatalf("expected only newest %q kept, got %v", last, recs)
	}
}

func TestBestMetricDirection(t *testing.T) {
	s := testStore(t)
	save := func(name string, metrics map[string]float64, task string) string {
		id, err := s.Save([]byte("x"), name, task, metrics, preprocess.PipelineParams{}, nil)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		return id
	}
	save("r1", map[string]float64{"RMSE": 0.5}, "regression")
	want := save("r2", map[string]float64{"RMSE": 0.2}, "regression")
	save("r3", map[string]float64{"RMSE": 0.9}, "regression")

	id, score, ok := s.Best("RMSE", "regression")
	if !ok || id != want || score != 0.2 {
		t.Fatalf("RMSE should minimize: got %q %v %v", id, score, ok)
	}

	save("c1", map[string]float64{"Accuracy": 0.8}, "classification")
	wantC := save("c2", map[string]float64{"Accuracy": 0.95}, "classification")
	save("c3", map[string]float64{"Accuracy": 0.7}, "classification")

	id, score, ok = s.Best("Accuracy", "classification")
	if !ok || id != wantC || score != 0.95 {
		t.Fatalf("Accuracy should maximize: got %q %v %v", id, score, ok)
	}

	if _, _, ok := s.Best("Accuracy", "regression"); ok {
		t.Fatalf("expected no match across task types")
	}
}

func TestDeleteUnknownIsNotAnError(t *testing.T) {
	s := testStore(t)
	ok, err := s.Delete("nope")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok {
		t.Fatalf("unknown id should report false")
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	s := testStore(t)
	id, err := s.Save([]byte("x"), "m", "regression", nil, preprocess.PipelineParams{}, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, err := s.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := os.Remove(rec.ArtifactPath); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}
	if _, _, err := s.Load(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// metadata entry survives the inconsistency
	if _, err := s.Get(id); err != nil {
		t.Fatalf("registry should stay intact: %v", err)
	}
}

func TestStorageUsage(t *testing.T) {
	s := testStore(t)
	u := s.StorageUsage()
	if u.Count != 0 || u.TotalBytes != 0 || u.AvgBytes != 0 {
		t.Fatalf("empty registry usage %+v", u)
	}
	if _, err := s.Save(make([]byte, 100), "a", "regression", nil, preprocess.PipelineParams{}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Save(make([]byte, 300), "b", "regression", nil, preprocess.PipelineParams{}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	u = s.StorageUsage()
	if u.Count != 2 || u.TotalBytes != 400 || u.AvgBytes != 200 {
		t.Fatalf("unexpected usage %+v", u)
	}
}

func TestExportSummaryCSVQuotesNames(t *testing.T) {
	s := testStore(t)
	name := "gbm, AAPL \"daily\""
	if _, err := s.Save([]byte("a"), name, "classification",
		map[string]float64{"Accuracy": 0.9}, preprocess.PipelineParams{}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Save([]byte("bb"), "plain", "regression",
		map[string]float64{"RMSE": 1.5}, preprocess.PipelineParams{}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	path, err := s.ExportSummaryCSV()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open summary: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse summary: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(rows))
	}
	if rows[0][0] != "model_id" || rows[0][1] != "name" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	found := false
	for _, row := range rows[1:] {
		if row[1] == name {
			found = true
		}
		if len(row) != len(rows[0]) {
			t.Fatalf("ragged row %v", row)
		}
	}
	if !found {
		t.Fatalf("name with comma and quotes not preserved in %v", rows)
	}
}

func TestSanitizeName(t *testing.T) {
	s := testStore(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	id, err := s.Save([]byte("x"), "My Model/v2", "regression", nil, preprocess.PipelineParams{}, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, r := range id {
		if r == ' ' || r == '/' {
			t.Fatalf("id %q contains unsafe characters", id)
		}
	}
}
