package automl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"QuantForge/internal/domain/models"
)

func trainRequest() *models.TrainRequest {
	return &models.TrainRequest{
		TaskType:     "classification",
		FeatureNames: []string{"f1", "f2"},
		TrainX:       [][]float64{{1, 2}, {3, 4}},
		TrainY:       []float64{0, 1},
		TestX:        [][]float64{{5, 6}},
		TestY:        []float64{1},
	}
}

func TestTrain(t *testing.T) {
	artifact := []byte("serialized-model")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req models.TrainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.TrainX) != 2 || req.TaskType != "classification" {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model_name": "LightGBM",
			"artifact":   base64.StdEncoding.EncodeToString(artifact),
			"metrics":    map[string]float64{"Accuracy": 0.93},
		})
	}))
	defer srv.Close()

	tr := NewTrainer(srv.URL, time.Second)
	got, err := tr.Train(context.Background(), trainRequest())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if got.ModelName != "LightGBM" || string(got.Artifact) != string(artifact) {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Metrics["Accuracy"] != 0.93 {
		t.Fatalf("metrics lost: %+v", got.Metrics)
	}
}

func TestTrainErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "time budget exhausted"})
	}))
	defer srv.Close()

	tr := NewTrainer(srv.URL, time.Second)
	if _, err := tr.Train(context.Background(), trainRequest()); err == nil {
		t.Fatalf("expected trainer error")
	}
}

func TestTrainRejectsEmptySplit(t *testing.T) {
	tr := NewTrainer("http://unused", time.Second)
	if _, err := tr.Train(context.Background(), &models.TrainRequest{}); err == nil {
		t.Fatalf("expected error for empty split")
	}
}

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Artifact == "" || len(req.Rows) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"values": []float64{1, 0},
			"labels": []string{"up", "down"},
		})
	}))
	defer srv.Close()

	tr := NewTrainer(srv.URL, time.Second)
	p, err := tr.Predict(context.Background(), []byte("m"), []string{"f1"}, [][]float64{{1}, {2}})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(p.Values) != 2 || p.Labels[0] != "up" {
		t.Fatalf("unexpected prediction %+v", p)
	}
}

func TestPredictFailureSurfacesWithoutRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewTrainer(srv.URL, time.Second)
	if _, err := tr.Predict(context.Background(), []byte("m"), nil, [][]float64{{1}}); err == nil {
		t.Fatalf("expected error from failing trainer")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("trainer called %d times, want 1", n)
	}
}

func TestPredictLengthMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"values": []float64{1}})
	}))
	defer srv.Close()

	tr := NewTrainer(srv.URL, time.Second)
	if _, err := tr.Predict(context.Background(), []byte("m"), nil, [][]float64{{1}, {2}}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}
