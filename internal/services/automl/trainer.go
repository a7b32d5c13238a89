package automl

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"QuantForge/internal/domain/models"
	dservice "QuantForge/internal/domain/service"
)

// Trainer is the HTTP implementation of service.Trainer.
type Trainer struct {
	*httpServiceBase
}

// NewTrainer builds a trainer client for the service at baseURL.
func NewTrainer(baseURL string, timeout time.Duration) dservice.Trainer {
	return &Trainer{httpServiceBase: newHTTPServiceBase(baseURL, timeout)}
}

type trainResponse struct {
	ModelName string             `json:"model_name"`
	Artifact  string             `json:"artifact"` // base64
	Metrics   map[string]float64 `json:"metrics"`
	Error     string             `json:"error,omitempty"`
}

// Train ships the prepared split and returns the winning model.
func (t *Trainer) Train(ctx context.Context, req *models.TrainRequest) (*models.TrainedModel, error) {
	if len(req.TrainX) == 0 || len(req.TrainY) == 0 {
		return nil, fmt.Errorf("empty training split")
	}
	var resp trainResponse
	if err := t.postJSON(ctx, "/train", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("trainer: %s", resp.Error)
	}
	artifact, err := base64.StdEncoding.DecodeString(resp.Artifact)
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(artifact) == 0 {
		return nil, fmt.Errorf("trainer returned an empty artifact")
	}
	return &models.TrainedModel{
		ModelName: resp.ModelName,
		Artifact:  artifact,
		Metrics:   resp.Metrics,
	}, nil
}

type predictRequest struct {
	Artifact     string      `json:"artifact"` // base64
	FeatureNames []string    `json:"feature_names"`
	Rows         [][]float64 `json:"rows"`
}

type predictResponse struct {
	Values []float64 `json:"values"`
	Labels []string  `json:"labels,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Predict scores rows with a previously trained artifact. The artifact
// travels with the request so the trainer side stays stateless.
func (t *Trainer) Predict(ctx context.Context, artifact []byte, featureNames []string, rows [][]float64) (*models.Prediction, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to predict")
	}
	req := predictRequest{
		Artifact:     base64.StdEncoding.EncodeToString(artifact),
		FeatureNames: featureNames,
		Rows:         rows,
	}
	var resp predictResponse
	if err := t.postJSON(ctx, "/predict", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("trainer: %s", resp.Error)
	}
	if len(resp.Values) != len(rows) {
		return nil, fmt.Errorf("trainer returned %d predictions for %d rows", len(resp.Values), len(rows))
	}
	return &models.Prediction{Values: resp.Values, Labels: resp.Labels}, nil
}
