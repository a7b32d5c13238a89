package service

import (
	"context"

	"QuantForge/internal/domain/models"
)

// Trainer runs model search on a prepared split and scores new rows with a
// previously returned artifact.
type Trainer interface {
	Train(ctx context.Context, req *models.TrainRequest) (*models.TrainedModel, error)
	Predict(ctx context.Context, artifact []byte, featureNames []string, rows [][]float64) (*models.Prediction, error)
}

// ReportRenderer turns a project summary into a paginated PDF document.
type ReportRenderer interface {
	Render(ctx context.Context, req *models.ReportRequest) ([]byte, error)
}
