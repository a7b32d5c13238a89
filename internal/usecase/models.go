package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"QuantForge/internal/domain/models"
	domrepo "QuantForge/internal/domain/repository"
	dservice "QuantForge/internal/domain/service"
	"QuantForge/internal/service/session"
	"QuantForge/internal/services/preprocess"
	"QuantForge/internal/services/registry"
	"QuantForge/pkg/logger"
)

// ModelUseCase trains, scores and manages registered models.
type ModelUseCase struct {
	trainer  dservice.Trainer
	store    *registry.Store
	sessions *session.Store
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewModelUseCase(
	trainer dservice.Trainer,
	store *registry.Store,
	sessions *session.Store,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *ModelUseCase {
	return &ModelUseCase{
		trainer:  trainer,
		store:    store,
		sessions: sessions,
		events:   events,
		metrics:  metrics,
		logger:   log,
	}
}

// TrainResult reports the registered model after a training run.
type TrainResult struct {
	ModelID   string             `json:"model_id"`
	ModelName string             `json:"model_name"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Train ships the session's prepared split to the trainer and registers
// the winning model together with the preprocessing parameters needed to
// replay inference.
func (uc *ModelUseCase) Train(ctx context.Context, req *models.TrainRequestBody) (*TrainResult, error) {
	state, err := uc.sessions.Get(req.Session)
	if err != nil {
		return nil, err
	}
	if state.Split == nil || state.Prep == nil {
		return nil, fmt.Errorf("session has no prepared split; run preprocessing first")
	}
	split := state.Split

	trainX, err := split.TrainX.Matrix(split.FeatureNames)
	if err != nil {
		return nil, err
	}
	testX, err := split.TestX.Matrix(split.FeatureNames)
	if err != nil {
		return nil, err
	}
	params := state.Prep.Params()

	start := time.Now()
	trained, err := uc.trainer.Train(ctx, &models.TrainRequest{
		TaskType:     params.TaskType,
		FeatureNames: split.FeatureNames,
		TrainX:       trainX,
		TrainY:       split.TrainY,
		TestX:        testX,
		TestY:        split.TestY,
		TimeBudget:   req.TimeBudget,
	})
	if err != nil {
		uc.metrics.RecordError("train")
		return nil, err
	}
	uc.metrics.RecordLatency("train", time.Since(start).Seconds())

	id, err := uc.store.Save(trained.Artifact, req.Name, string(params.TaskType),
		trained.Metrics, params, split.FeatureNames)
	if err != nil {
		return nil, err
	}
	uc.metrics.RecordModelCount(len(uc.store.List()))
	uc.sessions.Put(state.WithModel(id))

	if err := uc.events.Publish(ctx, &models.Event{
		Kind:    models.EventModelSaved,
		Symbol:  state.Symbol,
		ModelID: id,
		Details: map[string]string{"name": req.Name, "task_type": string(params.TaskType)},
	}); err != nil {
		uc.logger.Warn("audit publish failed", logger.Error(err))
	}

	return &TrainResult{ModelID: id, ModelName: trained.ModelName, Metrics: trained.Metrics}, nil
}

// Predict replays the fitted preprocessing on raw CSV rows and scores them
// with the stored artifact. Classification predictions are decoded back to
// their original class labels when a target encoder was fitted.
func (uc *ModelUseCase) Predict(ctx context.Context, req *models.PredictRequestBody) (*models.Prediction, error) {
	state, err := uc.sessions.Get(req.Session)
	if err != nil {
		return nil, err
	}
	if state.Prep == nil {
		return nil, fmt.Errorf("session has no fitted preprocessing; run preprocessing first")
	}

	artifact, rec, err := uc.store.Load(req.ModelID)
	if err != nil {
		return nil, err
	}

	raw, err := preprocess.ReadCSV(strings.NewReader(req.CSV))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	featureTable, err := state.Prep.Replay(raw, rec.FeatureNames)
	if err != nil {
		return nil, err
	}
	rows, err := featureTable.Matrix(rec.FeatureNames)
	if err != nil {
		return nil, err
	}

	pred, err := uc.trainer.Predict(ctx, artifact, rec.FeatureNames, rows)
	if err != nil {
		uc.metrics.RecordError("predict")
		return nil, err
	}

	if rec.TaskType == string(models.TaskClassification) && len(pred.Labels) == 0 {
		if enc := state.Prep.TargetEncoder(); enc != nil {
			if labels, err := enc.Inverse(pred.Values); err == nil {
				pred.Labels = labels
			}
		}
	}
	return pred, nil
}

// List returns registered models newest first.
func (uc *ModelUseCase) List(ctx context.Context) []registry.Record {
	return uc.store.List()
}

// Get returns one model's metadata.
func (uc *ModelUseCase) Get(ctx context.Context, id string) (registry.Record, error) {
	return uc.store.Get(id)
}

// Delete removes a model; it reports whether anything was deleted.
func (uc *ModelUseCase) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := uc.store.Delete(id)
	if err != nil {
		return false, err
	}
	if ok {
		uc.metrics.RecordModelCount(len(uc.store.List()))
		if perr := uc.events.Publish(ctx, &models.Event{
			Kind:    models.EventModelDeleted,
			ModelID: id,
		}); perr != nil {
			uc.logger.Warn("audit publish failed", logger.Error(perr))
		}
	}
	return ok, nil
}

// BestResult names the winning model for a metric.
type BestResult struct {
	ModelID string  `json:"model_id"`
	Score   float64 `json:"score"`
}

// Best picks the top model for the metric, or nil when none matches.
func (uc *ModelUseCase) Best(ctx context.Context, metric, taskType string) *BestResult {
	id, score, ok := uc.store.Best(metric, taskType)
	if !ok {
		return nil
	}
	return &BestResult{ModelID: id, Score: score}
}

// Retain keeps the n newest models and deletes the rest.
func (uc *ModelUseCase) Retain(ctx context.Context, n int) (int, error) {
	removed, err := uc.store.RetainLatest(n)
	if err != nil {
		return removed, err
	}
	uc.metrics.RecordModelCount(len(uc.store.List()))
	return removed, nil
}

// Usage reports registry disk consumption.
func (uc *ModelUseCase) Usage(ctx context.Context) registry.Usage {
	return uc.store.StorageUsage()
}

// ExportSummary writes the registry summary CSV and returns its path.
func (uc *ModelUseCase) ExportSummary(ctx context.Context) (string, error) {
	return uc.store.ExportSummaryCSV()
}
