package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"QuantForge/internal/domain/models"
	domrepo "QuantForge/internal/domain/repository"
	dservice "QuantForge/internal/domain/service"
	"QuantForge/internal/service/session"
	"QuantForge/internal/services/registry"
	"QuantForge/pkg/logger"
)

// ReportUseCase assembles a project summary and renders it to PDF.
type ReportUseCase struct {
	renderer dservice.ReportRenderer
	store    *registry.Store
	sessions *session.Store
	events   domrepo.EventPublisher
	logger   *logger.Logger
}

func NewReportUseCase(
	renderer dservice.ReportRenderer,
	store *registry.Store,
	sessions *session.Store,
	events domrepo.EventPublisher,
	log *logger.Logger,
) *ReportUseCase {
	return &ReportUseCase{
		renderer: renderer,
		store:    store,
		sessions: sessions,
		events:   events,
		logger:   log,
	}
}

// Generate renders the project report. The model record comes from an
// explicit id, or from the best model by metric when none is given.
func (uc *ReportUseCase) Generate(ctx context.Context, req *models.ReportRequestBody) ([]byte, error) {
	rec, err := uc.resolveModel(req)
	if err != nil {
		return nil, err
	}

	symbol := req.Symbol
	if symbol == "" && req.Session != "" {
		if state, serr := uc.sessions.Get(req.Session); serr == nil {
			symbol = state.Symbol
		}
	}

	rr := &models.ReportRequest{
		ProjectName: req.ProjectName,
		Symbol:      symbol,
		Notes:       req.Notes,
	}
	if rec != nil {
		rr.TaskType = models.TaskType(rec.TaskType)
		rr.Metrics = rec.Metrics
		rr.BestModelID = rec.ID
		rr.Params = map[string]any{
			"target_column":    rec.Params.TargetColumn,
			"test_size":        rec.Params.TestSize,
			"missing_strategy": rec.Params.MissingStrategy,
			"encoding_method":  rec.Params.EncodingMethod,
			"scaling_method":   rec.Params.ScalingMethod,
			"select_k":         rec.Params.SelectK,
			"seed":             rec.Params.Seed,
		}
	}

	start := time.Now()
	pdf, err := uc.renderer.Render(ctx, rr)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("report rendered",
		logger.String("project", req.ProjectName),
		logger.Int("bytes", len(pdf)),
		logger.Duration("took", time.Since(start)))

	if err := uc.events.Publish(ctx, &models.Event{
		Kind:    models.EventReportRendered,
		Symbol:  symbol,
		ModelID: rr.BestModelID,
		Details: map[string]string{"project": req.ProjectName},
	}); err != nil {
		uc.logger.Warn("audit publish failed", logger.Error(err))
	}
	return pdf, nil
}

func (uc *ReportUseCase) resolveModel(req *models.ReportRequestBody) (*registry.Record, error) {
	if req.ModelID != "" {
		rec, err := uc.store.Get(req.ModelID)
		if err != nil {
			return nil, err
		}
		return &rec, nil
	}

	metric := req.Metric
	if metric == "" {
		metric = "Accuracy"
	}
	for _, task := range []string{string(models.TaskClassification), string(models.TaskRegression)} {
		if id, _, ok := uc.store.Best(metric, task); ok {
			rec, err := uc.store.Get(id)
			if err != nil {
				if errors.Is(err, registry.ErrNotFound) {
					continue
				}
				return nil, err
			}
			return &rec, nil
		}
	}
	// a report without any trained model is still renderable
	if len(uc.store.List()) == 0 {
		return nil, nil
	}
	return nil, fmt.Errorf("no model matches metric %q", metric)
}
