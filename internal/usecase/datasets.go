package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"QuantForge/internal/domain/models"
	domrepo "QuantForge/internal/domain/repository"
	"QuantForge/internal/service/session"
	"QuantForge/internal/services/features"
	"QuantForge/internal/services/preprocess"
	"QuantForge/pkg/logger"
)

// DatasetUseCase drives dataset acquisition and preprocessing for one
// client session.
type DatasetUseCase struct {
	market   domrepo.MarketData
	archive  domrepo.CandleArchive
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	sessions *session.Store
	logger   *logger.Logger
	timeout  time.Duration
}

func NewDatasetUseCase(
	market domrepo.MarketData,
	archive domrepo.CandleArchive,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	sessions *session.Store,
	log *logger.Logger,
) *DatasetUseCase {
	return &DatasetUseCase{
		market:   market,
		archive:  archive,
		events:   events,
		metrics:  metrics,
		sessions: sessions,
		logger:   log,
		timeout:  30 * time.Second,
	}
}

// FetchResult describes the dataset placed into the session.
type FetchResult struct {
	Session string             `json:"session"`
	Symbol  string             `json:"symbol"`
	Rows    int                `json:"rows"`
	Columns []string           `json:"columns"`
	Summary preprocess.Summary `json:"summary"`
}

// Fetch pulls a bar history from the provider, derives a model-ready
// dataset and stores it in the session.
func (uc *DatasetUseCase) Fetch(ctx context.Context, req *models.FetchDatasetRequest) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	state, err := uc.ensureSession(req.Session)
	if err != nil {
		return nil, err
	}

	period := domrepo.NormalizePeriod(req.Period)
	interval := domrepo.NormalizeInterval(req.Interval)
	start := time.Now()
	bars, err := uc.market.Candles(ctx, req.Symbol, period, interval)
	if err != nil {
		uc.metrics.RecordError("fetch")
		return nil, err
	}
	uc.metrics.RecordFetch(req.Symbol, string(period))
	uc.metrics.RecordLatency("fetch_candles", time.Since(start).Seconds())

	// archive is best-effort; a cold ClickHouse must not block the user
	if err := uc.archive.StoreBatch(ctx, req.Symbol, bars); err != nil {
		uc.logger.Warn("candle archive write failed", logger.Error(err))
	}

	params := features.DatasetParams{
		TaskType: models.TaskType(req.TaskType),
		Periods:  req.Periods,
	}
	if params.TaskType == "" {
		params.TaskType = models.TaskClassification
	}
	if req.WithIndicators == nil || *req.WithIndicators {
		params.WithIndicators = true
	}
	if req.TargetMethod != "" {
		if params.TaskType == models.TaskClassification {
			params.Classification = features.ClassificationMethod(req.TargetMethod)
		} else {
			params.Regression = features.RegressionKind(req.TargetMethod)
		}
	}

	dataset, err := features.BuildDataset(bars, params)
	if err != nil {
		return nil, err
	}

	uc.sessions.Put(state.WithDataset(req.Symbol, dataset))

	if err := uc.events.Publish(ctx, &models.Event{
		Kind:   models.EventDatasetFetched,
		Symbol: req.Symbol,
		Details: map[string]string{
			"period": string(period),
			"rows":   fmt.Sprintf("%d", dataset.NumRows()),
		},
	}); err != nil {
		uc.logger.Warn("audit publish failed", logger.Error(err))
	}

	return &FetchResult{
		Session: state.ID,
		Symbol:  req.Symbol,
		Rows:    dataset.NumRows(),
		Columns: dataset.Names(),
		Summary: preprocess.Analyze(dataset),
	}, nil
}

// Upload parses a CSV payload into the session dataset.
func (uc *DatasetUseCase) Upload(ctx context.Context, sessionID string, csv []byte) (*FetchResult, error) {
	state, err := uc.ensureSession(sessionID)
	if err != nil {
		return nil, err
	}
	table, err := preprocess.ReadCSV(bytes.NewReader(csv))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	uc.sessions.Put(state.WithDataset("", table))
	return &FetchResult{
		Session: state.ID,
		Rows:    table.NumRows(),
		Columns: table.Names(),
		Summary: preprocess.Analyze(table),
	}, nil
}

// Analyze returns the profile of the session's current dataset.
func (uc *DatasetUseCase) Analyze(ctx context.Context, sessionID string) (*preprocess.Summary, error) {
	state, err := uc.requireDataset(sessionID)
	if err != nil {
		return nil, err
	}
	s := preprocess.Analyze(state.Dataset)
	return &s, nil
}

// PreprocessResult reports the split shapes after running the pipeline.
type PreprocessResult struct {
	Session      string   `json:"session"`
	TrainRows    int      `json:"train_rows"`
	TestRows     int      `json:"test_rows"`
	FeatureNames []string `json:"feature_names"`
}

// Preprocess runs the full pipeline on the session dataset and keeps the
// fitted state for later inference.
func (uc *DatasetUseCase) Preprocess(ctx context.Context, req *models.PreprocessRequest) (*PreprocessResult, error) {
	state, err := uc.requireDataset(req.Session)
	if err != nil {
		return nil, err
	}

	params := preprocess.PipelineParams{
		TargetColumn:    req.TargetColumn,
		TestSize:        req.TestSize,
		MissingStrategy: preprocess.Strategy(req.MissingStrategy),
		EncodingMethod:  preprocess.EncodeMethod(req.EncodingMethod),
		ScalingMethod:   preprocess.ScaleMethod(req.ScalingMethod),
		SelectK:         req.SelectK,
		TaskType:        models.TaskType(req.TaskType),
		Seed:            req.Seed,
	}

	p := preprocess.New()
	start := time.Now()
	split, err := p.Run(state.Dataset, params)
	if err != nil {
		uc.metrics.RecordError("preprocess")
		return nil, err
	}
	uc.metrics.RecordLatency("preprocess", time.Since(start).Seconds())

	uc.sessions.Put(state.WithSplit(p, split))

	return &PreprocessResult{
		Session:      state.ID,
		TrainRows:    split.TrainX.NumRows(),
		TestRows:     split.TestX.NumRows(),
		FeatureNames: split.FeatureNames,
	}, nil
}

// ExportCSV renders the session's current dataset as a delimited file.
func (uc *DatasetUseCase) ExportCSV(ctx context.Context, sessionID string) ([]byte, error) {
	state, err := uc.requireDataset(sessionID)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	if err := preprocess.WriteCSV(&b, state.Dataset); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// NewSession allocates a fresh session id.
func (uc *DatasetUseCase) NewSession() string {
	return uc.sessions.Create()
}

func (uc *DatasetUseCase) ensureSession(id string) (session.State, error) {
	if id == "" {
		id = uc.sessions.Create()
	}
	state, err := uc.sessions.Get(id)
	if err != nil {
		// expired or never existed: start over under the same id contract
		id = uc.sessions.Create()
		state, err = uc.sessions.Get(id)
	}
	return state, err
}

func (uc *DatasetUseCase) requireDataset(id string) (session.State, error) {
	state, err := uc.sessions.Get(id)
	if err != nil {
		return session.State{}, err
	}
	if state.Dataset == nil {
		return session.State{}, fmt.Errorf("session has no dataset; fetch or upload one first")
	}
	return state, nil
}
