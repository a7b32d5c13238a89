package di

import (
	"context"
	"fmt"
	"time"

	"QuantForge/internal/domain/repository"
	dservice "QuantForge/internal/domain/service"
	"QuantForge/internal/handler/api"
	internalrepo "QuantForge/internal/repository"
	"QuantForge/internal/service/cache"
	"QuantForge/internal/service/marketdata"
	"QuantForge/internal/service/session"
	"QuantForge/internal/services/automl"
	"QuantForge/internal/services/registry"
	"QuantForge/internal/services/report"
	"QuantForge/internal/usecase"
	pkgch "QuantForge/pkg/clickhouse"
	"QuantForge/pkg/config"
	xhttp "QuantForge/pkg/http"
	pkgkafka "QuantForge/pkg/kafka"
	"QuantForge/pkg/logger"
	"QuantForge/pkg/metrics"
	"QuantForge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".price_bars (ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64) ENGINE=MergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCandleArchive creates the candle archive, ClickHouse-backed when
// available.
func ProvideCandleArchive(chClient *pkgch.Client, cfg *config.Config) repository.CandleArchive {
	if chClient == nil {
		return internalrepo.NewNoopArchive()
	}
	return internalrepo.NewClickHouseArchive(chClient.DB(), cfg.ClickHouse.Database+".price_bars")
}

// ProvideEventPublisher creates the audit event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NewNoopEventPublisher()
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache creates the byte cache, Redis-backed when enabled.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	if cfg.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideMarketData creates the upstream provider client.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	opts := []marketdata.Option{}
	if cfg.Provider.Timeout > 0 {
		opts = append(opts, marketdata.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout))))
	}
	if cfg.Provider.RateCapacity > 0 {
		opts = append(opts, marketdata.WithRateLimit(cfg.Provider.RateCapacity, cfg.Provider.RatePerSec))
	}
	return marketdata.New(cfg.Provider.BaseURL, cfg.Provider.APIKey, opts...)
}

// ProvideTrainer creates the AutoML trainer client.
func ProvideTrainer(cfg *config.Config) dservice.Trainer {
	return automl.NewTrainer(cfg.Trainer.URL, cfg.Trainer.Timeout)
}

// ProvideRenderer creates the report renderer client.
func ProvideRenderer(cfg *config.Config) dservice.ReportRenderer {
	return report.NewRenderer(cfg.Report.URL, cfg.Report.Timeout)
}

// ProvideRegistry opens the model registry.
func ProvideRegistry(cfg *config.Config, l *logger.Logger) (*registry.Store, error) {
	return registry.Open(cfg.Registry.Dir, l)
}

// ProvideSessions creates the session store.
func ProvideSessions(cfg *config.Config) *session.Store {
	ttl := cfg.Session.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return session.NewStore(ttl)
}

// ProvideDatasetUseCase creates the dataset use case.
func ProvideDatasetUseCase(
	market repository.MarketData,
	archive repository.CandleArchive,
	events repository.EventPublisher,
	m repository.Metrics,
	sessions *session.Store,
	l *logger.Logger,
) *usecase.DatasetUseCase {
	return usecase.NewDatasetUseCase(market, archive, events, m, sessions, l)
}

// ProvideMarketUseCase creates the market use case.
func ProvideMarketUseCase(
	market repository.MarketData,
	archive repository.CandleArchive,
	c cache.BytesCache,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.MarketUseCase {
	return usecase.NewMarketUseCase(market, archive, c, m, l)
}

// ProvideModelUseCase creates the model use case.
func ProvideModelUseCase(
	trainer dservice.Trainer,
	store *registry.Store,
	sessions *session.Store,
	events repository.EventPublisher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ModelUseCase {
	return usecase.NewModelUseCase(trainer, store, sessions, events, m, l)
}

// ProvideReportUseCase creates the report use case.
func ProvideReportUseCase(
	renderer dservice.ReportRenderer,
	store *registry.Store,
	sessions *session.Store,
	events repository.EventPublisher,
	l *logger.Logger,
) *usecase.ReportUseCase {
	return usecase.NewReportUseCase(renderer, store, sessions, events, l)
}

// ProvideRouter assembles the HTTP route registrar.
func ProvideRouter(
	l *logger.Logger,
	datasets *usecase.DatasetUseCase,
	market *usecase.MarketUseCase,
	modelsUC *usecase.ModelUseCase,
	reports *usecase.ReportUseCase,
	archive repository.CandleArchive,
) xhttp.Handler {
	return api.NewRouter(
		api.NewDatasetsHandler(l, datasets),
		api.NewMarketHandler(l, market),
		api.NewModelsHandler(l, modelsUC),
		api.NewReportsHandler(l, reports),
		archive,
	)
}

// kafkaLogPublisher feeds aggregated error logs to the audit topic.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	archive repository.CandleArchive,
	events repository.EventPublisher,
	store *registry.Store,
) *server.App {
	if producer != nil && cfg.Kafka.Topic != "" {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	return server.New(cfg, l, handler, chClient, archive, events, store)
}
