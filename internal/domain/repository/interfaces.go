package repository

import (
	"context"
	"errors"
	"time"

	"QuantForge/internal/domain/models"
)

// ErrArchiveDisabled is returned by archive reads when no backing store
// is configured.
var ErrArchiveDisabled = errors.New("candle archive disabled")

// MarketData is the upstream price/quote provider queried over HTTP.
// A failed or empty fetch surfaces as an error; callers decide how to
// proceed, there is no retry layer here.
type MarketData interface {
	Candles(ctx context.Context, symbol string, period Period, interval Interval) ([]models.PriceBar, error)
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	Profile(ctx context.Context, symbol string) (*models.TickerInfo, error)
}

// CandleArchive persists fetched bar histories for later auditing.
type CandleArchive interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBatch(ctx context.Context, symbol string, bars []models.PriceBar) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceBar, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher emits audit events (dataset fetched, model saved or
// deleted) to an external bus.
type EventPublisher interface {
	Publish(ctx context.Context, e *models.Event) error
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordFetch(symbol, period string)
	RecordError(kind string)
	RecordModelCount(n int)
	RecordLatency(op string, seconds float64)
}
