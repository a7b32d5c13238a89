package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"QuantForge/internal/domain/models"
	"QuantForge/internal/domain/repository"
)

// ClickHouseArchive implements CandleArchive for ClickHouse.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates a ClickHouse-backed candle archive.
func NewClickHouseArchive(db *sql.DB, table string) repository.CandleArchive {
	return &ClickHouseArchive{db: db, table: table}
}

func (s *ClickHouseArchive) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseArchive) StoreBatch(ctx context.Context, symbol string, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, b := range bars[start:end] {
			if b.Time.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Time, symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseArchive) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceBar, error) {
	q := fmt.Sprintf("SELECT ts, open, high, low, close, volume FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *ClickHouseArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseArchive) Close() error {
	return nil // Managed by pkg
}

// NoopArchive is used when ClickHouse is disabled in config.
type NoopArchive struct{}

func NewNoopArchive() repository.CandleArchive { return NoopArchive{} }

func (NoopArchive) Init(ctx context.Context) error { return nil }
func (NoopArchive) StoreBatch(ctx context.Context, symbol string, bars []models.PriceBar) error {
	return nil
}
func (NoopArchive) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceBar, error) {
	return nil, repository.ErrArchiveDisabled
}
func (NoopArchive) Health(ctx context.Context) error { return nil }
func (NoopArchive) Close() error                     { return nil }
