package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"QuantForge/internal/domain/models"
	domrepo "QuantForge/internal/domain/repository"
	internalrepo "QuantForge/internal/repository"
)

type archiveStub struct {
	domrepo.CandleArchive
	gotFrom  time.Time
	gotTo    time.Time
	gotLimit int
	bars     []models.PriceBar
}

func (a *archiveStub) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceBar, error) {
	a.gotFrom, a.gotTo, a.gotLimit = from, to, limit
	return a.bars, nil
}

type metricsStub struct{}

func (metricsStub) RecordFetch(string, string)    {}
func (metricsStub) RecordError(string)            {}
func (metricsStub) RecordModelCount(int)          {}
func (metricsStub) RecordLatency(string, float64) {}

func TestArchiveDefaultsOpenRange(t *testing.T) {
	arch := &archiveStub{bars: []models.PriceBar{
		{Time: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Close: 101},
	}}
	uc := NewMarketUseCase(nil, arch, nil, metricsStub{}, nil)

	bars, err := uc.Archive(context.Background(), "AAPL", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 101 {
		t.Fatalf("unexpected bars %+v", bars)
	}
	if arch.gotLimit != 10000 {
		t.Fatalf("limit = %d, want default 10000", arch.gotLimit)
	}
	if time.Since(arch.gotTo) > time.Minute {
		t.Fatalf("open end did not default to now: %v", arch.gotTo)
	}
	if !arch.gotFrom.Equal(arch.gotTo.AddDate(-1, 0, 0)) {
		t.Fatalf("open start did not default to one year back: %v", arch.gotFrom)
	}
}

func TestArchiveRejectsInvertedRange(t *testing.T) {
	uc := NewMarketUseCase(nil, &archiveStub{}, nil, metricsStub{}, nil)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := uc.Archive(context.Background(), "AAPL", from, to, 10); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestArchiveDisabledSurfaces(t *testing.T) {
	uc := NewMarketUseCase(nil, internalrepo.NewNoopArchive(), nil, metricsStub{}, nil)
	_, err := uc.Archive(context.Background(), "AAPL", time.Time{}, time.Time{}, 0)
	if !errors.Is(err, domrepo.ErrArchiveDisabled) {
		t.Fatalf("err = %v, want ErrArchiveDisabled", err)
	}
}
