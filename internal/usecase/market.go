package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"QuantForge/internal/domain/models"
	domrepo "QuantForge/internal/domain/repository"
	"QuantForge/internal/service/cache"
	"QuantForge/internal/service/marketdata"
	"QuantForge/pkg/logger"
)

const (
	summaryCacheKey = "market:summary"
	summaryCacheTTL = 60 * time.Second
	quoteCacheTTL   = 15 * time.Second
)

// MarketUseCase serves quotes, profiles, histories and the popular-symbol
// overview. Quote and summary responses are cached briefly to keep the
// provider request budget for dataset fetches.
type MarketUseCase struct {
	market  domrepo.MarketData
	archive domrepo.CandleArchive
	cache   cache.BytesCache
	metrics domrepo.Metrics
	logger  *logger.Logger
}

func NewMarketUseCase(market domrepo.MarketData, archive domrepo.CandleArchive, c cache.BytesCache, metrics domrepo.Metrics, log *logger.Logger) *MarketUseCase {
	return &MarketUseCase{market: market, archive: archive, cache: c, metrics: metrics, logger: log}
}

// Quote returns the latest traded state of a symbol.
func (uc *MarketUseCase) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	key := "market:quote:" + symbol
	if b, ok, _ := uc.cache.GetBytes(key); ok {
		var q models.Quote
		if err := json.Unmarshal(b, &q); err == nil {
			return &q, nil
		}
	}
	q, err := uc.market.Quote(ctx, symbol)
	if err != nil {
		uc.metrics.RecordError("quote")
		return nil, err
	}
	uc.metrics.RecordFetch(symbol, "quote")
	if b, err := json.Marshal(q); err == nil {
		_ = uc.cache.SetBytes(key, b, quoteCacheTTL)
	}
	return q, nil
}

// Profile returns descriptive company data for a symbol.
func (uc *MarketUseCase) Profile(ctx context.Context, symbol string) (*models.TickerInfo, error) {
	info, err := uc.market.Profile(ctx, symbol)
	if err != nil {
		uc.metrics.RecordError("profile")
		return nil, err
	}
	return info, nil
}

// History returns the raw bar history for charting.
func (uc *MarketUseCase) History(ctx context.Context, symbol, period, interval string) ([]models.PriceBar, error) {
	p := domrepo.NormalizePeriod(period)
	iv := domrepo.NormalizeInterval(interval)
	bars, err := uc.market.Candles(ctx, symbol, p, iv)
	if err != nil {
		uc.metrics.RecordError("history")
		return nil, err
	}
	uc.metrics.RecordFetch(symbol, string(p))
	return bars, nil
}

const archiveDefaultLimit = 10000

// Archive reads previously stored bars back from the archive. An open
// range defaults to the last year ending now.
func (uc *MarketUseCase) Archive(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceBar, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("archive range start %s is not before end %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	if limit <= 0 || limit > archiveDefaultLimit {
		limit = archiveDefaultLimit
	}
	bars, err := uc.archive.Query(ctx, symbol, from, to, limit)
	if err != nil {
		if !errors.Is(err, domrepo.ErrArchiveDisabled) {
			uc.metrics.RecordError("archive")
		}
		return nil, err
	}
	return bars, nil
}

// Popular returns the curated watchlist.
func (uc *MarketUseCase) Popular() []marketdata.PopularSymbol {
	return marketdata.PopularSymbols
}

// Summary quotes every popular symbol concurrently. Symbols that fail are
// skipped rather than failing the page; a fully empty result is an error.
func (uc *MarketUseCase) Summary(ctx context.Context) ([]models.SymbolSummary, error) {
	if b, ok, _ := uc.cache.GetBytes(summaryCacheKey); ok {
		var cached []models.SymbolSummary
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	type slot struct {
		idx int
		sum models.SymbolSummary
		ok  bool
	}
	ch := make(chan slot, len(marketdata.PopularSymbols))
	var wg sync.WaitGroup
	sem := make(chan struct{}, 5)

	for i, p := range marketdata.PopularSymbols {
		wg.Add(1)
		go func(i int, p marketdata.PopularSymbol) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			q, err := uc.market.Quote(ctx, p.Symbol)
			if err != nil {
				if !errors.Is(err, marketdata.ErrNoData) {
					uc.logger.Warn("summary quote failed",
						logger.String("symbol", p.Symbol), logger.Error(err))
				}
				ch <- slot{idx: i}
				return
			}
			ch <- slot{idx: i, ok: true, sum: models.SymbolSummary{
				Symbol:        p.Symbol,
				Name:          p.Name,
				Price:         q.Price,
				Change:        q.Change,
				ChangePercent: q.ChangePercent,
			}}
		}(i, p)
	}
	go func() { wg.Wait(); close(ch) }()

	ordered := make([]*models.SymbolSummary, len(marketdata.PopularSymbols))
	for s := range ch {
		if s.ok {
			sum := s.sum
			ordered[s.idx] = &sum
		}
	}
	out := make([]models.SymbolSummary, 0, len(ordered))
	for _, s := range ordered {
		if s != nil {
			out = append(out, *s)
		}
	}
	if len(out) == 0 {
		return nil, marketdata.ErrNoData
	}
	if b, err := json.Marshal(out); err == nil {
		_ = uc.cache.SetBytes(summaryCacheKey, b, summaryCacheTTL)
	}
	return out, nil
}
