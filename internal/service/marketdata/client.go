// Package marketdata fetches candle histories, quotes and company profiles
// from an upstream REST provider. Failures and empty result sets surface
// as ErrNoData; there is no retry or backoff here.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"QuantForge/internal/domain/models"
	drepo "QuantForge/internal/domain/repository"
	"QuantForge/internal/service/ratelimit"
	pkghttp "QuantForge/pkg/http"
	"QuantForge/pkg/util"
)

// ErrNoData is returned when the provider has no candles for the requested
// symbol and range, or when the symbol is unknown.
var ErrNoData = errors.New("no data for symbol")

// ErrRateLimited is returned when the local request budget is exhausted.
var ErrRateLimited = errors.New("provider rate limit exceeded")

// Client implements repository.MarketData over the provider's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *pkghttp.Client
	limiter *ratelimit.Limiter

	rateCapacity float64
	ratePerSec   float64
	now          func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *pkghttp.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRateLimit sets the token-bucket budget for outbound calls.
func WithRateLimit(capacity, perSec float64) Option {
	return func(cl *Client) {
		cl.rateCapacity = capacity
		cl.ratePerSec = perSec
	}
}

// New creates a provider client.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		limiter:      ratelimit.New(),
		rateCapacity: 30,
		ratePerSec:   0.5,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = pkghttp.NewClient()
	}
	return c
}

type candleResponse struct {
	Status string    `json:"s"`
	Time   []int64   `json:"t"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []float64 `json:"v"`
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	PrevClose     float64 `json:"pc"`
}

type profileResponse struct {
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange"`
	Industry      string  `json:"finnhubIndustry"`
	Currency      string  `json:"currency"`
	MarketCapital float64 `json:"marketCapitalization"`
}

// Candles fetches a time-ordered bar history for symbol over the period.
func (c *Client) Candles(ctx context.Context, symbol string, period drepo.Period, interval drepo.Interval) ([]models.PriceBar, error) {
	if !c.limiter.Allow("candles", c.rateCapacity, c.ratePerSec) {
		return nil, ErrRateLimited
	}
	from, to := drepo.PeriodRange(period, c.now())
	from, _ = util.AlignFromTo(from, to, string(interval))

	var resp candleResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {resolution(interval)},
			"from":       {fmt.Sprintf("%d", from.Unix())},
			"to":         {fmt.Sprintf("%d", to.Unix())},
			"token":      {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}
	if resp.Status != "ok" || len(resp.Time) == 0 {
		return nil, fmt.Errorf("%s %s/%s: %w", symbol, period, interval, ErrNoData)
	}
	if len(resp.Open) != len(resp.Time) || len(resp.High) != len(resp.Time) ||
		len(resp.Low) != len(resp.Time) || len(resp.Close) != len(resp.Time) ||
		len(resp.Volume) != len(resp.Time) {
		return nil, fmt.Errorf("%s: ragged candle arrays from provider", symbol)
	}

	bars := make([]models.PriceBar, len(resp.Time))
	for i := range resp.Time {
		bars[i] = models.PriceBar{
			Time:   time.Unix(resp.Time[i], 0).UTC(),
			Open:   resp.Open[i],
			High:   resp.High[i],
			Low:    resp.Low[i],
			Close:  resp.Close[i],
			Volume: resp.Volume[i],
		}
	}
	return bars, nil
}

// Quote fetches the latest traded state of symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if !c.limiter.Allow("quote", c.rateCapacity, c.ratePerSec) {
		return nil, ErrRateLimited
	}
	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	// the provider answers zeros for unknown symbols instead of an error
	if resp.Current == 0 && resp.PrevClose == 0 {
		return nil, fmt.Errorf("quote %s: %w", symbol, ErrNoData)
	}
	return &models.Quote{
		Symbol:        symbol,
		Price:         resp.Current,
		Change:        resp.Change,
		ChangePercent: resp.ChangePercent,
		High:          resp.High,
		Low:           resp.Low,
		PrevClose:     resp.PrevClose,
	}, nil
}

// Profile fetches descriptive company data for symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*models.TickerInfo, error) {
	if !c.limiter.Allow("profile", c.rateCapacity, c.ratePerSec) {
		return nil, ErrRateLimited
	}
	var resp profileResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/stock/profile2",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch profile for %s: %w", symbol, err)
	}
	if resp.Name == "" {
		return nil, fmt.Errorf("profile %s: %w", symbol, ErrNoData)
	}
	return &models.TickerInfo{
		Symbol:    symbol,
		Name:      resp.Name,
		Exchange:  resp.Exchange,
		Industry:  resp.Industry,
		Currency:  resp.Currency,
		MarketCap: resp.MarketCapital,
	}, nil
}

func resolution(iv drepo.Interval) string {
	switch iv {
	case drepo.Interval1Wk:
		return "W"
	case drepo.Interval1Mo:
		return "M"
	default:
		return "D"
	}
}
