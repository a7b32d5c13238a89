package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	drepo "QuantForge/internal/domain/repository"
)

func TestCandles(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/candle" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"symbol":     q.Get("symbol"),
			"resolution": q.Get("resolution"),
			"token":      q.Get("token"),
		}
		json.NewEncoder(w).Encode(map[string]any{
			"s": "ok",
			"t": []int64{1704153600, 1704240000},
			"o": []float64{185, 186},
			"h": []float64{187, 188},
			"l": []float64{184, 185},
			"c": []float64{186.5, 187.2},
			"v": []float64{1000, 1100},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	bars, err := c.Candles(context.Background(), "AAPL", drepo.Period1Mo, drepo.Interval1D)
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 186.5 || bars[1].Volume != 1100 {
		t.Fatalf("unexpected bars %+v", bars)
	}
	if bars[0].Time.Location().String() != "UTC" {
		t.Fatalf("bar times should be UTC")
	}
	if gotQuery["symbol"] != "AAPL" || gotQuery["resolution"] != "D" || gotQuery["token"] != "test-key" {
		t.Fatalf("unexpected query %v", gotQuery)
	}
}

func TestCandlesNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"s": "no_data"})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	if _, err := c.Candles(context.Background(), "NOPE", drepo.Period1Y, drepo.Interval1D); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestCandlesRaggedArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"s": "ok",
			"t": []int64{1704153600, 1704240000},
			"o": []float64{185},
			"h": []float64{187, 188},
			"l": []float64{184, 185},
			"c": []float64{186.5, 187.2},
			"v": []float64{1000, 1100},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	if _, err := c.Candles(context.Background(), "AAPL", drepo.Period1Y, drepo.Interval1D); err == nil {
		t.Fatalf("expected error for ragged arrays")
	}
}

func TestWeeklyResolution(t *testing.T) {
	var res string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res = r.URL.Query().Get("resolution")
		json.NewEncoder(w).Encode(map[string]any{
			"s": "ok",
			"t": []int64{1704153600},
			"o": []float64{1}, "h": []float64{1}, "l": []float64{1}, "c": []float64{1}, "v": []float64{1},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	if _, err := c.Candles(context.Background(), "AAPL", drepo.Period1Y, drepo.Interval1Wk); err != nil {
		t.Fatalf("candles: %v", err)
	}
	if res != "W" {
		t.Fatalf("expected weekly resolution, got %q", res)
	}
}

func TestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"c": 187.5, "d": 1.2, "dp": 0.64, "h": 188.0, "l": 185.4, "pc": 186.3,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	q, err := c.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Price != 187.5 || q.PrevClose != 186.3 || q.Symbol != "AAPL" {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestQuoteUnknownSymbolIsZeros(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"c": 0, "pc": 0})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	if _, err := c.Quote(context.Background(), "NOPE"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name":                 "Apple Inc",
			"exchange":             "NASDAQ",
			"finnhubIndustry":      "Technology",
			"currency":             "USD",
			"marketCapitalization": 2900000.0,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	info, err := c.Profile(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if info.Name != "Apple Inc" || info.Industry != "Technology" || info.MarketCap != 2900000 {
		t.Fatalf("unexpected profile %+v", info)
	}
}

func TestProfileUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	if _, err := c.Profile(context.Background(), "NOPE"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"c": 1.0, "pc": 1.0})
	}))
	defer srv.Close()

	c := New(srv.URL, "k", WithRateLimit(1, 0))
	if _, err := c.Quote(context.Background(), "AAPL"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	if _, err := c.Quote(context.Background(), "AAPL"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
