package features

import (
	"math"
	"testing"
	"time"

	"QuantForge/internal/domain/models"
)

func barsFromCloses(closes []float64) []models.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Time:   start.AddDate(0, 0, i),
			Open:   c * 0.99,
			High:   c * 1.01,
			Low:    c * 0.98,
			Close:  c,
			Volume: 1000 + float64(i),
		}
	}
	return bars
}

func rampCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	got := rsi(rampCloses(16), 14)
	if !math.IsNaN(got[13]) {
		t.Fatalf("expected warm-up NaN at 13, got %v", got[13])
	}
	if got[14] != 100 || got[15] != 100 {
		t.Fatalf("expected 100 on pure gains, got %v %v", got[14], got[15])
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	got := rsi(closes, 14)
	if got[15] != 0 {
		t.Fatalf("expected 0 on pure losses, got %v", got[15])
	}
}

func TestRSIFlatWindowIsNaN(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 150
	}
	got := rsi(closes, 14)
	if !math.IsNaN(got[15]) {
		t.Fatalf("expected NaN on a flat window, got %v", got[15])
	}
}

func TestRollingMeanWarmUp(t *testing.T) {
	got := rollingMean([]float64{1, 2, 3, 4}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected NaN warm-up, got %v", got)
	}
	if got[2] != 2 || got[3] != 3 {
		t.Fatalf("unexpected means %v", got)
	}
}

func TestRollingStdSampleDivisor(t *testing.T) {
	got := rollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	// sample std with n-1 divisor
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got[7]-want) > 1e-12 {
		t.Fatalf("got %v want %v", got[7], want)
	}
}

func TestEMAWeightedMean(t *testing.T) {
	got := ema([]float64{10, 20}, 9)
	if got[0] != 10 {
		t.Fatalf("first value should seed the series, got %v", got[0])
	}
	// adjusted weighting: (20 + 0.8*10) / (1 + 0.8)
	want := 28.0 / 1.8
	if math.Abs(got[1]-want) > 1e-12 {
		t.Fatalf("got %v want %v", got[1], want)
	}
}

func TestAddIndicatorsColumns(t *testing.T) {
	tbl, err := FromBars(barsFromCloses(rampCloses(30)))
	if err != nil {
		t.Fatalf("from bars: %v", err)
	}
	out, err := AddIndicators(tbl)
	if err != nil {
		t.Fatalf("add indicators: %v", err)
	}
	for _, name := range []string{
		"SMA_20", "SMA_50", "SMA_200", "EMA_12", "EMA_26",
		"MACD", "MACD_Signal", "MACD_Histogram", "RSI",
		"BB_Middle", "BB_Upper", "BB_Lower",
		"Volume_SMA", "Volume_Ratio", "Daily_Return",
		"Price_Change", "Price_Change_Pct", "Volatility",
		"HL_Spread", "HL_Spread_Pct",
	} {
		if _, ok := out.Column(name); !ok {
			t.Fatalf("missing indicator column %q", name)
		}
	}
	sma, _ := out.Column("SMA_20")
	if !sma.Null[18] {
		t.Fatalf("warm-up cell should be null")
	}
	if sma.Null[19] {
		t.Fatalf("first full window should be set")
	}
	// SMA_50 never fills in 30 rows
	sma50, _ := out.Column("SMA_50")
	if sma50.NullCount() != 30 {
		t.Fatalf("SMA_50 should be all null on a 30-row series")
	}
}

func TestPriceDirectionTarget(t *testing.T) {
	tbl, err := FromBars(barsFromCloses([]float64{10, 12, 11, 15}))
	if err != nil {
		t.Fatalf("from bars: %v", err)
	}
	out, err := ClassificationTarget(tbl, TargetPriceDirection, 1)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if out.NumRows() != 3 {
		t.Fatalf("look-ahead tail not dropped: %d rows", out.NumRows())
	}
	tc, _ := out.Column(ColTarget)
	want := []float64{1, 0, 1}
	for i, w := range want {
		if tc.Nums[i] != w {
			t.Fatalf("row %d: got %v want %v", i, tc.Nums[i], w)
		}
	}
}

func TestPriceMovementThreshold(t *testing.T) {
	// +2%, -2%, +0.5% forward moves
	tbl, err := FromBars(barsFromCloses([]float64{100, 102, 99.96, 100.4598}))
	if err != nil {
		t.Fatalf("from bars: %v", err)
	}
	out, err := ClassificationTarget(tbl, TargetPriceMovement, 1)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	tc, _ := out.Column(ColTarget)
	want := []float64{1, -1, 0}
	for i, w := range want {
		if tc.Nums[i] != w {
			t.Fatalf("row %d: got %v want %v", i, tc.Nums[i], w)
		}
	}
}

func TestTargetRejectsZeroClose(t *testing.T) {
	tbl, err := FromBars(barsFromCloses([]float64{100, 0, 101, 102}))
	if err != nil {
		t.Fatalf("from bars: %v", err)
	}
	if _, err := ClassificationTarget(tbl, TargetPriceMovement, 1); err == nil {
		t.Fatalf("expected zero-close error")
	}
	if _, err := RegressionTarget(tbl, TargetReturn, 1); err == nil {
		t.Fatalf("expected zero-close error")
	}
}

func TestVolatilityBreakoutComputesBands(t *testing.T) {
	// no precomputed bands on the input table
	tbl, err := FromBars(barsFromCloses(rampCloses(30)))
	if err != nil {
		t.Fatalf("from bars: %v", err)
	}
	out, err := ClassificationTarget(tbl, TargetVolatilityBreakout, 1)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if _, ok := out.Column("BB_Upper"); !ok {
		t.Fatalf("expected indicator columns to be kept")
	}
	tc, _ := out.Column(ColTarget)
	for i, v := range tc.Nums {
		if v != -1 && v != 0 && v != 1 {
			t.Fatalf("row %d: label %v outside {-1,0,1}", i, v)
		}
	}
}

func TestNextCloseTarget(t *testing.T) {
	tbl, err := FromBars(barsFromCloses([]float64{10, 11, 12}))
	if err != nil {
		t.Fatalf("from bars: %v", err)
	}
	out, err := RegressionTarget(tbl, TargetNextClose, 1)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	tc, _ := out.Column(ColTarget)
	if tc.Nums[0] != 11 || tc.Nums[1] != 12 {
		t.Fatalf("unexpected targets %v", tc.Nums)
	}
}

func TestVolatilityTargetNeedsWindow(t *testing.T) {
	tbl, err := FromBars(barsFromCloses(rampCloses(10)))
	if err != nil {
		t.Fatalf("from bars: %v", err)
	}
	if _, err := RegressionTarget(tbl, TargetVolatility, 1); err == nil {
		t.Fatalf("expected error for periods < 2")
	}
	out, err := RegressionTarget(tbl, TargetVolatility, 2)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	tc, _ := out.Column(ColTarget)
	// constant slope: rolling std of any 2-window is 1/sqrt(2)
	want := math.Sqrt(0.5)
	if math.Abs(tc.Nums[0]-want) > 1e-12 {
		t.Fatalf("got %v want %v", tc.Nums[0], want)
	}
}

func TestBuildDatasetAllNumericNoNulls(t *testing.T) {
	tbl, err := BuildDataset(barsFromCloses(rampCloses(60)), DatasetParams{
		TaskType:       models.TaskClassification,
		Classification: TargetPriceDirection,
		WithIndicators: false,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, c := range tbl.Cols {
		if c.Kind != models.KindNumeric {
			t.Fatalf("column %q is %s, want numeric", c.Name, c.Kind)
		}
		if c.NullCount() != 0 {
			t.Fatalf("column %q has %d nulls", c.Name, c.NullCount())
		}
	}
	if _, ok := tbl.Column(ColTarget); !ok {
		t.Fatalf("missing target column")
	}
	for _, name := range []string{"Year", "Month", "DayOfWeek", "Quarter"} {
		if _, ok := tbl.Column(name); !ok {
			t.Fatalf("missing calendar column %q", name)
		}
	}
	if _, ok := tbl.Column(ColDate); ok {
		t.Fatalf("date column should be dropped")
	}
}

func TestBuildDatasetShortHistoryFails(t *testing.T) {
	// 30 rows cannot survive the SMA_200 warm-up
	_, err := BuildDataset(barsFromCloses(rampCloses(30)), DatasetParams{
		TaskType:       models.TaskClassification,
		WithIndicators: true,
	})
	if err == nil {
		t.Fatalf("expected warm-up error on a short series")
	}
}

func TestCalendarMondayIsZero(t *testing.T) {
	// 2024-01-01 is a Monday
	tbl, err := models.NewTable(models.NewTimeColumn("Date", []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), // Sunday
	}))
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	out, err := addCalendarFeatures(tbl)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	dow, _ := out.Column("DayOfWeek")
	if dow.Nums[0] != 0 || dow.Nums[1] != 6 {
		t.Fatalf("unexpected weekday codes %v", dow.Nums)
	}
	q, _ := out.Column("Quarter")
	if q.Nums[0] != 1 {
		t.Fatalf("unexpected quarter %v", q.Nums[0])
	}
}

func TestCalendarRejectsNameCollision(t *testing.T) {
	tbl, err := models.NewTable(
		models.NewTimeColumn("Date", []time.Time{
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}),
		models.NewNumericColumn("Year", []float64{2024}),
	)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if _, err := addCalendarFeatures(tbl); err == nil {
		t.Fatalf("expected error when a calendar column already exists")
	}
}
