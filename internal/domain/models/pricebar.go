package models

import "time"

// TaskType distinguishes supervised learning task kinds.
type TaskType string

const (
	TaskClassification TaskType = "classification"
	TaskRegression     TaskType = "regression"
)

// Valid reports whether the task type is one of the supported values.
func (t TaskType) Valid() bool {
	return t == TaskClassification || t == TaskRegression
}

// PriceBar is one OHLCV record of a time-ordered price series.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TickerInfo is basic descriptive data about a listed symbol.
type TickerInfo struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange"`
	Industry  string  `json:"industry"`
	Currency  string  `json:"currency"`
	MarketCap float64 `json:"market_cap"`
}

// Quote is the latest traded state of a symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PrevClose     float64 `json:"prev_close"`
}

// SymbolSummary is one row of the multi-symbol market overview.
type SymbolSummary struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Industry      string  `json:"industry"`
}
