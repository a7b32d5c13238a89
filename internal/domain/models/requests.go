package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type FetchDatasetRequest struct {
	Session        string `query:"session" json:"session"`
	Symbol         string `query:"symbol" json:"symbol" validate:"required"`
	Period         string `query:"period" json:"period" default:"1y" validate:"omitempty,oneof=1mo 3mo 6mo 1y 2y 5y max"`
	Interval       string `query:"interval" json:"interval" default:"1d" validate:"omitempty,oneof=1d 1wk 1mo"`
	TaskType       string `json:"task_type" default:"classification" validate:"omitempty,oneof=classification regression"`
	TargetMethod   string `json:"target_method"`
	Periods        int    `json:"periods" default:"1" validate:"gte=0,lte=60"`
	WithIndicators *bool  `json:"with_indicators"`
}

type AnalyzeRequest struct {
	Session string `query:"session" json:"session" validate:"required"`
}

type PreprocessRequest struct {
	Session         string  `query:"session" json:"session" validate:"required"`
	TargetColumn    string  `json:"target_column" default:"Target"`
	TestSize        float64 `json:"test_size" default:"0.2" validate:"gte=0,lt=1"`
	MissingStrategy string  `json:"missing_strategy" default:"mean" validate:"omitempty,oneof=mean median mode knn"`
	EncodingMethod  string  `json:"encoding_method" default:"label" validate:"omitempty,oneof=label onehot"`
	ScalingMethod   string  `json:"scaling_method" default:"standard" validate:"omitempty,oneof=standard minmax"`
	SelectK         int     `json:"select_k" validate:"gte=0"`
	TaskType        string  `json:"task_type" default:"classification" validate:"omitempty,oneof=classification regression"`
	Seed            int64   `json:"seed"`
}

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type HistoryRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Period   string `query:"period" json:"period" default:"1y" validate:"omitempty,oneof=1mo 3mo 6mo 1y 2y 5y max"`
	Interval string `query:"interval" json:"interval" default:"1d" validate:"omitempty,oneof=1d 1wk 1mo"`
}

type ArchiveRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `query:"limit" json:"limit" validate:"gte=0"`
}

type TrainRequestBody struct {
	Session    string `json:"session" validate:"required"`
	Name       string `json:"name" validate:"required,max=64"`
	TimeBudget int    `json:"time_budget_seconds" validate:"gte=0,lte=3600"`
}

type PredictRequestBody struct {
	Session string `json:"session" validate:"required"`
	ModelID string `json:"model_id" validate:"required"`
	CSV     string `json:"csv" validate:"required"`
}

type ModelIDRequest struct {
	ID string `param:"id" json:"id" validate:"required"`
}

type BestModelRequest struct {
	Metric   string `query:"metric" json:"metric" default:"Accuracy" validate:"required"`
	TaskType string `query:"task_type" json:"task_type" default:"classification" validate:"oneof=classification regression"`
}

type RetainRequest struct {
	Keep int `query:"keep" json:"keep" default:"5" validate:"gte=0,lte=1000"`
}

type ReportRequestBody struct {
	Session     string `json:"session"`
	ProjectName string `json:"project_name" validate:"required,max=128"`
	Symbol      string `json:"symbol"`
	ModelID     string `json:"model_id"`
	Metric      string `json:"metric" default:"Accuracy"`
	Notes       string `json:"notes" validate:"max=2000"`
}
