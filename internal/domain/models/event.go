package models

import "time"

// Event kinds published to the audit bus.
const (
	EventDatasetFetched = "dataset_fetched"
	EventModelSaved     = "model_saved"
	EventModelDeleted   = "model_deleted"
	EventReportRendered = "report_rendered"
)

// Event is one audit record describing a state-changing operation.
type Event struct {
	Kind      string            `json:"kind"`
	Symbol    string            `json:"symbol,omitempty"`
	ModelID   string            `json:"model_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}
