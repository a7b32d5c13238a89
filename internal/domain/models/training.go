package models

// TrainRequest carries a prepared train/test split to the AutoML trainer.
type TrainRequest struct {
	TaskType     TaskType    `json:"task_type"`
	FeatureNames []string    `json:"feature_names"`
	TrainX       [][]float64 `json:"train_x"`
	TrainY       []float64   `json:"train_y"`
	TestX        [][]float64 `json:"test_x"`
	TestY        []float64   `json:"test_y"`
	TimeBudget   int         `json:"time_budget_seconds,omitempty"`
}

// TrainedModel is the trainer's answer: a serialized artifact plus the
// metrics measured on the held-out test rows.
type TrainedModel struct {
	ModelName string             `json:"model_name"`
	Artifact  []byte             `json:"artifact"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Prediction is the trainer's inference answer for a feature matrix.
type Prediction struct {
	Values []float64 `json:"values"`
	// Labels carries decoded class names for classification tasks.
	Labels []string `json:"labels,omitempty"`
}

// ReportRequest is the structured project summary handed to the report
// renderer.
type ReportRequest struct {
	ProjectName string             `json:"project_name"`
	Symbol      string             `json:"symbol"`
	TaskType    TaskType           `json:"task_type"`
	Metrics     map[string]float64 `json:"metrics"`
	Params      map[string]any     `json:"preprocessing_params"`
	BestModelID string             `json:"best_model_id,omitempty"`
	Notes       string             `json:"notes,omitempty"`
}
