package pipeline

// =============================================================================
// ACTIVITY INPUTS/OUTPUTS
// =============================================================================

// RunRef identifies one pipeline run.
type RunRef struct {
	RunID string `json:"runId"`
	Date  string `json:"date"` // dt partition, YYYY-MM-DD
}

// MarkRunStartedInput is the input for MarkRunStarted.
type MarkRunStartedInput struct {
	RunRef
	Workflow      string `json:"workflow"`
	WorkflowID    string `json:"workflowId"`
	TemporalRunID string `json:"temporalRunId"`
}

// MarkRunCompletedInput is the input for MarkRunCompleted.
type MarkRunCompletedInput struct {
	RunRef
	Summary map[string]any `json:"summary,omitempty"`
}

// MarkRunFailedInput is the input for MarkRunFailed.
type MarkRunFailedInput struct {
	RunRef
	Error string `json:"error"`
}

// ExtractInput is the input for ExtractSources.
type ExtractInput struct {
	RunRef
}

// ExtractOutput points at the staged source tables. Activities hand tables to
// each other through the object store, not through workflow payloads.
type ExtractOutput struct {
	SupplyKey     string `json:"supplyKey"`
	FinancialKey  string `json:"financialKey"`
	SupplyRows    int    `json:"supplyRows"`
	FinancialRows int    `json:"financialRows"`
	Issues        int    `json:"issues"`
}

// TransformInput is the input for TransformSources.
type TransformInput struct {
	RunRef
	SupplyKey    string `json:"supplyKey"`
	FinancialKey string `json:"financialKey"`
}

// TransformOutput points at the staged unified table plus match statistics.
type TransformOutput struct {
	UnifiedKey   string `json:"unifiedKey"`
	Rows         int    `json:"rows"`
	ExactMatches int    `json:"exactMatches"`
	FuzzyMatches int    `json:"fuzzyMatches"`
	Unmatched    int    `json:"unmatched"`
	Dropped      int    `json:"dropped"`
	Issues       int    `json:"issues"`
}

// LoadInput is the input for LoadUnified.
type LoadInput struct {
	RunRef
	UnifiedKey string `json:"unifiedKey"`
}

// LoadOutput reports where the unified snapshot landed.
type LoadOutput struct {
	ObjectURI    string `json:"objectUri"`
	Rows         int64  `json:"rows"`
	LakeRows     int64  `json:"lakeRows,omitempty"`
	LakeVersion  int64  `json:"lakeVersion,omitempty"`
	LakeUpserted bool   `json:"lakeUpserted"`
}

// ReadUnifiedInput is the input for ReadUnified.
type ReadUnifiedInput struct {
	RunRef
}

// ReadUnifiedOutput points at the staged copy of the latest unified snapshot.
type ReadUnifiedOutput struct {
	UnifiedKey string `json:"unifiedKey"`
	SourceURI  string `json:"sourceUri"`
	Rows       int    `json:"rows"`
}

// FeaturesInput is the input for EngineerFeatures.
type FeaturesInput struct {
	RunRef
	UnifiedKey string `json:"unifiedKey"`
}

// FeaturesOutput points at the staged feature dataset.
type FeaturesOutput struct {
	FeaturesKey string `json:"featuresKey"`
	Rows        int    `json:"rows"`
	Skipped     int    `json:"skipped"`
}

// TrainInput is the input for TrainModel.
type TrainInput struct {
	RunRef
	FeaturesKey string `json:"featuresKey"`
}

// TrainOutput points at the staged model artifact and its holdout metrics.
type TrainOutput struct {
	ModelKey  string  `json:"modelKey"`
	TrainRows int     `json:"trainRows"`
	TestRows  int     `json:"testRows"`
	Skipped   int     `json:"skipped"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// RegisterInput is the input for RegisterModel.
type RegisterInput struct {
	RunRef
	ModelKey string      `json:"modelKey"`
	Metrics  TrainOutput `json:"metrics"`
}

// RegisterOutput reports the registered model version.
type RegisterOutput struct {
	ModelName   string `json:"modelName"`
	Version     int64  `json:"version"`
	ArtifactURI string `json:"artifactUri"`
}
