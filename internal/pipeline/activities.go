// Package pipeline holds the Temporal workflows and activities that
// orchestrate the registry ETL and training runs.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/etl"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/ml"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/registry"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

// Activities holds the activity implementations and their dependencies.
type Activities struct {
	Store    objectstore.ObjectStore
	Cfg      *config.Config
	Registry *registry.Client // nil when no registry database is configured
}

// NewActivities creates an Activities instance.
func NewActivities(store objectstore.ObjectStore, cfg *config.Config, reg *registry.Client) *Activities {
	return &Activities{Store: store, Cfg: cfg, Registry: reg}
}

// =============================================================================
// RUN BOOKKEEPING
// =============================================================================

// RunStatus is the status document kept per run in the object store.
type RunStatus struct {
	RunID         string         `json:"runId"`
	Workflow      string         `json:"workflow,omitempty"`
	Status        string         `json:"status"`
	WorkflowID    string         `json:"workflowId,omitempty"`
	TemporalRunID string         `json:"temporalRunId,omitempty"`
	StartedAt     time.Time      `json:"startedAt,omitempty"`
	FinishedAt    time.Time      `json:"finishedAt,omitempty"`
	Error         string         `json:"error,omitempty"`
	Summary       map[string]any `json:"summary,omitempty"`
}

// MarkRunStarted records the run as running.
func (a *Activities) MarkRunStarted(ctx context.Context, input MarkRunStartedInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("run started", "runId", input.RunID, "workflow", input.Workflow)
	return a.writeStatus(ctx, input.RunID, &RunStatus{
		RunID:         input.RunID,
		Workflow:      input.Workflow,
		Status:        "RUNNING",
		WorkflowID:    input.WorkflowID,
		TemporalRunID: input.TemporalRunID,
		StartedAt:     time.Now().UTC(),
	})
}

// MarkRunCompleted records the run as completed with a summary.
func (a *Activities) MarkRunCompleted(ctx context.Context, input MarkRunCompletedInput) error {
	status, _ := a.readStatus(ctx, input.RunID)
	status.RunID = input.RunID
	status.Status = "COMPLETED"
	status.FinishedAt = time.Now().UTC()
	status.Summary = input.Summary
	return a.writeStatus(ctx, input.RunID, status)
}

// MarkRunFailed records the run as failed with the error message.
func (a *Activities) MarkRunFailed(ctx context.Context, input MarkRunFailedInput) error {
	status, _ := a.readStatus(ctx, input.RunID)
	status.RunID = input.RunID
	status.Status = "FAILED"
	status.FinishedAt = time.Now().UTC()
	status.Error = input.Error
	return a.writeStatus(ctx, input.RunID, status)
}

func (a *Activities) writeStatus(ctx context.Context, runID string, status *RunStatus) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	if err := a.Store.EnsureBucket(ctx, a.Cfg.S3.Bucket); err != nil {
		return err
	}
	return a.Store.PutObject(ctx, a.Cfg.S3.Bucket, a.statusKey(runID), data)
}

func (a *Activities) readStatus(ctx context.Context, runID string) (*RunStatus, error) {
	status := &RunStatus{}
	data, err := a.Store.GetObject(ctx, a.Cfg.S3.Bucket, a.statusKey(runID))
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(data, status); err != nil {
		return &RunStatus{}, err
	}
	return status, nil
}

func (a *Activities) statusKey(runID string) string {
	return objectstore.JoinKey(a.Cfg.S3.BasePrefix, "runs", runID, "status.json")
}

func (a *Activities) stagingKey(runID, name string) string {
	return objectstore.JoinKey(a.Cfg.S3.BasePrefix, "runs", runID, "staging", name)
}

// =============================================================================
// ETL ACTIVITIES
// =============================================================================

// ExtractSources reads both source files and stages them as JSONL for the
// downstream activities. Tables move between activities through the object
// store so workflow histories stay small.
func (a *Activities) ExtractSources(ctx context.Context, input ExtractInput) (*ExtractOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("extracting sources", "runId", input.RunID, "format", a.Cfg.Generation.Format)

	extractor := &etl.Extractor{Store: a.Store, S3: a.Cfg.S3, Format: a.Cfg.Generation.Format}
	sources, err := extractor.Extract(ctx)
	if err != nil {
		return nil, err
	}

	out := &ExtractOutput{
		SupplyKey:     a.stagingKey(input.RunID, "supply_chain.json"),
		FinancialKey:  a.stagingKey(input.RunID, "financial.json"),
		SupplyRows:    len(sources.SupplyChain.Rows),
		FinancialRows: len(sources.Financial.Rows),
		Issues:        len(sources.Issues),
	}
	if err := a.stageTable(ctx, out.SupplyKey, sources.SupplyChain); err != nil {
		return nil, err
	}
	if err := a.stageTable(ctx, out.FinancialKey, sources.Financial); err != nil {
		return nil, err
	}
	return out, nil
}

// TransformSources resolves entities across the staged source tables and
// stages the unified table.
func (a *Activities) TransformSources(ctx context.Context, input TransformInput) (*TransformOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("transforming sources", "runId", input.RunID)

	supply, err := a.unstageTable(ctx, input.SupplyKey, model.SupplyChainSchema())
	if err != nil {
		return nil, err
	}
	financial, err := a.unstageTable(ctx, input.FinancialKey, model.FinancialSchema())
	if err != nil {
		return nil, err
	}

	transformer := &etl.Transformer{Store: a.Store, S3: a.Cfg.S3, ETL: a.Cfg.ETL}
	res, err := transformer.Transform(ctx, &etl.SourceTables{SupplyChain: supply, Financial: financial}, input.RunID)
	if err != nil {
		return nil, err
	}

	out := &TransformOutput{
		UnifiedKey:   a.stagingKey(input.RunID, "unified.json"),
		Rows:         len(res.Unified.Rows),
		ExactMatches: res.ExactMatches,
		FuzzyMatches: res.FuzzyMatches,
		Unmatched:    res.Unmatched,
		Dropped:      res.Dropped,
		Issues:       len(res.Issues),
	}
	logger.Info("entity resolution done",
		"exact", out.ExactMatches, "fuzzy", out.FuzzyMatches,
		"unmatched", out.Unmatched, "dropped", out.Dropped)

	if err := a.stageTable(ctx, out.UnifiedKey, res.Unified); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadUnified persists the staged unified table under its dated partition
// and upserts it into the lake dataset when enabled.
func (a *Activities) LoadUnified(ctx context.Context, input LoadInput) (*LoadOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("loading unified table", "runId", input.RunID)

	unified, err := a.unstageTable(ctx, input.UnifiedKey, model.UnifiedSchema())
	if err != nil {
		return nil, err
	}

	loader := &etl.Loader{Store: a.Store, S3: a.Cfg.S3, ETL: a.Cfg.ETL, Format: a.Cfg.Generation.Format}
	res, err := loader.Load(ctx, unified, input.Date, input.RunID)
	if err != nil {
		return nil, err
	}
	return &LoadOutput{
		ObjectURI:    res.ObjectURI,
		Rows:         res.Rows,
		LakeRows:     res.LakeRows,
		LakeVersion:  res.LakeVersion,
		LakeUpserted: res.LakeUpserted,
	}, nil
}

func (a *Activities) stageTable(ctx context.Context, key string, t *tabular.Table) error {
	data, err := tabular.WriteJSON(t)
	if err != nil {
		return err
	}
	return a.Store.PutObject(ctx, a.Cfg.S3.Bucket, key, data)
}

func (a *Activities) unstageTable(ctx context.Context, key string, schema *tabular.Schema) (*tabular.Table, error) {
	data, err := a.Store.GetObject(ctx, a.Cfg.S3.Bucket, key)
	if err != nil {
		return nil, err
	}
	return tabular.ReadJSON(data, schema)
}

// =============================================================================
// TRAINING ACTIVITIES
// =============================================================================

// ReadUnified locates the latest unified snapshot and stages a copy for the
// training run, so the run keeps working on one fixed snapshot even if a
// concurrent ETL run lands a newer one.
func (a *Activities) ReadUnified(ctx context.Context, input ReadUnifiedInput) (*ReadUnifiedOutput, error) {
	logger := activity.GetLogger(ctx)

	unified, uri, err := etl.LatestUnified(ctx, a.Store, a.Cfg.S3, a.Cfg.Generation.Format)
	if err != nil {
		return nil, fmt.Errorf("locate training data: %w", err)
	}
	logger.Info("staged unified snapshot", "runId", input.RunID, "source", uri, "rows", len(unified.Rows))

	out := &ReadUnifiedOutput{
		UnifiedKey: a.stagingKey(input.RunID, "training_unified.json"),
		SourceURI:  uri,
		Rows:       len(unified.Rows),
	}
	if err := a.stageTable(ctx, out.UnifiedKey, unified); err != nil {
		return nil, err
	}
	return out, nil
}

// EngineerFeatures builds the feature matrix and labels from the staged
// snapshot and stages the dataset.
func (a *Activities) EngineerFeatures(ctx context.Context, input FeaturesInput) (*FeaturesOutput, error) {
	logger := activity.GetLogger(ctx)

	unified, err := a.unstageTable(ctx, input.UnifiedKey, model.UnifiedSchema())
	if err != nil {
		return nil, err
	}
	records, err := model.UnifiedRecords(unified)
	if err != nil {
		return nil, err
	}
	ds, err := ml.BuildFeatures(records, a.Cfg.ML.ProfitThreshold)
	if err != nil {
		return nil, err
	}
	logger.Info("features engineered", "runId", input.RunID, "rows", ds.NumRows(), "skipped", len(ds.Skipped))

	out := &FeaturesOutput{
		FeaturesKey: a.stagingKey(input.RunID, "features.json"),
		Rows:        ds.NumRows(),
		Skipped:     len(ds.Skipped),
	}
	data, err := ml.EncodeDataset(ds)
	if err != nil {
		return nil, err
	}
	if err := a.Store.PutObject(ctx, a.Cfg.S3.Bucket, out.FeaturesKey, data); err != nil {
		return nil, err
	}
	return out, nil
}

// TrainModel splits the staged dataset, trains the profitability classifier
// and stages the artifact with its holdout metrics.
func (a *Activities) TrainModel(ctx context.Context, input TrainInput) (*TrainOutput, error) {
	logger := activity.GetLogger(ctx)

	data, err := a.Store.GetObject(ctx, a.Cfg.S3.Bucket, input.FeaturesKey)
	if err != nil {
		return nil, err
	}
	ds, err := ml.DecodeDataset(data)
	if err != nil {
		return nil, err
	}
	split, err := ml.Split(ds, a.Cfg.ML.TrainRatio, a.Cfg.ML.Seed)
	if err != nil {
		return nil, err
	}

	trained, err := ml.Train(split.XTrain, split.YTrain, ds.Names, a.Cfg.ML.ProfitThreshold, ml.TrainConfig{
		LearningRate: a.Cfg.ML.LearningRate,
		Epochs:       a.Cfg.ML.Epochs,
	})
	if err != nil {
		return nil, err
	}
	metrics, err := ml.Evaluate(trained, split.XTest, split.YTest)
	if err != nil {
		return nil, err
	}
	logger.Info("model trained",
		"accuracy", metrics.Accuracy, "precision", metrics.Precision,
		"recall", metrics.Recall, "f1", metrics.F1)

	out := &TrainOutput{
		ModelKey:  a.stagingKey(input.RunID, "model.json"),
		TrainRows: len(split.YTrain),
		TestRows:  len(split.YTest),
		Skipped:   len(ds.Skipped),
		Accuracy:  metrics.Accuracy,
		Precision: metrics.Precision,
		Recall:    metrics.Recall,
		F1:        metrics.F1,
	}
	artifact, err := json.Marshal(trained)
	if err != nil {
		return nil, err
	}
	if err := a.Store.PutObject(ctx, a.Cfg.S3.Bucket, out.ModelKey, artifact); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterModel logs the staged model to the registry as a new version.
func (a *Activities) RegisterModel(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if a.Registry == nil {
		return nil, fmt.Errorf("model registry is not configured")
	}
	logger := activity.GetLogger(ctx)

	data, err := a.Store.GetObject(ctx, a.Cfg.S3.Bucket, input.ModelKey)
	if err != nil {
		return nil, err
	}
	var trained ml.Model
	if err := json.Unmarshal(data, &trained); err != nil {
		return nil, fmt.Errorf("parse staged model: %w", err)
	}

	metrics := &ml.Metrics{
		Accuracy:  input.Metrics.Accuracy,
		Precision: input.Metrics.Precision,
		Recall:    input.Metrics.Recall,
		F1:        input.Metrics.F1,
		Rows:      input.Metrics.TestRows,
	}
	mv, err := a.Registry.LogModel(ctx, a.Cfg.Registry.ModelName, &trained, metrics)
	if err != nil {
		return nil, err
	}
	logger.Info("model registered", "model", mv.ModelName, "version", mv.Version, "artifact", mv.ArtifactURI)
	return &RegisterOutput{
		ModelName:   mv.ModelName,
		Version:     mv.Version,
		ArtifactURI: mv.ArtifactURI,
	}, nil
}
