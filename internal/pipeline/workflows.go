package pipeline

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// =============================================================================
// WORKFLOW NAMES
// =============================================================================

const (
	ETLRunWorkflowName      = "etlRunWorkflow"
	TrainingRunWorkflowName = "trainingRunWorkflow"
)

// =============================================================================
// ACTIVITY OPTIONS
// =============================================================================

var defaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 30 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    3,
	},
}

// =============================================================================
// WORKFLOW INPUTS
// =============================================================================

// ETLRunInput is the input for ETLRunWorkflow.
type ETLRunInput struct {
	RunID string `json:"runId,omitempty"`
	Date  string `json:"date,omitempty"`
}

// TrainingRunInput is the input for TrainingRunWorkflow.
type TrainingRunInput struct {
	RunID string `json:"runId,omitempty"`
	Date  string `json:"date,omitempty"`
}

// =============================================================================
// ETL RUN WORKFLOW
// =============================================================================

// ETLRunWorkflow runs extract, transform and load as sequential activities.
// Each stage retries independently; a stage that exhausts its retries fails
// the whole run and marks it failed.
func ETLRunWorkflow(ctx workflow.Context, input ETLRunInput) (*LoadOutput, error) {
	logger := workflow.GetLogger(ctx)
	ref := runRef(ctx, input.RunID, input.Date)
	actCtx := workflow.WithActivityOptions(ctx, defaultActivityOptions)

	if err := markStarted(actCtx, ref, "etl"); err != nil {
		return nil, err
	}

	var extracted ExtractOutput
	err := workflow.ExecuteActivity(actCtx, "ExtractSources", ExtractInput{RunRef: ref}).Get(ctx, &extracted)
	if err != nil {
		markFailed(actCtx, ref, err)
		return nil, err
	}
	logger.Info("sources extracted",
		"supplyRows", extracted.SupplyRows, "financialRows", extracted.FinancialRows)

	var transformed TransformOutput
	err = workflow.ExecuteActivity(actCtx, "TransformSources", TransformInput{
		RunRef:       ref,
		SupplyKey:    extracted.SupplyKey,
		FinancialKey: extracted.FinancialKey,
	}).Get(ctx, &transformed)
	if err != nil {
		markFailed(actCtx, ref, err)
		return nil, err
	}

	var loaded LoadOutput
	err = workflow.ExecuteActivity(actCtx, "LoadUnified", LoadInput{
		RunRef:     ref,
		UnifiedKey: transformed.UnifiedKey,
	}).Get(ctx, &loaded)
	if err != nil {
		markFailed(actCtx, ref, err)
		return nil, err
	}

	err = workflow.ExecuteActivity(actCtx, "MarkRunCompleted", MarkRunCompletedInput{
		RunRef: ref,
		Summary: map[string]any{
			"objectUri":    loaded.ObjectURI,
			"rows":         loaded.Rows,
			"exactMatches": transformed.ExactMatches,
			"fuzzyMatches": transformed.FuzzyMatches,
			"unmatched":    transformed.Unmatched,
			"dropped":      transformed.Dropped,
			"issues":       transformed.Issues,
		},
	}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

// =============================================================================
// TRAINING RUN WORKFLOW
// =============================================================================

// TrainingRunWorkflow trains the profitability classifier on the latest
// unified snapshot and registers the result.
func TrainingRunWorkflow(ctx workflow.Context, input TrainingRunInput) (*RegisterOutput, error) {
	logger := workflow.GetLogger(ctx)
	ref := runRef(ctx, input.RunID, input.Date)
	actCtx := workflow.WithActivityOptions(ctx, defaultActivityOptions)

	if err := markStarted(actCtx, ref, "training"); err != nil {
		return nil, err
	}

	var snapshot ReadUnifiedOutput
	err := workflow.ExecuteActivity(actCtx, "ReadUnified", ReadUnifiedInput{RunRef: ref}).Get(ctx, &snapshot)
	if err != nil {
		markFailed(actCtx, ref, err)
		return nil, err
	}
	logger.Info("training snapshot staged", "source", snapshot.SourceURI, "rows", snapshot.Rows)

	var features FeaturesOutput
	err = workflow.ExecuteActivity(actCtx, "EngineerFeatures", FeaturesInput{
		RunRef:     ref,
		UnifiedKey: snapshot.UnifiedKey,
	}).Get(ctx, &features)
	if err != nil {
		markFailed(actCtx, ref, err)
		return nil, err
	}

	var trained TrainOutput
	err = workflow.ExecuteActivity(actCtx, "TrainModel", TrainInput{
		RunRef:      ref,
		FeaturesKey: features.FeaturesKey,
	}).Get(ctx, &trained)
	if err != nil {
		markFailed(actCtx, ref, err)
		return nil, err
	}
	logger.Info("model trained", "accuracy", trained.Accuracy, "f1", trained.F1)

	var registered RegisterOutput
	err = workflow.ExecuteActivity(actCtx, "RegisterModel", RegisterInput{
		RunRef:   ref,
		ModelKey: trained.ModelKey,
		Metrics:  trained,
	}).Get(ctx, &registered)
	if err != nil {
		markFailed(actCtx, ref, err)
		return nil, err
	}

	err = workflow.ExecuteActivity(actCtx, "MarkRunCompleted", MarkRunCompletedInput{
		RunRef: ref,
		Summary: map[string]any{
			"modelName":   registered.ModelName,
			"version":     registered.Version,
			"artifactUri": registered.ArtifactURI,
			"accuracy":    trained.Accuracy,
			"f1":          trained.F1,
			"trainRows":   trained.TrainRows,
			"testRows":    trained.TestRows,
		},
	}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &registered, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func runRef(ctx workflow.Context, runID, date string) RunRef {
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.RunID
	}
	if date == "" {
		date = workflow.Now(ctx).UTC().Format("2006-01-02")
	}
	return RunRef{RunID: runID, Date: date}
}

func markStarted(actCtx workflow.Context, ref RunRef, name string) error {
	info := workflow.GetInfo(actCtx)
	return workflow.ExecuteActivity(actCtx, "MarkRunStarted", MarkRunStartedInput{
		RunRef:        ref,
		Workflow:      name,
		WorkflowID:    info.WorkflowExecution.ID,
		TemporalRunID: info.WorkflowExecution.RunID,
	}).Get(actCtx, nil)
}

// markFailed is best-effort; the original failure is what the caller sees.
func markFailed(actCtx workflow.Context, ref RunRef, cause error) {
	_ = workflow.ExecuteActivity(actCtx, "MarkRunFailed", MarkRunFailedInput{
		RunRef: ref,
		Error:  cause.Error(),
	}).Get(actCtx, nil)
}
