package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/resolve"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

// TransformResult is the harmonized output plus quality flags and match
// statistics.
type TransformResult struct {
	Unified *tabular.Table
	Records []model.UnifiedRecord
	Issues  []model.RowIssue

	ExactMatches int
	FuzzyMatches int
	Unmatched    int
	Dropped      int

	CheckpointKeys []string
}

// Transformer cleans both source tables, resolves entities across them and
// harmonizes the result into the unified schema.
type Transformer struct {
	Store objectstore.ObjectStore // required only when checkpointing
	S3    config.S3Config
	ETL   config.ETLConfig
}

// Transform runs clean, resolve and harmonize over the extracted tables.
// Malformed rows are flagged and skipped; the batch never aborts on
// row-level problems.
func (t *Transformer) Transform(ctx context.Context, sources *SourceTables, runID string) (*TransformResult, error) {
	if sources == nil || sources.SupplyChain == nil || sources.Financial == nil {
		return nil, fmt.Errorf("both source tables are required")
	}

	res := &TransformResult{}
	res.Issues = append(res.Issues, sources.Issues...)

	supply, issues := model.SupplyChainRecords(sources.SupplyChain)
	res.Issues = append(res.Issues, issues...)
	cleanSupply(supply)

	financial, issues := model.FinancialRecords(sources.Financial)
	res.Issues = append(res.Issues, issues...)
	cleanFinancial(financial)

	if t.ETL.CheckpointPremerge && t.Store != nil {
		keys, err := t.checkpoint(ctx, supply, financial, runID)
		if err != nil {
			// Checkpoints are best-effort; flag and continue.
			res.Issues = append(res.Issues, model.RowIssue{
				Source: "unified", Reason: fmt.Sprintf("premerge checkpoint failed: %v", err),
			})
		} else {
			res.CheckpointKeys = keys
		}
	}

	merged := resolve.Merge(supply, financial, resolve.Policy{
		FuzzyThreshold: float32(t.ETL.FuzzyThreshold),
		JoinPolicy:     t.ETL.JoinPolicy,
	})
	res.Records = merged.Records
	res.Issues = append(res.Issues, merged.Issues...)
	res.ExactMatches = merged.ExactMatches
	res.FuzzyMatches = merged.FuzzyMatches
	res.Unmatched = merged.Unmatched
	res.Dropped = merged.Dropped

	res.Unified = model.UnifiedTable(merged.Records)
	return res, nil
}

// checkpoint persists the cleaned pre-merge tables as JSONL for debugging
// failed merges.
func (t *Transformer) checkpoint(ctx context.Context, supply []model.SupplyChainRecord, financial []model.FinancialRecord, runID string) ([]string, error) {
	supplyData, err := tabular.WriteJSON(model.SupplyChainTable(supply))
	if err != nil {
		return nil, err
	}
	finData, err := tabular.WriteJSON(model.FinancialTable(financial))
	if err != nil {
		return nil, err
	}

	keys := []string{
		objectstore.JoinKey(t.S3.BasePrefix, "checkpoints", "run="+runID, "premerge_supply_chain.jsonl"),
		objectstore.JoinKey(t.S3.BasePrefix, "checkpoints", "run="+runID, "premerge_financial.jsonl"),
	}
	if err := t.Store.PutObject(ctx, t.S3.Bucket, keys[0], supplyData); err != nil {
		return nil, err
	}
	if err := t.Store.PutObject(ctx, t.S3.Bucket, keys[1], finData); err != nil {
		return nil, err
	}
	return keys, nil
}

func cleanSupply(records []model.SupplyChainRecord) {
	for i := range records {
		records[i].CompanyName = strings.TrimSpace(records[i].CompanyName)
		records[i].Address = strings.TrimSpace(records[i].Address)
		records[i].ActivityLocations = trimAll(records[i].ActivityLocations)
		records[i].TopSuppliers = trimAll(records[i].TopSuppliers)
	}
}

func cleanFinancial(records []model.FinancialRecord) {
	for i := range records {
		records[i].Corporation = strings.TrimSpace(records[i].Corporation)
		records[i].MainCustomers = trimAll(records[i].MainCustomers)
	}
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
