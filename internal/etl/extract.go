// Package etl implements the extract, transform and load stages of the
// corporate registry pipeline.
package etl

import (
	"context"
	"fmt"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

// SourceTables holds the two extracted source tables.
type SourceTables struct {
	SupplyChain *tabular.Table
	Financial   *tabular.Table
	Issues      []model.RowIssue
}

// Extractor reads the source files from the object store.
type Extractor struct {
	Store  objectstore.ObjectStore
	S3     config.S3Config
	Format string
}

// Extract reads both source files into memory. Store errors surface to the
// caller (the scheduler owns retries); row-level problems are flagged on the
// result instead.
func (e *Extractor) Extract(ctx context.Context) (*SourceTables, error) {
	ext := tabular.Ext(e.Format)

	supplyData, err := e.Store.GetObject(ctx, e.S3.Bucket, objectstore.JoinKey(e.S3.BasePrefix, model.Source1FileStem+ext))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", model.Source1FileStem, err)
	}
	supply, err := tabular.Decode(supplyData, model.SupplyChainSchema(), e.Format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", model.Source1FileStem, err)
	}

	finData, err := e.Store.GetObject(ctx, e.S3.Bucket, objectstore.JoinKey(e.S3.BasePrefix, model.Source2FileStem+ext))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", model.Source2FileStem, err)
	}
	financial, err := tabular.Decode(finData, model.FinancialSchema(), e.Format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", model.Source2FileStem, err)
	}

	return &SourceTables{SupplyChain: supply, Financial: financial}, nil
}
