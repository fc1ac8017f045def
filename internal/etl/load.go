package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/lake"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

// LoadResult reports what the load stage persisted.
type LoadResult struct {
	ObjectURI    string `json:"objectUri"`
	Rows         int64  `json:"rows"`
	LakeRows     int64  `json:"lakeRows,omitempty"`
	LakeVersion  int64  `json:"lakeVersion,omitempty"`
	LakeUpserted bool   `json:"lakeUpserted"`
}

// Loader writes the unified table back to the object store and optionally
// upserts it into the lake dataset.
type Loader struct {
	Store  objectstore.ObjectStore
	S3     config.S3Config
	ETL    config.ETLConfig
	Format string
}

// Load persists the unified table under a dated partition. Snapshots are
// immutable; reruns on the same date land under their own run prefix, and
// only the lake upsert merges by key.
func (l *Loader) Load(ctx context.Context, unified *tabular.Table, loadDate, runID string) (*LoadResult, error) {
	if unified == nil {
		return nil, fmt.Errorf("unified table is required")
	}
	if runID == "" {
		runID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	if loadDate == "" {
		loadDate = time.Now().UTC().Format("2006-01-02")
	}

	data, err := tabular.Encode(unified, l.Format)
	if err != nil {
		return nil, fmt.Errorf("encode unified table: %w", err)
	}

	if err := l.Store.EnsureBucket(ctx, l.S3.Bucket); err != nil {
		return nil, err
	}
	key := objectstore.JoinKey(
		l.S3.BasePrefix,
		model.UnifiedFileStem,
		"dt="+loadDate,
		"run="+runID,
		model.UnifiedFileStem+tabular.Ext(l.Format),
	)
	if err := l.Store.PutObject(ctx, l.S3.Bucket, key, data); err != nil {
		return nil, err
	}

	result := &LoadResult{
		ObjectURI: fmt.Sprintf("s3://%s/%s", l.S3.Bucket, key),
		Rows:      int64(unified.NumRows()),
	}

	if l.ETL.LakeEnabled {
		dataset := lake.NewDataset(l.Store, l.S3.Bucket, objectstore.JoinKey(l.S3.BasePrefix, "lake"), l.ETL.LakeTable, "canonical_name", model.UnifiedSchema())
		part, err := dataset.Upsert(ctx, loadDate, runID, unified.Rows)
		if err != nil {
			return nil, fmt.Errorf("lake upsert: %w", err)
		}
		result.LakeUpserted = true
		result.LakeRows = part.Rows
		result.LakeVersion = part.Version
	}

	return result, nil
}

// LatestUnified finds the most recent unified snapshot under the base prefix
// and reads it back. Used by the training pipeline.
func LatestUnified(ctx context.Context, store objectstore.ObjectStore, s3 config.S3Config, format string) (*tabular.Table, string, error) {
	prefix := objectstore.JoinKey(s3.BasePrefix, model.UnifiedFileStem) + "/"
	keys, err := store.ListPrefix(ctx, s3.Bucket, prefix)
	if err != nil {
		return nil, "", err
	}
	ext := tabular.Ext(format)
	latest := ""
	for _, key := range keys {
		// Keys sort lexicographically; dt= ordering agrees with time. Among
		// runs on the same date the pick is lexicographic over run IDs.
		if len(key) > len(ext) && key[len(key)-len(ext):] == ext && key > latest {
			latest = key
		}
	}
	if latest == "" {
		return nil, "", fmt.Errorf("no unified snapshot found under s3://%s/%s", s3.Bucket, prefix)
	}

	data, err := store.GetObject(ctx, s3.Bucket, latest)
	if err != nil {
		return nil, "", err
	}
	table, err := tabular.Decode(data, model.UnifiedSchema(), format)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", latest, err)
	}
	return table, latest, nil
}
