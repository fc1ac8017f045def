package etl

import (
	"context"
	"strings"
	"testing"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/generate"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

const testFormat = "json"

func seedSources(t *testing.T, store objectstore.ObjectStore, s3 config.S3Config, n int) *generate.Output {
	t.Helper()
	ctx := context.Background()

	out, err := generate.Generate(config.GenerationConfig{
		NumRows: n, Seed: 42, OverlapFraction: 0.8, Format: testFormat,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureBucket(ctx, s3.Bucket); err != nil {
		t.Fatal(err)
	}

	supply, err := tabular.Encode(model.SupplyChainTable(out.SupplyChain), testFormat)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PutObject(ctx, s3.Bucket, objectstore.JoinKey(s3.BasePrefix, model.Source1FileStem+".json"), supply); err != nil {
		t.Fatal(err)
	}

	financial, err := tabular.Encode(model.FinancialTable(out.Financial), testFormat)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PutObject(ctx, s3.Bucket, objectstore.JoinKey(s3.BasePrefix, model.Source2FileStem+".json"), financial); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestExtractTransformLoad(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewLocalStore(t.TempDir())
	s3 := config.S3Config{Bucket: "corporate-registry", BasePrefix: "registry"}
	etlCfg := config.ETLConfig{JoinPolicy: "keep", LakeEnabled: true, LakeTable: "unified_corporate"}

	out := seedSources(t, store, s3, 50)

	extractor := &Extractor{Store: store, S3: s3, Format: testFormat}
	sources, err := extractor.Extract(ctx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if sources.SupplyChain.NumRows() != 50 || sources.Financial.NumRows() != 50 {
		t.Fatalf("extracted %d/%d rows", sources.SupplyChain.NumRows(), sources.Financial.NumRows())
	}

	transformer := &Transformer{Store: store, S3: s3, ETL: etlCfg}
	res, err := transformer.Transform(ctx, sources, "run-1")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	t.Run("every shared identity merges to one row", func(t *testing.T) {
		if res.ExactMatches != out.SharedIdentities {
			t.Errorf("ExactMatches = %d, want %d", res.ExactMatches, out.SharedIdentities)
		}
		// 50 rows per source, 40 shared: 40 merged + 10 + 10 unmatched.
		if got := len(res.Records); got != 60 {
			t.Errorf("unified rows = %d, want 60", got)
		}
	})

	t.Run("unmatched rows null-fill the missing side", func(t *testing.T) {
		nulls := 0
		for i := range res.Unified.Rows {
			if res.Unified.Rows[i]["revenue"] == nil {
				nulls++
			}
		}
		if nulls != 10 {
			t.Errorf("rows with null revenue = %d, want the 10 supply-only rows", nulls)
		}
	})

	loader := &Loader{Store: store, S3: s3, ETL: etlCfg, Format: testFormat}
	loaded, err := loader.Load(ctx, res.Unified, "2026-08-30", "run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Rows != 60 {
		t.Errorf("loaded rows = %d", loaded.Rows)
	}
	if !strings.Contains(loaded.ObjectURI, "dt=2026-08-30/run=run-1/") {
		t.Errorf("object URI = %q", loaded.ObjectURI)
	}
	if !loaded.LakeUpserted || loaded.LakeVersion != 1 || loaded.LakeRows != 60 {
		t.Errorf("lake result = %+v", loaded)
	}

	t.Run("latest unified snapshot is readable", func(t *testing.T) {
		table, key, err := LatestUnified(ctx, store, s3, testFormat)
		if err != nil {
			t.Fatalf("LatestUnified: %v", err)
		}
		if table.NumRows() != 60 {
			t.Errorf("rows = %d", table.NumRows())
		}
		if !strings.HasSuffix(key, model.UnifiedFileStem+".json") {
			t.Errorf("key = %q", key)
		}
	})
}

func TestLatestUnifiedPrefersNewestRun(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewLocalStore(t.TempDir())
	s3 := config.S3Config{Bucket: "corporate-registry", BasePrefix: "registry"}
	etlCfg := config.ETLConfig{JoinPolicy: "drop"}

	seedSources(t, store, s3, 20)

	extractor := &Extractor{Store: store, S3: s3, Format: testFormat}
	transformer := &Transformer{ETL: etlCfg}
	loader := &Loader{Store: store, S3: s3, ETL: etlCfg, Format: testFormat}

	sources, err := extractor.Extract(ctx)
	if err != nil {
		t.Fatal(err)
	}
	res, err := transformer.Transform(ctx, sources, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(ctx, res.Unified, "2026-08-29", "run-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(ctx, res.Unified, "2026-08-30", "run-2"); err != nil {
		t.Fatal(err)
	}

	_, key, err := LatestUnified(ctx, store, s3, testFormat)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(key, "dt=2026-08-30/run=run-2/") {
		t.Errorf("latest key = %q, want the newest partition", key)
	}
}

func TestExtractMissingSource(t *testing.T) {
	store := objectstore.NewLocalStore(t.TempDir())
	s3 := config.S3Config{Bucket: "corporate-registry", BasePrefix: "registry"}

	extractor := &Extractor{Store: store, S3: s3, Format: testFormat}
	if _, err := extractor.Extract(context.Background()); err == nil {
		t.Errorf("missing sources should fail extraction")
	}
}

func TestTransformCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewLocalStore(t.TempDir())
	s3 := config.S3Config{Bucket: "corporate-registry", BasePrefix: "registry"}
	etlCfg := config.ETLConfig{JoinPolicy: "keep", CheckpointPremerge: true}

	seedSources(t, store, s3, 10)

	extractor := &Extractor{Store: store, S3: s3, Format: testFormat}
	sources, err := extractor.Extract(ctx)
	if err != nil {
		t.Fatal(err)
	}
	transformer := &Transformer{Store: store, S3: s3, ETL: etlCfg}
	res, err := transformer.Transform(ctx, sources, "run-ck")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.CheckpointKeys) != 2 {
		t.Fatalf("checkpoint keys = %v", res.CheckpointKeys)
	}
	for _, key := range res.CheckpointKeys {
		data, err := store.GetObject(ctx, s3.Bucket, key)
		if err != nil {
			t.Errorf("checkpoint %s unreadable: %v", key, err)
		}
		if len(data) == 0 {
			t.Errorf("checkpoint %s empty", key)
		}
	}
}
