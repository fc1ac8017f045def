package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

// LocalFiles are the paths written by WriteLocal, keyed by source stem.
type LocalFiles map[string]string

// WriteLocal encodes both sources in the configured format and writes them to
// the output directory. Skip flags suppress individual sources.
func WriteLocal(out *Output, gen config.GenerationConfig, upload config.UploadConfig) (LocalFiles, error) {
	if err := os.MkdirAll(gen.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := LocalFiles{}
	ext := tabular.Ext(gen.Format)

	if !upload.SkipSource1 {
		data, err := tabular.Encode(model.SupplyChainTable(out.SupplyChain), gen.Format)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", model.Source1FileStem, err)
		}
		path := filepath.Join(gen.OutputDir, model.Source1FileStem+ext)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		files[model.Source1FileStem] = path
	}

	if !upload.SkipSource2 {
		data, err := tabular.Encode(model.FinancialTable(out.Financial), gen.Format)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", model.Source2FileStem, err)
		}
		path := filepath.Join(gen.OutputDir, model.Source2FileStem+ext)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		files[model.Source2FileStem] = path
	}

	return files, nil
}

// Upload pushes previously written local files to the object store under the
// configured bucket and prefix. Callers honoring --no-upload never invoke
// this, so no store-write calls are made at all.
func Upload(ctx context.Context, store objectstore.ObjectStore, files LocalFiles, s3 config.S3Config, format string) ([]string, error) {
	if err := store.EnsureBucket(ctx, s3.Bucket); err != nil {
		return nil, err
	}

	ext := tabular.Ext(format)
	var uploaded []string
	for _, stem := range []string{model.Source1FileStem, model.Source2FileStem} {
		path, ok := files[stem]
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		key := objectstore.JoinKey(s3.BasePrefix, stem+ext)
		if err := store.PutObject(ctx, s3.Bucket, key, data); err != nil {
			return nil, err
		}
		uploaded = append(uploaded, fmt.Sprintf("s3://%s/%s", s3.Bucket, key))
	}
	return uploaded, nil
}
