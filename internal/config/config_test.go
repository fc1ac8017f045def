package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("", Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.NumRows != 100 {
		t.Errorf("NumRows = %d, want 100", cfg.Generation.NumRows)
	}
	if cfg.Generation.Format != "parquet" {
		t.Errorf("Format = %q, want parquet", cfg.Generation.Format)
	}
	if cfg.S3.Bucket != "corporate-registry" {
		t.Errorf("Bucket = %q", cfg.S3.Bucket)
	}
	if !cfg.Upload.Enabled {
		t.Errorf("upload should default to enabled")
	}
	if cfg.ETL.JoinPolicy != "keep" {
		t.Errorf("JoinPolicy = %q, want keep", cfg.ETL.JoinPolicy)
	}
	if cfg.ML.TrainRatio != 0.8 {
		t.Errorf("TrainRatio = %v, want 0.8", cfg.ML.TrainRatio)
	}
}

func TestPrecedence(t *testing.T) {
	t.Setenv("PIPELINE_BUCKET", "env-bucket")
	t.Setenv("PIPELINE_NUM_ROWS", "5")
	t.Setenv("PIPELINE_FORMAT", "csv")

	t.Run("environment beats defaults", func(t *testing.T) {
		cfg, err := Load("", Overrides{})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.S3.Bucket != "env-bucket" {
			t.Errorf("Bucket = %q, want env-bucket", cfg.S3.Bucket)
		}
		if cfg.Generation.NumRows != 5 {
			t.Errorf("NumRows = %d, want 5", cfg.Generation.NumRows)
		}
	})

	path := filepath.Join(t.TempDir(), "config.json")
	fileCfg := `{"s3": {"bucket": "file-bucket"}, "generation": {"numRows": 50, "format": "csv"}}`
	if err := os.WriteFile(path, []byte(fileCfg), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("file beats environment", func(t *testing.T) {
		cfg, err := Load(path, Overrides{})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.S3.Bucket != "file-bucket" {
			t.Errorf("Bucket = %q, want file-bucket", cfg.S3.Bucket)
		}
		if cfg.Generation.NumRows != 50 {
			t.Errorf("NumRows = %d, want 50", cfg.Generation.NumRows)
		}
	})

	t.Run("cli beats file", func(t *testing.T) {
		cfg, err := Load(path, Overrides{NumRows: 1000, Bucket: "cli-bucket", Format: "json"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.S3.Bucket != "cli-bucket" {
			t.Errorf("Bucket = %q, want cli-bucket", cfg.S3.Bucket)
		}
		if cfg.Generation.NumRows != 1000 {
			t.Errorf("NumRows = %d, want 1000", cfg.Generation.NumRows)
		}
		if cfg.Generation.Format != "json" {
			t.Errorf("Format = %q, want json", cfg.Generation.Format)
		}
	})
}

func TestNoUploadOverride(t *testing.T) {
	cfg, err := Load("", Overrides{NoUpload: true, SkipSource1: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Upload.Enabled {
		t.Errorf("NoUpload should disable uploads")
	}
	if !cfg.Upload.SkipSource1 || cfg.Upload.SkipSource2 {
		t.Errorf("skip flags wrong: %+v", cfg.Upload)
	}
}

func TestValidation(t *testing.T) {
	t.Run("bad format", func(t *testing.T) {
		if _, err := Load("", Overrides{Format: "xml"}); err == nil {
			t.Errorf("unknown format should fail")
		}
	})

	t.Run("format is case insensitive", func(t *testing.T) {
		cfg, err := Load("", Overrides{Format: "Parquet"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Generation.Format != "parquet" {
			t.Errorf("Format = %q", cfg.Generation.Format)
		}
	})

	t.Run("missing credentials fail fast", func(t *testing.T) {
		t.Setenv("MINIO_ENDPOINT", "localhost:9000")
		if _, err := Load("", Overrides{}); err == nil {
			t.Errorf("upload against an endpoint without credentials should fail")
		}
	})

	t.Run("no-upload skips the credential check", func(t *testing.T) {
		t.Setenv("MINIO_ENDPOINT", "localhost:9000")
		if _, err := Load("", Overrides{NoUpload: true}); err != nil {
			t.Errorf("Load: %v", err)
		}
	})

	t.Run("bad join policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(`{"etl": {"joinPolicy": "outer"}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, Overrides{}); err == nil {
			t.Errorf("unknown join policy should fail")
		}
	})
}
