// Package config builds the immutable pipeline configuration. Precedence is
// CLI overrides > JSON config file > environment > defaults; the resulting
// Config is constructed once at startup and passed to each stage.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GenerationConfig controls the synthetic data generator.
type GenerationConfig struct {
	NumRows         int     `json:"numRows"`
	Seed            int64   `json:"seed"`
	OverlapFraction float64 `json:"overlapFraction"`
	Format          string  `json:"format"` // parquet | csv | json
	OutputDir       string  `json:"outputDir"`
}

// S3Config locates the object store.
type S3Config struct {
	EndpointURL string `json:"endpointUrl"`
	Bucket      string `json:"bucket"`
	BasePrefix  string `json:"basePrefix"`
	Region      string `json:"region"`
	UseSSL      bool   `json:"useSSL"`
}

// AWSConfig carries credentials.
type AWSConfig struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// UploadConfig controls source-file uploads.
type UploadConfig struct {
	Enabled     bool `json:"enabled"`
	SkipSource1 bool `json:"skipSource1"`
	SkipSource2 bool `json:"skipSource2"`
}

// ETLConfig controls extract/transform/load behavior.
type ETLConfig struct {
	JoinPolicy         string  `json:"joinPolicy"` // keep | drop
	FuzzyThreshold     float64 `json:"fuzzyThreshold"`
	CheckpointPremerge bool    `json:"checkpointPremerge"`
	LakeEnabled        bool    `json:"lakeEnabled"`
	LakeTable          string  `json:"lakeTable"`
}

// MLConfig controls feature engineering and training.
type MLConfig struct {
	ProfitThreshold float64 `json:"profitThreshold"`
	TrainRatio      float64 `json:"trainRatio"`
	LearningRate    float64 `json:"learningRate"`
	Epochs          int     `json:"epochs"`
	Seed            int64   `json:"seed"`
}

// RegistryConfig locates the model registry.
type RegistryConfig struct {
	DatabaseURL string `json:"databaseUrl"`
	ModelName   string `json:"modelName"`
}

// TemporalConfig locates the workflow service.
type TemporalConfig struct {
	Address      string `json:"address"`
	Namespace    string `json:"namespace"`
	TaskQueue    string `json:"taskQueue"`
	ETLCron      string `json:"etlCron"`
	TrainingCron string `json:"trainingCron"`
}

// Config is the complete pipeline configuration.
type Config struct {
	Generation GenerationConfig `json:"generation"`
	S3         S3Config         `json:"s3"`
	AWS        AWSConfig        `json:"aws"`
	Upload     UploadConfig     `json:"upload"`
	ETL        ETLConfig        `json:"etl"`
	ML         MLConfig         `json:"ml"`
	Registry   RegistryConfig   `json:"registry"`
	Temporal   TemporalConfig   `json:"temporal"`
}

// Overrides are CLI-level settings; non-zero fields win over everything.
type Overrides struct {
	NumRows   int
	Format    string
	OutputDir string
	Bucket    string
	NoUpload  bool

	SkipSource1 bool
	SkipSource2 bool
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			NumRows:         100,
			Seed:            42,
			OverlapFraction: 0.8,
			Format:          "parquet",
			OutputDir:       "data",
		},
		S3: S3Config{
			Bucket:     "corporate-registry",
			BasePrefix: "registry",
			Region:     "us-east-1",
		},
		Upload: UploadConfig{Enabled: true},
		ETL: ETLConfig{
			JoinPolicy: "keep",
			LakeTable:  "unified_corporate",
		},
		ML: MLConfig{
			ProfitThreshold: 0,
			TrainRatio:      0.8,
			LearningRate:    0.1,
			Epochs:          500,
			Seed:            42,
		},
		Registry: RegistryConfig{ModelName: "profitability-classifier"},
		Temporal: TemporalConfig{
			Address:      "127.0.0.1:7233",
			Namespace:    "default",
			TaskQueue:    "registry-pipeline",
			ETLCron:      "0 2 * * *",
			TrainingCron: "0 4 * * 0",
		},
	}
}

// Load builds the config: defaults, then environment, then the optional JSON
// file at path, then CLI overrides.
func Load(path string, overrides Overrides) (*Config, error) {
	cfg := Default()
	cfg.applyEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyOverrides(overrides)
	cfg.normalizeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.S3.EndpointURL = getEnv("MINIO_ENDPOINT", c.S3.EndpointURL)
	c.S3.Bucket = getEnv("PIPELINE_BUCKET", c.S3.Bucket)
	c.S3.BasePrefix = getEnv("PIPELINE_PREFIX", c.S3.BasePrefix)
	c.S3.Region = getEnv("PIPELINE_S3_REGION", c.S3.Region)
	c.S3.UseSSL = getEnvBool("MINIO_USE_SSL", c.S3.UseSSL)

	c.AWS.AccessKeyID = getEnv("MINIO_ACCESS_KEY", getEnv("AWS_ACCESS_KEY_ID", c.AWS.AccessKeyID))
	c.AWS.SecretAccessKey = getEnv("MINIO_SECRET_KEY", getEnv("AWS_SECRET_ACCESS_KEY", c.AWS.SecretAccessKey))

	c.Generation.NumRows = getEnvInt("PIPELINE_NUM_ROWS", c.Generation.NumRows)
	c.Generation.Format = getEnv("PIPELINE_FORMAT", c.Generation.Format)
	c.Generation.OutputDir = getEnv("PIPELINE_OUTPUT_DIR", c.Generation.OutputDir)

	c.Registry.DatabaseURL = getEnv("REGISTRY_DATABASE_URL", getEnv("DATABASE_URL", c.Registry.DatabaseURL))
	c.Registry.ModelName = getEnv("REGISTRY_MODEL_NAME", c.Registry.ModelName)

	c.Temporal.Address = getEnv("TEMPORAL_ADDRESS", c.Temporal.Address)
	c.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)
	c.Temporal.TaskQueue = getEnv("PIPELINE_TASK_QUEUE", c.Temporal.TaskQueue)
}

func (c *Config) applyOverrides(o Overrides) {
	if o.NumRows > 0 {
		c.Generation.NumRows = o.NumRows
	}
	if o.Format != "" {
		c.Generation.Format = o.Format
	}
	if o.OutputDir != "" {
		c.Generation.OutputDir = o.OutputDir
	}
	if o.Bucket != "" {
		c.S3.Bucket = o.Bucket
	}
	if o.NoUpload {
		c.Upload.Enabled = false
	}
	if o.SkipSource1 {
		c.Upload.SkipSource1 = true
	}
	if o.SkipSource2 {
		c.Upload.SkipSource2 = true
	}
}

func (c *Config) normalizeDefaults() {
	c.Generation.Format = strings.ToLower(strings.TrimSpace(c.Generation.Format))
	c.S3.BasePrefix = strings.Trim(c.S3.BasePrefix, "/")
	if c.ETL.JoinPolicy == "" {
		c.ETL.JoinPolicy = "keep"
	}
	if c.ETL.LakeTable == "" {
		c.ETL.LakeTable = "unified_corporate"
	}
	if c.ML.TrainRatio <= 0 || c.ML.TrainRatio >= 1 {
		c.ML.TrainRatio = 0.8
	}
	if c.ML.Epochs <= 0 {
		c.ML.Epochs = 500
	}
	if c.ML.LearningRate <= 0 {
		c.ML.LearningRate = 0.1
	}
}

// Validate fails fast on configuration errors, before any I/O happens.
func (c *Config) Validate() error {
	switch c.Generation.Format {
	case "parquet", "csv", "json":
	default:
		return fmt.Errorf("generation.format must be parquet, csv or json, got %q", c.Generation.Format)
	}
	if c.Generation.NumRows < 0 {
		return fmt.Errorf("generation.numRows must be >= 0, got %d", c.Generation.NumRows)
	}
	if c.Upload.Enabled && c.S3.EndpointURL != "" {
		if c.AWS.AccessKeyID == "" || c.AWS.SecretAccessKey == "" {
			return fmt.Errorf("upload enabled against %s but credentials are missing", c.S3.EndpointURL)
		}
	}
	switch c.ETL.JoinPolicy {
	case "keep", "drop":
	default:
		return fmt.Errorf("etl.joinPolicy must be keep or drop, got %q", c.ETL.JoinPolicy)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}
