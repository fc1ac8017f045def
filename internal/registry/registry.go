// Package registry logs trained models and their metrics to a
// Postgres-backed model registry, with artifacts in the object store.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/ml"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
)

// Model stages.
const (
	StageNone       = "NONE"
	StageStaging    = "STAGING"
	StageProduction = "PRODUCTION"
)

// Version statuses.
const (
	StatusRegistered = "REGISTERED"
	StatusFailed     = "FAILED"
)

const ddl = `
CREATE TABLE IF NOT EXISTS model_versions (
  model_name text NOT NULL,
  version bigint NOT NULL,
  stage text NOT NULL DEFAULT 'NONE',
  status text NOT NULL DEFAULT 'REGISTERED',
  params jsonb NOT NULL DEFAULT '{}'::jsonb,
  metrics jsonb NOT NULL DEFAULT '{}'::jsonb,
  artifact_uri text NOT NULL DEFAULT '',
  last_error text,
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (model_name, version)
);`

// ModelVersion is one registered model.
type ModelVersion struct {
	ModelName   string
	Version     int64
	Stage       string
	Status      string
	ArtifactURI string
	Metrics     *ml.Metrics
	CreatedAt   time.Time
}

// Client talks to the registry database and artifact store.
type Client struct {
	pool   *pgxpool.Pool
	store  objectstore.ObjectStore
	bucket string
	prefix string
}

// New connects to the registry database and ensures the schema exists.
func New(ctx context.Context, databaseURL string, store objectstore.ObjectStore, bucket, prefix string) (*Client, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("registry database URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect registry database: %w", err)
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure registry schema: %w", err)
	}
	return &Client{pool: pool, store: store, bucket: bucket, prefix: prefix}, nil
}

// Close releases the database pool.
func (c *Client) Close() {
	if c != nil && c.pool != nil {
		c.pool.Close()
	}
}

// LogModel stores the serialized model as an artifact and inserts a new
// registry version with its params and metrics.
func (c *Client) LogModel(ctx context.Context, name string, m *ml.Model, metrics *ml.Metrics) (*ModelVersion, error) {
	if name == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if m == nil {
		return nil, fmt.Errorf("model is required")
	}

	version, err := c.nextVersion(ctx, name)
	if err != nil {
		return nil, err
	}

	artifact, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}
	key := ArtifactKey(c.prefix, name, version)
	if err := c.store.EnsureBucket(ctx, c.bucket); err != nil {
		return nil, err
	}
	if err := c.store.PutObject(ctx, c.bucket, key, artifact); err != nil {
		c.markFailed(ctx, name, version, err)
		return nil, fmt.Errorf("store model artifact: %w", err)
	}
	artifactURI := fmt.Sprintf("s3://%s/%s", c.bucket, key)

	params := map[string]any{
		"epochs":          m.Epochs,
		"learningRate":    m.LearningRate,
		"profitThreshold": m.ProfitThreshold,
		"features":        m.FeatureNames,
	}
	paramsJSON, _ := json.Marshal(params)
	metricsJSON, _ := json.Marshal(metrics)

	_, err = c.pool.Exec(ctx, `
INSERT INTO model_versions (model_name, version, stage, status, params, metrics, artifact_uri)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		name, version, StageNone, StatusRegistered, paramsJSON, metricsJSON, artifactURI)
	if err != nil {
		return nil, fmt.Errorf("insert model version: %w", err)
	}

	return &ModelVersion{
		ModelName:   name,
		Version:     version,
		Stage:       StageNone,
		Status:      StatusRegistered,
		ArtifactURI: artifactURI,
		Metrics:     metrics,
	}, nil
}

// TransitionStage moves a version between NONE/STAGING/PRODUCTION.
func (c *Client) TransitionStage(ctx context.Context, name string, version int64, stage string) error {
	switch stage {
	case StageNone, StageStaging, StageProduction:
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	tag, err := c.pool.Exec(ctx, `
UPDATE model_versions SET stage=$3, updated_at=now()
WHERE model_name=$1 AND version=$2`, name, version, stage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("model %s version %d not found", name, version)
	}
	return nil
}

// LatestVersion returns the newest registered version of a model.
func (c *Client) LatestVersion(ctx context.Context, name string) (*ModelVersion, error) {
	row := c.pool.QueryRow(ctx, `
SELECT model_name, version, stage, status, artifact_uri, metrics, created_at
FROM model_versions
WHERE model_name=$1 AND status=$2
ORDER BY version DESC
LIMIT 1`, name, StatusRegistered)

	var mv ModelVersion
	var metricsJSON []byte
	if err := row.Scan(&mv.ModelName, &mv.Version, &mv.Stage, &mv.Status, &mv.ArtifactURI, &metricsJSON, &mv.CreatedAt); err != nil {
		return nil, err
	}
	if len(metricsJSON) > 0 {
		var metrics ml.Metrics
		if err := json.Unmarshal(metricsJSON, &metrics); err == nil {
			mv.Metrics = &metrics
		}
	}
	return &mv, nil
}

// LoadModel fetches and deserializes the artifact of a registered version.
func (c *Client) LoadModel(ctx context.Context, mv *ModelVersion) (*ml.Model, error) {
	key := ArtifactKey(c.prefix, mv.ModelName, mv.Version)
	data, err := c.store.GetObject(ctx, c.bucket, key)
	if err != nil {
		return nil, err
	}
	var m ml.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	return &m, nil
}

func (c *Client) nextVersion(ctx context.Context, name string) (int64, error) {
	var latest int64
	row := c.pool.QueryRow(ctx, `
SELECT COALESCE(MAX(version), 0) FROM model_versions WHERE model_name=$1`, name)
	if err := row.Scan(&latest); err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return latest + 1, nil
}

// markFailed records a failed registration best-effort.
func (c *Client) markFailed(ctx context.Context, name string, version int64, cause error) {
	_, _ = c.pool.Exec(ctx, `
INSERT INTO model_versions (model_name, version, status, last_error)
VALUES ($1, $2, $3, $4)
ON CONFLICT (model_name, version)
DO UPDATE SET status=$3, last_error=$4, updated_at=now()`,
		name, version, StatusFailed, cause.Error())
}

// ArtifactKey builds the object key for a model version artifact.
func ArtifactKey(prefix, name string, version int64) string {
	return objectstore.JoinKey(prefix, "models", name, fmt.Sprintf("v%d", version), "model.json")
}
