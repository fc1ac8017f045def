// Package lake implements a small table format over the object store:
// versioned manifests pointing at immutable, dated Parquet partitions, with
// merge-by-key upserts.
package lake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

const manifestFile = "manifest.json"

// Partition points at the current snapshot of one dated partition.
type Partition struct {
	Path      string    `json:"path"`
	Rows      int64     `json:"rows"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Manifest is the table metadata object.
type Manifest struct {
	Table      string               `json:"table"`
	KeyColumn  string               `json:"keyColumn"`
	Version    int64                `json:"version"`
	UpdatedAt  time.Time            `json:"updatedAt"`
	Partitions map[string]Partition `json:"partitions"`
}

// Dataset is a partitioned table over the object store.
type Dataset struct {
	store     objectstore.ObjectStore
	bucket    string
	root      string
	table     string
	keyColumn string
	schema    *tabular.Schema
}

// NewDataset opens (or lazily creates) a lake table.
func NewDataset(store objectstore.ObjectStore, bucket, root, table, keyColumn string, schema *tabular.Schema) *Dataset {
	return &Dataset{
		store:     store,
		bucket:    bucket,
		root:      root,
		table:     table,
		keyColumn: keyColumn,
		schema:    schema,
	}
}

// Upsert merges rows by key into the dated partition and writes a new
// immutable snapshot. Existing keys are replaced, new keys appended; prior
// snapshots stay in place under their run prefix.
func (d *Dataset) Upsert(ctx context.Context, dt, runID string, rows []tabular.Row) (*Partition, error) {
	if dt == "" {
		dt = time.Now().UTC().Format("2006-01-02")
	}
	if runID == "" {
		runID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}

	manifest, err := d.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	merged := rows
	if current, ok := manifest.Partitions[dt]; ok {
		existing, err := d.readSnapshot(ctx, current.Path)
		if err != nil {
			return nil, err
		}
		merged = mergeByKey(existing.Rows, rows, d.keyColumn)
	}

	snapshot := tabular.NewTable(d.schema)
	snapshot.Rows = merged
	data, err := tabular.WriteParquet(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode partition snapshot: %w", err)
	}

	path := objectstore.JoinKey(d.root, d.table, "dt="+dt, "run="+runID, "part-000000.parquet")
	if err := d.store.EnsureBucket(ctx, d.bucket); err != nil {
		return nil, err
	}
	if err := d.store.PutObject(ctx, d.bucket, path, data); err != nil {
		return nil, err
	}

	manifest.Version++
	manifest.UpdatedAt = time.Now().UTC()
	part := Partition{
		Path:      path,
		Rows:      int64(len(merged)),
		Version:   manifest.Version,
		UpdatedAt: manifest.UpdatedAt,
	}
	manifest.Partitions[dt] = part

	if err := d.writeManifest(ctx, manifest); err != nil {
		return nil, err
	}
	return &part, nil
}

// Snapshot reads back the current rows of a dated partition.
func (d *Dataset) Snapshot(ctx context.Context, dt string) (*tabular.Table, error) {
	manifest, err := d.loadManifest(ctx)
	if err != nil {
		return nil, err
	}
	part, ok := manifest.Partitions[dt]
	if !ok {
		return nil, fmt.Errorf("partition dt=%s not found in table %s", dt, d.table)
	}
	return d.readSnapshot(ctx, part.Path)
}

// Version returns the current manifest version (0 for a fresh table).
func (d *Dataset) Version(ctx context.Context) (int64, error) {
	manifest, err := d.loadManifest(ctx)
	if err != nil {
		return 0, err
	}
	return manifest.Version, nil
}

func (d *Dataset) loadManifest(ctx context.Context) (*Manifest, error) {
	data, err := d.store.GetObject(ctx, d.bucket, d.manifestKey())
	if err != nil {
		if objectstore.IsNotFound(err) {
			return &Manifest{
				Table:      d.table,
				KeyColumn:  d.keyColumn,
				Partitions: map[string]Partition{},
			}, nil
		}
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest for table %s: %w", d.table, err)
	}
	if m.Partitions == nil {
		m.Partitions = map[string]Partition{}
	}
	return &m, nil
}

func (d *Dataset) writeManifest(ctx context.Context, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return d.store.PutObject(ctx, d.bucket, d.manifestKey(), data)
}

func (d *Dataset) manifestKey() string {
	return objectstore.JoinKey(d.root, d.table, manifestFile)
}

func (d *Dataset) readSnapshot(ctx context.Context, path string) (*tabular.Table, error) {
	data, err := d.store.GetObject(ctx, d.bucket, path)
	if err != nil {
		return nil, err
	}
	return tabular.ReadParquet(data, d.schema)
}

// mergeByKey overlays incoming rows onto existing ones. Incoming wins on key
// collision; existing order is preserved, new keys append in input order.
func mergeByKey(existing, incoming []tabular.Row, keyColumn string) []tabular.Row {
	incomingByKey := make(map[string]tabular.Row, len(incoming))
	for _, row := range incoming {
		if key, ok := row[keyColumn].(string); ok && key != "" {
			incomingByKey[key] = row
		}
	}

	merged := make([]tabular.Row, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing))
	for _, row := range existing {
		key, _ := row[keyColumn].(string)
		if repl, ok := incomingByKey[key]; ok {
			merged = append(merged, repl)
			seen[key] = true
			continue
		}
		merged = append(merged, row)
	}
	for _, row := range incoming {
		key, _ := row[keyColumn].(string)
		if key == "" {
			merged = append(merged, row)
			continue
		}
		if !seen[key] {
			// Last occurrence wins when incoming repeats a key.
			merged = append(merged, incomingByKey[key])
			seen[key] = true
		}
	}
	return merged
}
