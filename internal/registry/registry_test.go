package registry

import (
	"context"
	"testing"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
)

func TestArtifactKey(t *testing.T) {
	got := ArtifactKey("registry", "profitability-classifier", 3)
	want := "registry/models/profitability-classifier/v3/model.json"
	if got != want {
		t.Errorf("ArtifactKey = %q, want %q", got, want)
	}

	if got := ArtifactKey("", "m", 1); got != "models/m/v1/model.json" {
		t.Errorf("ArtifactKey with empty prefix = %q", got)
	}
}

func TestNewRequiresDatabaseURL(t *testing.T) {
	store := objectstore.NewLocalStore(t.TempDir())
	if _, err := New(context.Background(), "", store, "bkt", "registry"); err == nil {
		t.Errorf("empty database URL should fail")
	}
}

func TestTransitionStageRejectsUnknownStage(t *testing.T) {
	c := &Client{}
	if err := c.TransitionStage(context.Background(), "m", 1, "ARCHIVED"); err == nil {
		t.Errorf("unknown stage should fail before any query")
	}
}

func TestLogModelValidation(t *testing.T) {
	c := &Client{}
	if _, err := c.LogModel(context.Background(), "", nil, nil); err == nil {
		t.Errorf("missing model name should fail")
	}
	if _, err := c.LogModel(context.Background(), "m", nil, nil); err == nil {
		t.Errorf("nil model should fail")
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	c.Close() // must not panic
}
