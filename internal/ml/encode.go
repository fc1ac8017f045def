package ml

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
)

// datasetDoc is the staged JSON form of a Dataset, used when the feature
// matrix moves between pipeline stages through the object store.
type datasetDoc struct {
	Names   []string         `json:"names"`
	X       [][]float64      `json:"x"`
	Y       []float64        `json:"y"`
	Skipped []model.RowIssue `json:"skipped,omitempty"`
}

// EncodeDataset serializes the feature dataset to JSON.
func EncodeDataset(ds *Dataset) ([]byte, error) {
	if ds == nil || ds.X == nil {
		return nil, fmt.Errorf("dataset is required")
	}
	n, _ := ds.X.Dims()
	doc := datasetDoc{
		Names:   ds.Names,
		X:       make([][]float64, n),
		Y:       ds.Y,
		Skipped: ds.Skipped,
	}
	for i := 0; i < n; i++ {
		doc.X[i] = mat.Row(nil, i, ds.X)
	}
	return json.Marshal(doc)
}

// DecodeDataset deserializes a staged feature dataset.
func DecodeDataset(data []byte) (*Dataset, error) {
	var doc datasetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(doc.X) == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}
	if len(doc.X) != len(doc.Y) {
		return nil, fmt.Errorf("got %d rows but %d labels", len(doc.X), len(doc.Y))
	}
	cols := len(doc.X[0])
	X := mat.NewDense(len(doc.X), cols, nil)
	for i, row := range doc.X {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), cols)
		}
		X.SetRow(i, row)
	}
	return &Dataset{Names: doc.Names, X: X, Y: doc.Y, Skipped: doc.Skipped}, nil
}
