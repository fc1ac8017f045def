// Package ml derives features from the unified table and trains the
// profitability classifier.
package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
)

// FeatureNames is the fixed feature vector, in column order.
var FeatureNames = []string{"revenue", "supplier_count", "profit_margin"}

// Dataset is a feature matrix with labels.
type Dataset struct {
	Names []string
	X     *mat.Dense
	Y     []float64

	Skipped []model.RowIssue
}

// NumRows returns the number of labeled rows.
func (d *Dataset) NumRows() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// BuildFeatures derives the feature vector and label for each unified row.
// The label is exactly profit > threshold. Rows without a financial side are
// flagged out rather than failing the batch.
func BuildFeatures(records []model.UnifiedRecord, profitThreshold float64) (*Dataset, error) {
	var data []float64
	var labels []float64
	var skipped []model.RowIssue

	for i, rec := range records {
		if !rec.HasFinancial {
			skipped = append(skipped, model.RowIssue{
				Source: "unified", Row: i, Field: "revenue", Reason: "no financial side, excluded from training",
			})
			continue
		}
		data = append(data,
			rec.Revenue,
			float64(len(rec.TopSuppliers)),
			rec.ProfitMargin,
		)
		if rec.Profit > profitThreshold {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("no rows with financial data to train on")
	}

	return &Dataset{
		Names:   FeatureNames,
		X:       mat.NewDense(len(labels), len(FeatureNames), data),
		Y:       labels,
		Skipped: skipped,
	}, nil
}
