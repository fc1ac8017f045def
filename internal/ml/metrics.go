package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Metrics summarizes classifier quality on a held-out split.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Rows      int     `json:"rows"`
	Positives int     `json:"positives"`
}

// Evaluate scores the model on raw features and labels.
func Evaluate(m *Model, X *mat.Dense, y []float64) (*Metrics, error) {
	if m == nil || X == nil {
		return nil, fmt.Errorf("model and features are required")
	}
	n, _ := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("got %d rows but %d labels", n, len(y))
	}

	var tp, fp, tn, fn int
	for i := 0; i < n; i++ {
		predicted := m.Predict(mat.Row(nil, i, X))
		actual := y[i] >= 0.5
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && !actual:
			tn++
		default:
			fn++
		}
	}

	metrics := &Metrics{
		Rows:      n,
		Positives: tp + fn,
	}
	if n > 0 {
		metrics.Accuracy = float64(tp+tn) / float64(n)
	}
	if tp+fp > 0 {
		metrics.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		metrics.Recall = float64(tp) / float64(tp+fn)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	return metrics, nil
}
